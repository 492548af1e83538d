package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing every finder plus the unique
// business codes. Safe to call on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetName(name).SetUnique(true)
	}
	named := func(name string) *options.IndexOptions {
		return options.Index().SetName(name)
	}

	indexes := map[string][]mongo.IndexModel{
		collPedidos: {
			{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: unique("idx_codigo")},
			{Keys: bson.D{{Key: "conferenciaId", Value: 1}, {Key: "status", Value: 1}}, Options: named("idx_conferenciaId_status")},
			{Keys: bson.D{{Key: "transporteId", Value: 1}}, Options: named("idx_transporteId")},
			{Keys: bson.D{{Key: "recebimentoId", Value: 1}}, Options: named("idx_recebimentoId")},
		},
		collRastreamentos: {
			{Keys: bson.D{{Key: "pedidoId", Value: 1}, {Key: "data", Value: 1}}, Options: named("idx_pedidoId_data")},
		},
		collConferencias: {
			{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: unique("idx_codigo")},
		},
		collTransportes: {
			{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: unique("idx_codigo")},
		},
		collRotas: {
			{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: unique("idx_codigo")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "transporteId", Value: 1}}, Options: named("idx_status_transporteId")},
		},
		collSeparacoes: {
			{Keys: bson.D{{Key: "pedidoId", Value: 1}, {Key: "status", Value: 1}}, Options: named("idx_pedidoId_status")},
		},
		collColetas: {
			{Keys: bson.D{{Key: "separacaoId", Value: 1}}, Options: named("idx_separacaoId")},
		},
		collExcecoes: {
			{Keys: bson.D{{Key: "numero", Value: 1}}, Options: unique("idx_numero")},
			{Keys: bson.D{{Key: "vinculos.pedidoId", Value: 1}}, Options: named("idx_vinculos_pedidoId")},
			{Keys: bson.D{{Key: "vinculos.conferenciaId", Value: 1}}, Options: named("idx_vinculos_conferenciaId")},
		},
		collEstoques: {
			{Keys: bson.D{{Key: "pedidoId", Value: 1}}, Options: named("idx_pedidoId")},
		},
		collRecebimentos: {
			{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: unique("idx_codigo")},
		},
		collTransferencias: {
			{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: unique("idx_codigo")},
		},
	}

	for collection, models := range indexes {
		if _, err := s.coll(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}
	return s.outboxRepo.EnsureIndexes(ctx)
}
