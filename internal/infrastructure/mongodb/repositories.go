package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	sharedmongo "github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

func findByID[T any](ctx context.Context, coll *mongo.Collection, filter interface{}) (*T, error) {
	var doc T
	found, err := sharedmongo.FindOne(ctx, coll, filter, &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

// Pedidos

type pedidoRepo struct{ s *Store }

func (r *pedidoRepo) Save(ctx context.Context, p *domain.Pedido) error {
	return r.s.upsert(ctx, collPedidos, "pedido", p.ID, p)
}

func (r *pedidoRepo) FindByID(ctx context.Context, id string) (*domain.Pedido, error) {
	return findByID[domain.Pedido](ctx, r.s.coll(collPedidos), bson.D{{Key: "_id", Value: id}, sharedmongo.NotDeleted()})
}

func (r *pedidoRepo) find(ctx context.Context, filter bson.D) ([]*domain.Pedido, error) {
	filter = append(filter, sharedmongo.NotDeleted())
	return sharedmongo.FindAll[domain.Pedido](ctx, r.s.coll(collPedidos), filter, sharedmongo.SortAscending("createdAt"))
}

func (r *pedidoRepo) FindByConferencia(ctx context.Context, conferenciaID string) ([]*domain.Pedido, error) {
	return r.find(ctx, bson.D{{Key: "conferenciaId", Value: conferenciaID}})
}

func (r *pedidoRepo) FindByConferenciaAndStatus(ctx context.Context, conferenciaID string, status domain.PedidoStatus) ([]*domain.Pedido, error) {
	return r.find(ctx, bson.D{{Key: "conferenciaId", Value: conferenciaID}, {Key: "status", Value: status}})
}

func (r *pedidoRepo) FindByTransporte(ctx context.Context, transporteID string) ([]*domain.Pedido, error) {
	return r.find(ctx, bson.D{{Key: "transporteId", Value: transporteID}})
}

func (r *pedidoRepo) FindByRecebimento(ctx context.Context, recebimentoID string) ([]*domain.Pedido, error) {
	return r.find(ctx, bson.D{{Key: "recebimentoId", Value: recebimentoID}})
}

func (r *pedidoRepo) count(ctx context.Context, filter bson.D) (int, error) {
	filter = append(filter, sharedmongo.NotDeleted())
	n, err := r.s.coll(collPedidos).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count pedidos: %w", err)
	}
	return int(n), nil
}

func (r *pedidoRepo) CountByConferencia(ctx context.Context, conferenciaID string) (int, error) {
	return r.count(ctx, bson.D{{Key: "conferenciaId", Value: conferenciaID}})
}

func (r *pedidoRepo) CountByConferenciaAndStatus(ctx context.Context, conferenciaID string, status domain.PedidoStatus) (int, error) {
	return r.count(ctx, bson.D{{Key: "conferenciaId", Value: conferenciaID}, {Key: "status", Value: status}})
}

// Rastreamentos

type rastreamentoRepo struct{ s *Store }

func (r *rastreamentoRepo) Append(ctx context.Context, ev *domain.EventoRastreamento) error {
	return r.s.insert(ctx, collRastreamentos, "rastreamento", ev.ID, ev)
}

func (r *rastreamentoRepo) FindByPedido(ctx context.Context, pedidoID string) ([]*domain.EventoRastreamento, error) {
	sort := bson.D{{Key: "data", Value: 1}, {Key: "_id", Value: 1}}
	return sharedmongo.FindAll[domain.EventoRastreamento](ctx, r.s.coll(collRastreamentos), bson.M{"pedidoId": pedidoID}, sort)
}

// Conferencias

type conferenciaRepo struct{ s *Store }

func (r *conferenciaRepo) Save(ctx context.Context, c *domain.Conferencia) error {
	return r.s.upsert(ctx, collConferencias, "conferencia", c.ID, c)
}

func (r *conferenciaRepo) FindByID(ctx context.Context, id string) (*domain.Conferencia, error) {
	return findByID[domain.Conferencia](ctx, r.s.coll(collConferencias), bson.M{"_id": id})
}

// Transportes

type transporteRepo struct{ s *Store }

func (r *transporteRepo) Save(ctx context.Context, t *domain.Transporte) error {
	return r.s.upsert(ctx, collTransportes, "transporte", t.ID, t)
}

func (r *transporteRepo) FindByID(ctx context.Context, id string) (*domain.Transporte, error) {
	return findByID[domain.Transporte](ctx, r.s.coll(collTransportes), bson.M{"_id": id})
}

// Motoristas

type motoristaRepo struct{ s *Store }

func (r *motoristaRepo) Save(ctx context.Context, m *domain.Motorista) error {
	return r.s.upsert(ctx, collMotoristas, "motorista", m.ID, m)
}

func (r *motoristaRepo) FindByID(ctx context.Context, id string) (*domain.Motorista, error) {
	return findByID[domain.Motorista](ctx, r.s.coll(collMotoristas), bson.M{"_id": id})
}

// Rotas

type rotaRepo struct{ s *Store }

func (r *rotaRepo) Save(ctx context.Context, rota *domain.Rota) error {
	return r.s.upsert(ctx, collRotas, "rota", rota.ID, rota)
}

func (r *rotaRepo) FindByID(ctx context.Context, id string) (*domain.Rota, error) {
	return findByID[domain.Rota](ctx, r.s.coll(collRotas), bson.M{"_id": id})
}

func (r *rotaRepo) FindDisponiveis(ctx context.Context) ([]*domain.Rota, error) {
	filter := bson.M{
		"transporteId": bson.M{"$in": bson.A{nil, ""}},
		"status":       bson.M{"$in": bson.A{domain.RotaCriada, domain.RotaEmAndamento}},
	}
	return sharedmongo.FindAll[domain.Rota](ctx, r.s.coll(collRotas), filter, sharedmongo.SortAscending("createdAt"))
}

// Separacoes

type separacaoRepo struct{ s *Store }

func (r *separacaoRepo) Save(ctx context.Context, sep *domain.Separacao) error {
	return r.s.upsert(ctx, collSeparacoes, "separacao", sep.ID, sep)
}

func (r *separacaoRepo) FindByID(ctx context.Context, id string) (*domain.Separacao, error) {
	return findByID[domain.Separacao](ctx, r.s.coll(collSeparacoes), bson.M{"_id": id})
}

func (r *separacaoRepo) FindAtivaByPedido(ctx context.Context, pedidoID string) (*domain.Separacao, error) {
	return findByID[domain.Separacao](ctx, r.s.coll(collSeparacoes), bson.M{
		"pedidoId": pedidoID,
		"status":   bson.M{"$ne": domain.SeparacaoCancelada},
	})
}

// Coletas

type coletaRepo struct{ s *Store }

func (r *coletaRepo) Save(ctx context.Context, c *domain.Coleta) error {
	return r.s.upsert(ctx, collColetas, "coleta", c.ID, c)
}

func (r *coletaRepo) FindByID(ctx context.Context, id string) (*domain.Coleta, error) {
	return findByID[domain.Coleta](ctx, r.s.coll(collColetas), bson.M{"_id": id})
}

func (r *coletaRepo) FindBySeparacao(ctx context.Context, separacaoID string) ([]*domain.Coleta, error) {
	return sharedmongo.FindAll[domain.Coleta](ctx, r.s.coll(collColetas), bson.M{"separacaoId": separacaoID}, sharedmongo.SortAscending("createdAt"))
}

// Excecoes

type excecaoRepo struct{ s *Store }

func (r *excecaoRepo) Create(ctx context.Context, e *domain.Excecao) error {
	return r.s.insert(ctx, collExcecoes, "excecao", e.ID, e)
}

// SaveResolution rewrites only the workflow fields. Type, severity, impact
// and links stay as they were filed.
func (r *excecaoRepo) SaveResolution(ctx context.Context, e *domain.Excecao) error {
	update := bson.M{"$set": bson.M{
		"status":      e.Status,
		"responsavel": e.Responsavel,
		"resolucao":   e.Resolucao,
		"historico":   e.Historico,
		"updatedAt":   e.UpdatedAt,
	}}
	result, err := r.s.coll(collExcecoes).UpdateOne(ctx, bson.M{"_id": e.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to save excecao %s: %w", e.ID, err)
	}
	if result.MatchedCount == 0 {
		return &domain.NotFoundError{Entity: "excecao", ID: e.ID}
	}
	return r.s.drain(ctx, "excecao", e.ID, e)
}

func (r *excecaoRepo) FindByID(ctx context.Context, id string) (*domain.Excecao, error) {
	return findByID[domain.Excecao](ctx, r.s.coll(collExcecoes), bson.M{"_id": id})
}

func (r *excecaoRepo) FindByPedido(ctx context.Context, pedidoID string) ([]*domain.Excecao, error) {
	return sharedmongo.FindAll[domain.Excecao](ctx, r.s.coll(collExcecoes), bson.M{"vinculos.pedidoId": pedidoID}, sharedmongo.SortAscending("createdAt"))
}

func (r *excecaoRepo) FindByConferencia(ctx context.Context, conferenciaID string) ([]*domain.Excecao, error) {
	return sharedmongo.FindAll[domain.Excecao](ctx, r.s.coll(collExcecoes), bson.M{"vinculos.conferenciaId": conferenciaID}, sharedmongo.SortAscending("createdAt"))
}

// Estoques

type estoqueRepo struct{ s *Store }

func (r *estoqueRepo) Create(ctx context.Context, e *domain.EntradaEstoque) error {
	return r.s.insert(ctx, collEstoques, "estoque", e.ID, e)
}

func (r *estoqueRepo) FindByPedido(ctx context.Context, pedidoID string) ([]*domain.EntradaEstoque, error) {
	return sharedmongo.FindAll[domain.EntradaEstoque](ctx, r.s.coll(collEstoques), bson.M{"pedidoId": pedidoID}, sharedmongo.SortAscending("dataEntrada"))
}

// Recebimentos

type recebimentoRepo struct{ s *Store }

func (r *recebimentoRepo) Save(ctx context.Context, rec *domain.Recebimento) error {
	return r.s.upsert(ctx, collRecebimentos, "recebimento", rec.ID, rec)
}

func (r *recebimentoRepo) FindByID(ctx context.Context, id string) (*domain.Recebimento, error) {
	return findByID[domain.Recebimento](ctx, r.s.coll(collRecebimentos), bson.M{"_id": id})
}

// LockForUpdate writes a lock token onto the manifest. The write takes the
// document lock, so a concurrent transaction doing the same aborts with a
// write conflict until this one ends.
func (r *recebimentoRepo) LockForUpdate(ctx context.Context, id, token string) (*domain.Recebimento, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"lockToken": token,
		"lockedAt":  time.Now().UTC(),
	}}

	var rec domain.Recebimento
	err := r.s.coll(collRecebimentos).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock recebimento %s: %w", id, err)
	}
	return &rec, nil
}

// Transferencias

type transferenciaRepo struct{ s *Store }

func (r *transferenciaRepo) Save(ctx context.Context, t *domain.Transferencia) error {
	return r.s.upsert(ctx, collTransferencias, "transferencia", t.ID, t)
}

func (r *transferenciaRepo) FindByID(ctx context.Context, id string) (*domain.Transferencia, error) {
	return findByID[domain.Transferencia](ctx, r.s.coll(collTransferencias), bson.M{"_id": id})
}
