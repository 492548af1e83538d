package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	sharedmongo "github.com/wms-platform/fulfillment-service/pkg/mongodb"
	"github.com/wms-platform/fulfillment-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/fulfillment-service/pkg/outbox/mongodb"
)

// Collection names
const (
	collPedidos        = "pedidos"
	collRastreamentos  = "rastreamentos"
	collConferencias   = "conferencias"
	collTransportes    = "transportes"
	collMotoristas     = "motoristas"
	collRotas          = "rotas"
	collSeparacoes     = "separacoes"
	collColetas        = "coletas"
	collExcecoes       = "excecoes"
	collEstoques       = "estoques"
	collRecebimentos   = "recebimentos"
	collTransferencias = "transferencias"
	collSequences      = "sequences"
)

// Store implements domain.UnitOfWork on MongoDB multi-document
// transactions. Domain events of every saved aggregate are written to the
// outbox inside the same transaction.
type Store struct {
	client       *sharedmongo.Client
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewStore creates a Store on client's database
func NewStore(client *sharedmongo.Client, eventFactory *cloudevents.EventFactory) *Store {
	db := client.Database()
	return &Store{
		client:       client,
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
}

// Outbox returns the outbox repository the relay drains
func (s *Store) Outbox() *outboxMongo.OutboxRepository {
	return s.outboxRepo
}

// WithinTransaction implements domain.UnitOfWork. The driver retries fn on
// transient transaction errors.
func (s *Store) WithinTransaction(ctx context.Context, operation string, fn func(ctx context.Context, tx domain.Tx) error) error {
	return s.client.WithTransaction(ctx, operation, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx, &tx{store: s})
	})
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// upsert replaces the document with the aggregate's _id and drains its
// domain events into the outbox.
func (s *Store) upsert(ctx context.Context, collection, aggregateType, id string, doc interface{}) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", aggregateType, id, err)
	}
	if agg, ok := doc.(domain.Aggregate); ok {
		return s.drain(ctx, aggregateType, id, agg)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, collection, aggregateType, id string, doc interface{}) error {
	if _, err := s.coll(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", aggregateType, id, err)
	}
	if agg, ok := doc.(domain.Aggregate); ok {
		return s.drain(ctx, aggregateType, id, agg)
	}
	return nil
}

func (s *Store) drain(ctx context.Context, aggregateType, id string, agg domain.Aggregate) error {
	domainEvents := agg.DomainEvents()
	if len(domainEvents) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))
	for _, event := range domainEvents {
		cloudEvent := s.eventFactory.CreateEvent(ctx, event.EventType(), aggregateType+"/"+id, event.OccurredAt(), event)
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(id, aggregateType, cloudevents.TopicFor(aggregateType), cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}
	if err := s.outboxRepo.SaveAll(ctx, outboxEvents); err != nil {
		return err
	}

	agg.ClearDomainEvents()
	return nil
}

type tx struct {
	store *Store
}

func (t *tx) Pedidos() domain.PedidoRepository               { return &pedidoRepo{t.store} }
func (t *tx) Rastreamentos() domain.RastreamentoRepository   { return &rastreamentoRepo{t.store} }
func (t *tx) Conferencias() domain.ConferenciaRepository     { return &conferenciaRepo{t.store} }
func (t *tx) Transportes() domain.TransporteRepository       { return &transporteRepo{t.store} }
func (t *tx) Motoristas() domain.MotoristaRepository         { return &motoristaRepo{t.store} }
func (t *tx) Rotas() domain.RotaRepository                   { return &rotaRepo{t.store} }
func (t *tx) Separacoes() domain.SeparacaoRepository         { return &separacaoRepo{t.store} }
func (t *tx) Coletas() domain.ColetaRepository               { return &coletaRepo{t.store} }
func (t *tx) Excecoes() domain.ExcecaoRepository             { return &excecaoRepo{t.store} }
func (t *tx) Estoques() domain.EstoqueRepository             { return &estoqueRepo{t.store} }
func (t *tx) Recebimentos() domain.RecebimentoRepository     { return &recebimentoRepo{t.store} }
func (t *tx) Transferencias() domain.TransferenciaRepository { return &transferenciaRepo{t.store} }
func (t *tx) Sequences() domain.SequenceGenerator            { return &sequenceRepo{t.store} }

// sequenceRepo draws numbers from one counter document per name. The $inc
// upsert takes a write lock on the counter for the rest of the transaction.
type sequenceRepo struct{ s *Store }

func (r *sequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Value int64 `bson:"value"`
	}
	err := r.s.coll(collSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", name, err)
	}
	return doc.Value, nil
}
