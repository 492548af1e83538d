// Package memory implements the unit of work over an in-process store. It is
// used by tests and by the service when STORAGE_DRIVER is "memory".
package memory

import (
	"context"
	"sync"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// state is one full copy of the data set
type state struct {
	pedidos        map[string]*domain.Pedido
	rastreamentos  []*domain.EventoRastreamento
	conferencias   map[string]*domain.Conferencia
	transportes    map[string]*domain.Transporte
	motoristas     map[string]*domain.Motorista
	rotas          map[string]*domain.Rota
	separacoes     map[string]*domain.Separacao
	coletas        map[string]*domain.Coleta
	excecoes       map[string]*domain.Excecao
	estoques       []*domain.EntradaEstoque
	recebimentos   map[string]*domain.Recebimento
	transferencias map[string]*domain.Transferencia
	sequences      map[string]int64
	published      []domain.DomainEvent
}

func newState() *state {
	return &state{
		pedidos:        make(map[string]*domain.Pedido),
		conferencias:   make(map[string]*domain.Conferencia),
		transportes:    make(map[string]*domain.Transporte),
		motoristas:     make(map[string]*domain.Motorista),
		rotas:          make(map[string]*domain.Rota),
		separacoes:     make(map[string]*domain.Separacao),
		coletas:        make(map[string]*domain.Coleta),
		excecoes:       make(map[string]*domain.Excecao),
		recebimentos:   make(map[string]*domain.Recebimento),
		transferencias: make(map[string]*domain.Transferencia),
		sequences:      make(map[string]int64),
	}
}

// clone copies every map and slice. Stored entities are immutable once
// stored (repositories store and return copies), so sharing the entity
// pointers between generations is safe.
func (s *state) clone() *state {
	c := &state{
		pedidos:        cloneMap(s.pedidos),
		rastreamentos:  append([]*domain.EventoRastreamento(nil), s.rastreamentos...),
		conferencias:   cloneMap(s.conferencias),
		transportes:    cloneMap(s.transportes),
		motoristas:     cloneMap(s.motoristas),
		rotas:          cloneMap(s.rotas),
		separacoes:     cloneMap(s.separacoes),
		coletas:        cloneMap(s.coletas),
		excecoes:       cloneMap(s.excecoes),
		estoques:       append([]*domain.EntradaEstoque(nil), s.estoques...),
		recebimentos:   cloneMap(s.recebimentos),
		transferencias: cloneMap(s.transferencias),
		sequences:      cloneMap(s.sequences),
		published:      append([]domain.DomainEvent(nil), s.published...),
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is an in-memory domain.UnitOfWork. Transactions are serialized by a
// store-wide mutex; each one works on a copy of the committed state that is
// swapped in on success and dropped on error.
type Store struct {
	mu        sync.Mutex
	committed *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{committed: newState()}
}

// WithinTransaction implements domain.UnitOfWork
func (s *Store) WithinTransaction(ctx context.Context, _ string, fn func(ctx context.Context, tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.committed.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.committed = work
	return nil
}

// PublishedEvents returns the committed domain events in write order, the
// in-memory equivalent of the outbox.
func (s *Store) PublishedEvents() []domain.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DomainEvent(nil), s.committed.published...)
}

type tx struct {
	st *state
}

func (t *tx) Pedidos() domain.PedidoRepository { return pedidoRepo{t.st} }
func (t *tx) Rastreamentos() domain.RastreamentoRepository { return rastreamentoRepo{t.st} }
func (t *tx) Conferencias() domain.ConferenciaRepository { return conferenciaRepo{t.st} }
func (t *tx) Transportes() domain.TransporteRepository { return transporteRepo{t.st} }
func (t *tx) Motoristas() domain.MotoristaRepository { return motoristaRepo{t.st} }
func (t *tx) Rotas() domain.RotaRepository { return rotaRepo{t.st} }
func (t *tx) Separacoes() domain.SeparacaoRepository { return separacaoRepo{t.st} }
func (t *tx) Coletas() domain.ColetaRepository { return coletaRepo{t.st} }
func (t *tx) Excecoes() domain.ExcecaoRepository { return excecaoRepo{t.st} }
func (t *tx) Estoques() domain.EstoqueRepository { return estoqueRepo{t.st} }
func (t *tx) Recebimentos() domain.RecebimentoRepository { return recebimentoRepo{t.st} }
func (t *tx) Transferencias() domain.TransferenciaRepository { return transferenciaRepo{t.st} }
func (t *tx) Sequences() domain.SequenceGenerator { return sequenceGen{t.st} }

// drain moves the aggregate's pending events into the published log
func (s *state) drain(a domain.Aggregate) {
	s.published = append(s.published, a.DomainEvents()...)
	a.ClearDomainEvents()
}

type sequenceGen struct{ st *state }

func (g sequenceGen) Next(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.st.sequences[name]++
	return g.st.sequences[name], nil
}
