package domain

import (
	"context"
	"time"
)

// Aggregate is implemented by every entity that records domain events.
// Repositories drain the events into the outbox on save.
type Aggregate interface {
	DomainEvents() []DomainEvent
	ClearDomainEvents()
}

// UnitOfWork runs fn inside one atomic transaction. Either every write made
// through tx commits, or none does. fn may be invoked more than once when
// the store retries a transient conflict, so it must reload what it reads.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, operation string, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one transaction. Repositories are
// only reachable through a Tx.
type Tx interface {
	Pedidos() PedidoRepository
	Rastreamentos() RastreamentoRepository
	Conferencias() ConferenciaRepository
	Transportes() TransporteRepository
	Motoristas() MotoristaRepository
	Rotas() RotaRepository
	Separacoes() SeparacaoRepository
	Coletas() ColetaRepository
	Excecoes() ExcecaoRepository
	Estoques() EstoqueRepository
	Recebimentos() RecebimentoRepository
	Transferencias() TransferenciaRepository
	Sequences() SequenceGenerator
}

// PedidoRepository defines persistence operations for orders. Finders skip
// soft-deleted orders.
type PedidoRepository interface {
	Save(ctx context.Context, pedido *Pedido) error
	FindByID(ctx context.Context, id string) (*Pedido, error)
	FindByConferencia(ctx context.Context, conferenciaID string) ([]*Pedido, error)
	FindByConferenciaAndStatus(ctx context.Context, conferenciaID string, status PedidoStatus) ([]*Pedido, error)
	FindByTransporte(ctx context.Context, transporteID string) ([]*Pedido, error)
	FindByRecebimento(ctx context.Context, recebimentoID string) ([]*Pedido, error)
	CountByConferencia(ctx context.Context, conferenciaID string) (int, error)
	CountByConferenciaAndStatus(ctx context.Context, conferenciaID string, status PedidoStatus) (int, error)
}

// RastreamentoRepository is insert-only: tracking rows are never updated
type RastreamentoRepository interface {
	Append(ctx context.Context, evento *EventoRastreamento) error
	FindByPedido(ctx context.Context, pedidoID string) ([]*EventoRastreamento, error)
}

// ConferenciaRepository defines persistence operations for conferences
type ConferenciaRepository interface {
	Save(ctx context.Context, conferencia *Conferencia) error
	FindByID(ctx context.Context, id string) (*Conferencia, error)
}

// TransporteRepository defines persistence operations for shipments
type TransporteRepository interface {
	Save(ctx context.Context, transporte *Transporte) error
	FindByID(ctx context.Context, id string) (*Transporte, error)
}

// MotoristaRepository defines persistence operations for drivers
type MotoristaRepository interface {
	Save(ctx context.Context, motorista *Motorista) error
	FindByID(ctx context.Context, id string) (*Motorista, error)
}

// RotaRepository defines persistence operations for routes
type RotaRepository interface {
	Save(ctx context.Context, rota *Rota) error
	FindByID(ctx context.Context, id string) (*Rota, error)
	FindDisponiveis(ctx context.Context) ([]*Rota, error)
}

// SeparacaoRepository defines persistence operations for picking tasks
type SeparacaoRepository interface {
	Save(ctx context.Context, separacao *Separacao) error
	FindByID(ctx context.Context, id string) (*Separacao, error)
	FindAtivaByPedido(ctx context.Context, pedidoID string) (*Separacao, error)
}

// ColetaRepository defines persistence operations for pickups
type ColetaRepository interface {
	Save(ctx context.Context, coleta *Coleta) error
	FindByID(ctx context.Context, id string) (*Coleta, error)
	FindBySeparacao(ctx context.Context, separacaoID string) ([]*Coleta, error)
}

// ExcecaoRepository inserts exceptions and afterwards only ever updates
// their resolution fields.
type ExcecaoRepository interface {
	Create(ctx context.Context, excecao *Excecao) error
	SaveResolution(ctx context.Context, excecao *Excecao) error
	FindByID(ctx context.Context, id string) (*Excecao, error)
	FindByPedido(ctx context.Context, pedidoID string) ([]*Excecao, error)
	FindByConferencia(ctx context.Context, conferenciaID string) ([]*Excecao, error)
}

// EstoqueRepository records stock entries
type EstoqueRepository interface {
	Create(ctx context.Context, entrada *EntradaEstoque) error
	FindByPedido(ctx context.Context, pedidoID string) ([]*EntradaEstoque, error)
}

// RecebimentoRepository defines persistence operations for receiving
// manifests. LockForUpdate takes a pessimistic row lock held until the
// surrounding transaction ends.
type RecebimentoRepository interface {
	Save(ctx context.Context, recebimento *Recebimento) error
	FindByID(ctx context.Context, id string) (*Recebimento, error)
	LockForUpdate(ctx context.Context, id, token string) (*Recebimento, error)
}

// TransferenciaRepository defines persistence operations for transfers
type TransferenciaRepository interface {
	Save(ctx context.Context, transferencia *Transferencia) error
	FindByID(ctx context.Context, id string) (*Transferencia, error)
}

// SequenceGenerator hands out monotonically increasing numbers per name,
// transactionally.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Locker serializes work on one key across service instances. Obtain fails
// with ErrLockNotObtained when another holder has the key.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
