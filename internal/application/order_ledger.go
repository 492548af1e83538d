package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// Movimento describes the tracking row written with a status change
type Movimento struct {
	Evento     string
	Local      string
	Observacao string
}

// OrderLedger owns every order write: relation links, status changes and
// the tracking history. All methods run inside the caller's transaction.
type OrderLedger interface {
	LinkTo(ctx context.Context, tx domain.Tx, pedidoID string, kind domain.RelationKind, relationID string) (*domain.Pedido, error)
	LinkManyTo(ctx context.Context, tx domain.Tx, pedidoIDs []string, kind domain.RelationKind, relationID string) ([]*domain.Pedido, error)
	UnlinkFrom(ctx context.Context, tx domain.Tx, pedidoID string, kind domain.RelationKind) (*domain.Pedido, error)
	UnlinkManyFrom(ctx context.Context, tx domain.Tx, pedidoIDs []string, kind domain.RelationKind) ([]*domain.Pedido, error)
	Attach(ctx context.Context, tx domain.Tx, p *domain.Pedido, kind domain.RelationKind, relationID string) error
	SetStatus(ctx context.Context, tx domain.Tx, p *domain.Pedido, status domain.PedidoStatus, mov Movimento) error
	Track(ctx context.Context, tx domain.Tx, p *domain.Pedido, mov Movimento) error
}

// Ledger is the OrderLedger backed by the transaction's repositories
type Ledger struct{}

// NewLedger creates a Ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// LinkTo links one order to a relation. Re-linking to the id the order
// already holds changes nothing.
func (l *Ledger) LinkTo(ctx context.Context, tx domain.Tx, pedidoID string, kind domain.RelationKind, relationID string) (*domain.Pedido, error) {
	pedidos, err := l.LinkManyTo(ctx, tx, []string{pedidoID}, kind, relationID)
	if err != nil {
		return nil, err
	}
	return pedidos[0], nil
}

// LinkManyTo links a batch of orders. Every order is loaded and checked
// before the first write, so one bad id rejects the whole batch.
func (l *Ledger) LinkManyTo(ctx context.Context, tx domain.Tx, pedidoIDs []string, kind domain.RelationKind, relationID string) ([]*domain.Pedido, error) {
	if !kind.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown relation %q", kind))
	}
	conferencia, err := checkRelation(ctx, tx, kind, relationID)
	if err != nil {
		return nil, err
	}
	pedidos, err := loadPedidos(ctx, tx, pedidoIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range pedidos {
		if err := p.CheckLink(kind, relationID); err != nil {
			return nil, err
		}
	}

	for _, p := range pedidos {
		if err := l.Attach(ctx, tx, p, kind, relationID); err != nil {
			return nil, err
		}
	}
	if conferencia != nil {
		if err := recontarConferencia(ctx, tx, conferencia); err != nil {
			return nil, err
		}
		if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
			return nil, fmt.Errorf("save conferencia counters: %w", err)
		}
	}
	return pedidos, nil
}

// UnlinkFrom clears one order's link of kind
func (l *Ledger) UnlinkFrom(ctx context.Context, tx domain.Tx, pedidoID string, kind domain.RelationKind) (*domain.Pedido, error) {
	pedidos, err := l.UnlinkManyFrom(ctx, tx, []string{pedidoID}, kind)
	if err != nil {
		return nil, err
	}
	return pedidos[0], nil
}

// UnlinkManyFrom clears the link of kind on a batch of orders. An order
// without that link rejects the whole batch.
func (l *Ledger) UnlinkManyFrom(ctx context.Context, tx domain.Tx, pedidoIDs []string, kind domain.RelationKind) ([]*domain.Pedido, error) {
	if !kind.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown relation %q", kind))
	}
	pedidos, err := loadPedidos(ctx, tx, pedidoIDs)
	if err != nil {
		return nil, err
	}

	conferencias := make(map[string]*domain.Conferencia)
	for _, p := range pedidos {
		if err := p.CheckUnlink(kind); err != nil {
			return nil, err
		}
		if kind != domain.RelacaoConferencia {
			continue
		}
		id := p.ConferenciaID
		if _, seen := conferencias[id]; seen {
			continue
		}
		c, err := tx.Conferencias().FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load conferencia %s: %w", id, err)
		}
		if c != nil && c.IsConcluida() {
			return nil, domain.ErrConferenciaConcluida
		}
		conferencias[id] = c
	}

	for _, p := range pedidos {
		previous, err := p.Unlink(kind)
		if err != nil {
			return nil, err
		}
		if err := tx.Pedidos().Save(ctx, p); err != nil {
			return nil, fmt.Errorf("save pedido %s: %w", p.ID, err)
		}
		obs := fmt.Sprintf("%s %s", kind, previous)
		if err := l.Track(ctx, tx, p, Movimento{Evento: domain.EventoDesvinculado, Observacao: obs}); err != nil {
			return nil, err
		}
	}
	for _, c := range conferencias {
		if c == nil {
			continue
		}
		if err := recontarConferencia(ctx, tx, c); err != nil {
			return nil, err
		}
		if err := tx.Conferencias().Save(ctx, c); err != nil {
			return nil, fmt.Errorf("save conferencia counters: %w", err)
		}
	}
	return pedidos, nil
}

// Attach links an already loaded and checked order. Conference counters are
// left to the caller.
func (l *Ledger) Attach(ctx context.Context, tx domain.Tx, p *domain.Pedido, kind domain.RelationKind, relationID string) error {
	changed, err := p.Link(kind, relationID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := tx.Pedidos().Save(ctx, p); err != nil {
		return fmt.Errorf("save pedido %s: %w", p.ID, err)
	}
	return l.Track(ctx, tx, p, Movimento{Evento: domain.EventoVinculado, Observacao: fmt.Sprintf("%s %s", kind, relationID)})
}

// SetStatus moves the order along the transition table and appends the
// tracking row.
func (l *Ledger) SetStatus(ctx context.Context, tx domain.Tx, p *domain.Pedido, status domain.PedidoStatus, mov Movimento) error {
	if err := p.TransitionTo(status); err != nil {
		return err
	}
	if err := tx.Pedidos().Save(ctx, p); err != nil {
		return fmt.Errorf("save pedido %s: %w", p.ID, err)
	}
	if mov.Evento == "" {
		mov.Evento = domain.EventoStatusAtualizado
	}
	if err := l.Track(ctx, tx, p, mov); err != nil {
		return err
	}
	outcomeFrom(ctx).pedidoStatus(p.ID, status)
	return nil
}

// Track appends a tracking row for the order's current status
func (l *Ledger) Track(ctx context.Context, tx domain.Tx, p *domain.Pedido, mov Movimento) error {
	evento := domain.NewEventoRastreamento(p, mov.Evento, mov.Local, mov.Observacao)
	if err := tx.Rastreamentos().Append(ctx, evento); err != nil {
		return fmt.Errorf("append rastreamento for pedido %s: %w", p.ID, err)
	}
	return nil
}

// checkRelation verifies the relation exists and still accepts orders. For
// conferences it returns the loaded aggregate so counters can be refreshed.
func checkRelation(ctx context.Context, tx domain.Tx, kind domain.RelationKind, id string) (*domain.Conferencia, error) {
	if id == "" {
		return nil, errors.ErrValidation(fmt.Sprintf("%s id is required", kind))
	}
	switch kind {
	case domain.RelacaoRecebimento:
		r, err := tx.Recebimentos().FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load recebimento %s: %w", id, err)
		}
		if r == nil {
			return nil, notFound("recebimento", id)
		}
		if !r.IsAberto() {
			return nil, domain.ErrRecebimentoEncerrado
		}
	case domain.RelacaoTransferencia:
		t, err := tx.Transferencias().FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load transferencia %s: %w", id, err)
		}
		if t == nil {
			return nil, notFound("transferencia", id)
		}
		if !t.IsAberta() {
			return nil, domain.ErrTransferenciaEncerrada
		}
	case domain.RelacaoConferencia:
		c, err := tx.Conferencias().FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load conferencia %s: %w", id, err)
		}
		if c == nil {
			return nil, notFound("conferencia", id)
		}
		if c.IsConcluida() {
			return nil, domain.ErrConferenciaConcluida
		}
		return c, nil
	case domain.RelacaoTransporte:
		t, err := tx.Transportes().FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load transporte %s: %w", id, err)
		}
		if t == nil {
			return nil, notFound("transporte", id)
		}
		if t.IsTerminal() {
			return nil, domain.ErrTransporteEncerrado
		}
	}
	return nil, nil
}

// loadPedidos loads every id, ignoring repeats. A missing or removed order
// fails the whole load.
func loadPedidos(ctx context.Context, tx domain.Tx, ids []string) ([]*domain.Pedido, error) {
	if len(ids) == 0 {
		return nil, errors.ErrValidation("pedido_ids must not be empty")
	}
	seen := make(map[string]bool, len(ids))
	pedidos := make([]*domain.Pedido, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		p, err := loadPedido(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		pedidos = append(pedidos, p)
	}
	return pedidos, nil
}

func loadPedido(ctx context.Context, tx domain.Tx, id string) (*domain.Pedido, error) {
	p, err := tx.Pedidos().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pedido %s: %w", id, err)
	}
	if p == nil || p.IsDeleted() {
		return nil, notFound("pedido", id)
	}
	return p, nil
}

// recontarConferencia refreshes the counters from count queries over the
// linked orders. Counters are never incremented in place.
func recontarConferencia(ctx context.Context, tx domain.Tx, c *domain.Conferencia) error {
	total, err := tx.Pedidos().CountByConferencia(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("count pedidos of conferencia %s: %w", c.ID, err)
	}
	escaneados, err := tx.Pedidos().CountByConferenciaAndStatus(ctx, c.ID, domain.PedidoValidado)
	if err != nil {
		return fmt.Errorf("count validated pedidos of conferencia %s: %w", c.ID, err)
	}
	c.AtualizarContadores(total, escaneados)
	return nil
}
