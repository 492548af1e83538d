package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// PedidoService handles order intake and the public order ledger operations
type PedidoService struct {
	unit
	ledger OrderLedger
}

// NewPedidoService creates a new PedidoService
func NewPedidoService(uow domain.UnitOfWork, ledger OrderLedger, observer *Observer) *PedidoService {
	return &PedidoService{unit: unit{uow: uow, observer: observer}, ledger: ledger}
}

// CriarPedido registers a PENDENTE order and its first tracking row
func (s *PedidoService) CriarPedido(ctx context.Context, cmd CriarPedidoCommand) (*PedidoDTO, error) {
	var pedido *domain.Pedido
	err := s.run(ctx, "pedido.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		codigo, err := nextCodigo(ctx, tx, prefixPedido)
		if err != nil {
			return err
		}
		pedido = domain.NewPedido(codigo, cmd.ClienteID, ToEndereco(cmd.Destino))
		if err := tx.Pedidos().Save(ctx, pedido); err != nil {
			return fmt.Errorf("save pedido: %w", err)
		}
		if err := s.ledger.Track(ctx, tx, pedido, Movimento{Evento: domain.EventoCriado}); err != nil {
			return err
		}
		out.pedidoStatus(pedido.ID, pedido.Status)
		out.event("pedido.created", "pedido", pedido.ID, "created", map[string]string{"codigo": codigo})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTO(pedido), nil
}

// Obter returns one order
func (s *PedidoService) Obter(ctx context.Context, id string) (*PedidoDTO, error) {
	var pedido *domain.Pedido
	err := s.run(ctx, "pedido.obter", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		pedido, err = loadPedido(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTO(pedido), nil
}

// AssociarRelacao links one order to a receiving, transfer, conference or
// shipment.
func (s *PedidoService) AssociarRelacao(ctx context.Context, pedidoID string, kind domain.RelationKind, relationID string) (*PedidoDTO, error) {
	var pedido *domain.Pedido
	err := s.run(ctx, "pedido.associar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		pedido, err = s.ledger.LinkTo(ctx, tx, pedidoID, kind, relationID)
		if err != nil {
			return err
		}
		out.event("pedido.linked", "pedido", pedidoID, "linked", map[string]string{string(kind): relationID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTO(pedido), nil
}

// RemoverRelacao clears one order's link of kind
func (s *PedidoService) RemoverRelacao(ctx context.Context, pedidoID string, kind domain.RelationKind) (*PedidoDTO, error) {
	var pedido *domain.Pedido
	err := s.run(ctx, "pedido.remover-relacao", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		pedido, err = s.ledger.UnlinkFrom(ctx, tx, pedidoID, kind)
		if err != nil {
			return err
		}
		out.event("pedido.unlinked", "pedido", pedidoID, "unlinked", map[string]string{"relacao": string(kind)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTO(pedido), nil
}

// AssociarEmLote links a batch of orders. Any failing order rejects the
// whole batch.
func (s *PedidoService) AssociarEmLote(ctx context.Context, pedidoIDs []string, kind domain.RelationKind, relationID string) ([]PedidoDTO, error) {
	var pedidos []*domain.Pedido
	err := s.run(ctx, "pedido.associar-lote", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		pedidos, err = s.ledger.LinkManyTo(ctx, tx, pedidoIDs, kind, relationID)
		if err != nil {
			return err
		}
		out.event("pedido.linked", string(kind), relationID, "linked-batch", map[string]string{"total": fmt.Sprint(len(pedidos))})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTOs(pedidos), nil
}

// RemoverEmLote clears the link of kind on a batch of orders
func (s *PedidoService) RemoverEmLote(ctx context.Context, pedidoIDs []string, kind domain.RelationKind) ([]PedidoDTO, error) {
	var pedidos []*domain.Pedido
	err := s.run(ctx, "pedido.remover-lote", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		pedidos, err = s.ledger.UnlinkManyFrom(ctx, tx, pedidoIDs, kind)
		if err != nil {
			return err
		}
		out.event("pedido.unlinked", "pedido", "", "unlinked-batch", map[string]string{
			"relacao": string(kind),
			"total":   fmt.Sprint(len(pedidos)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTOs(pedidos), nil
}

// AtualizarStatus sets an order status by hand, still along the table
func (s *PedidoService) AtualizarStatus(ctx context.Context, cmd AtualizarStatusPedidoCommand) (*PedidoDTO, error) {
	if !cmd.Status.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown pedido status %q", cmd.Status))
	}
	var pedido *domain.Pedido
	err := s.run(ctx, "pedido.atualizar-status", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		pedido, err = loadPedido(ctx, tx, cmd.PedidoID)
		if err != nil {
			return err
		}
		from := pedido.Status
		mov := Movimento{Evento: domain.EventoStatusAtualizado, Local: cmd.Local, Observacao: cmd.Observacao}
		if err := s.ledger.SetStatus(ctx, tx, pedido, cmd.Status, mov); err != nil {
			return err
		}
		out.event("pedido.status-changed", "pedido", pedido.ID, "status-changed", map[string]string{
			"from": string(from),
			"to":   string(cmd.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTO(pedido), nil
}

// Rastreamento returns the order's tracking history, oldest first
func (s *PedidoService) Rastreamento(ctx context.Context, pedidoID string) ([]EventoRastreamentoDTO, error) {
	var eventos []*domain.EventoRastreamento
	err := s.run(ctx, "pedido.rastreamento", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		p, err := tx.Pedidos().FindByID(ctx, pedidoID)
		if err != nil {
			return fmt.Errorf("load pedido %s: %w", pedidoID, err)
		}
		if p == nil {
			return notFound("pedido", pedidoID)
		}
		eventos, err = tx.Rastreamentos().FindByPedido(ctx, pedidoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToEventoRastreamentoDTOs(eventos), nil
}

// Excecoes lists the exceptions filed against an order
func (s *PedidoService) Excecoes(ctx context.Context, pedidoID string) ([]ExcecaoDTO, error) {
	var excecoes []*domain.Excecao
	err := s.run(ctx, "pedido.excecoes", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		p, err := tx.Pedidos().FindByID(ctx, pedidoID)
		if err != nil {
			return fmt.Errorf("load pedido %s: %w", pedidoID, err)
		}
		if p == nil {
			return notFound("pedido", pedidoID)
		}
		excecoes, err = tx.Excecoes().FindByPedido(ctx, pedidoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToExcecaoDTOs(excecoes), nil
}

// Remover soft deletes an order. Orders still linked to any operational
// record cannot be removed.
func (s *PedidoService) Remover(ctx context.Context, pedidoID string) error {
	return s.run(ctx, "pedido.remover", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		p, err := loadPedido(ctx, tx, pedidoID)
		if err != nil {
			return err
		}
		if err := p.Remove(); err != nil {
			return err
		}
		if err := tx.Pedidos().Save(ctx, p); err != nil {
			return fmt.Errorf("save pedido %s: %w", p.ID, err)
		}
		if err := s.ledger.Track(ctx, tx, p, Movimento{Evento: domain.EventoRemovido}); err != nil {
			return err
		}
		out.event("pedido.removed", "pedido", p.ID, "removed", nil)
		return nil
	})
}
