package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// RotaService handles routes and their stops
type RotaService struct {
	unit
	ledger OrderLedger
	routes RouteManager
}

// NewRotaService creates a new RotaService
func NewRotaService(uow domain.UnitOfWork, ledger OrderLedger, routes RouteManager, observer *Observer) *RotaService {
	return &RotaService{unit: unit{uow: uow, observer: observer}, ledger: ledger, routes: routes}
}

// CriarRota creates an empty route not yet attached to any shipment
func (s *RotaService) CriarRota(ctx context.Context) (*RotaDTO, error) {
	var rota *domain.Rota
	err := s.run(ctx, "rota.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		codigo, err := nextCodigo(ctx, tx, prefixRota)
		if err != nil {
			return err
		}
		rota = domain.NewRota(codigo, "")
		if err := tx.Rotas().Save(ctx, rota); err != nil {
			return fmt.Errorf("save rota: %w", err)
		}
		out.event("rota.created", "rota", rota.ID, "created", nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}

// AdicionarParadasRota appends one stop per order. An order that already
// has a stop on the route rejects the whole batch.
func (s *RotaService) AdicionarParadasRota(ctx context.Context, rotaID string, pedidoIDs []string) (*RotaDTO, error) {
	var rota *domain.Rota
	err := s.run(ctx, "rota.adicionar-paradas", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		rota, err = loadRota(ctx, tx, rotaID)
		if err != nil {
			return err
		}
		pedidos, err := loadPedidos(ctx, tx, pedidoIDs)
		if err != nil {
			return err
		}
		created, err := s.routes.AppendStops(ctx, tx, rota, pedidos, false)
		if err != nil {
			return err
		}
		out.event("rota.paradas-added", "rota", rota.ID, "paradas-added", map[string]string{"total": fmt.Sprint(len(created))})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}

// AtualizarStatusRota moves a route by hand. FINALIZADA is refused while any
// stop is not ENTREGUE.
func (s *RotaService) AtualizarStatusRota(ctx context.Context, rotaID string, status domain.RotaStatus) (*RotaDTO, error) {
	if !status.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown rota status %q", status))
	}
	var rota *domain.Rota
	err := s.run(ctx, "rota.atualizar-status", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		rota, err = loadRota(ctx, tx, rotaID)
		if err != nil {
			return err
		}
		from := rota.Status
		if err := rota.AtualizarStatus(status); err != nil {
			return err
		}
		if err := tx.Rotas().Save(ctx, rota); err != nil {
			return fmt.Errorf("save rota %s: %w", rota.ID, err)
		}
		out.event("rota.status-changed", "rota", rota.ID, "status-changed", map[string]string{
			"from": string(from),
			"to":   string(status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}

// AtualizarStatusParada moves one stop. A delivered stop also delivers its
// order when the order table allows it.
func (s *RotaService) AtualizarStatusParada(ctx context.Context, cmd AtualizarStatusParadaCommand) (*RotaDTO, error) {
	if !cmd.Status.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown parada status %q", cmd.Status))
	}
	var rota *domain.Rota
	err := s.run(ctx, "rota.atualizar-status-parada", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		rota, err = loadRota(ctx, tx, cmd.RotaID)
		if err != nil {
			return err
		}
		parada, err := rota.AtualizarStatusParada(cmd.ParadaID, cmd.Status, cmd.Observacao)
		if err != nil {
			return err
		}
		if err := tx.Rotas().Save(ctx, rota); err != nil {
			return fmt.Errorf("save rota %s: %w", rota.ID, err)
		}

		if parada.Status == domain.ParadaEntregue && parada.PedidoID != "" {
			p, err := loadPedido(ctx, tx, parada.PedidoID)
			if err != nil {
				return err
			}
			if p.CanTransitionTo(domain.PedidoEntregue) {
				mov := Movimento{Evento: domain.EventoEntregue, Local: parada.Destino.LocalityKey(), Observacao: cmd.Observacao}
				if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoEntregue, mov); err != nil {
					return err
				}
			}
		}
		out.event("parada.status-changed", "rota", rota.ID, "parada-status-changed", map[string]string{
			"paradaId": parada.ID,
			"status":   string(parada.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}

// OtimizarRota re-sequences the pending stops and recomputes the distance
func (s *RotaService) OtimizarRota(ctx context.Context, rotaID string) (*RotaDTO, error) {
	var rota *domain.Rota
	err := s.run(ctx, "rota.otimizar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		rota, err = loadRota(ctx, tx, rotaID)
		if err != nil {
			return err
		}
		if err := rota.Otimizar(); err != nil {
			return err
		}
		if err := tx.Rotas().Save(ctx, rota); err != nil {
			return fmt.Errorf("save rota %s: %w", rota.ID, err)
		}
		out.event("rota.optimized", "rota", rota.ID, "optimized", map[string]string{
			"distanciaTotalKm": fmt.Sprintf("%.3f", rota.DistanciaTotalKm),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}

// RotasDisponiveis lists routes with no shipment that are still open
func (s *RotaService) RotasDisponiveis(ctx context.Context) ([]RotaDTO, error) {
	var rotas []*domain.Rota
	err := s.run(ctx, "rota.disponiveis", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		rotas, err = tx.Rotas().FindDisponiveis(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTOs(rotas), nil
}

// Obter returns one route
func (s *RotaService) Obter(ctx context.Context, rotaID string) (*RotaDTO, error) {
	var rota *domain.Rota
	err := s.run(ctx, "rota.obter", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		rota, err = loadRota(ctx, tx, rotaID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}
