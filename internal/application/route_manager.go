package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// RouteManager creates routes and appends their stops inside the caller's
// transaction.
type RouteManager interface {
	CreateFromTransporte(ctx context.Context, tx domain.Tx, t *domain.Transporte) (*domain.Rota, error)
	CreateReceivingRoute(ctx context.Context, tx domain.Tx, t *domain.Transporte, local string) (*domain.Rota, error)
	EnsureForTransporte(ctx context.Context, tx domain.Tx, t *domain.Transporte) (*domain.Rota, error)
	AppendStops(ctx context.Context, tx domain.Tx, rota *domain.Rota, pedidos []*domain.Pedido, skipExisting bool) ([]domain.Parada, error)
	Advance(ctx context.Context, tx domain.Tx, rota *domain.Rota, target domain.RotaStatus) error
}

// RouteStops is the RouteManager backed by the transaction's repositories
type RouteStops struct{}

// NewRouteStops creates a RouteStops
func NewRouteStops() *RouteStops {
	return &RouteStops{}
}

// CreateFromTransporte opens a route for a shipment that has none and adds
// a stop for every open order already on the shipment.
func (m *RouteStops) CreateFromTransporte(ctx context.Context, tx domain.Tx, t *domain.Transporte) (*domain.Rota, error) {
	if t.IsTerminal() {
		return nil, domain.ErrTransporteEncerrado
	}
	if t.RotaID != "" {
		return nil, domain.ErrTransporteJaPossuiRota
	}

	codigo, err := nextCodigo(ctx, tx, prefixRota)
	if err != nil {
		return nil, err
	}
	rota := domain.NewRota(codigo, t.ID)
	if err := t.AtribuirRota(rota.ID); err != nil {
		return nil, err
	}

	pedidos, err := tx.Pedidos().FindByTransporte(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("load pedidos of transporte %s: %w", t.ID, err)
	}
	abertos := make([]*domain.Pedido, 0, len(pedidos))
	for _, p := range pedidos {
		if p.Status != domain.PedidoEntregue && p.Status != domain.PedidoCancelado {
			abertos = append(abertos, p)
		}
	}
	if _, err := m.AppendStops(ctx, tx, rota, abertos, true); err != nil {
		return nil, err
	}
	if err := tx.Transportes().Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save transporte %s: %w", t.ID, err)
	}
	return rota, nil
}

// CreateReceivingRoute records an inbound receiving movement as a finished
// single-stop route at local.
func (m *RouteStops) CreateReceivingRoute(ctx context.Context, tx domain.Tx, t *domain.Transporte, local string) (*domain.Rota, error) {
	codigo, err := nextCodigo(ctx, tx, prefixRota)
	if err != nil {
		return nil, err
	}
	rota := domain.NewRotaRecebimento(codigo, t.ID, local)
	if err := tx.Rotas().Save(ctx, rota); err != nil {
		return nil, fmt.Errorf("save rota %s: %w", rota.ID, err)
	}
	outcomeFrom(ctx).paradasCriadas(len(rota.Paradas))
	return rota, nil
}

// EnsureForTransporte returns the shipment's route, creating it when the
// shipment has none.
func (m *RouteStops) EnsureForTransporte(ctx context.Context, tx domain.Tx, t *domain.Transporte) (*domain.Rota, error) {
	if t.RotaID == "" {
		return m.CreateFromTransporte(ctx, tx, t)
	}
	rota, err := tx.Rotas().FindByID(ctx, t.RotaID)
	if err != nil {
		return nil, fmt.Errorf("load rota %s: %w", t.RotaID, err)
	}
	if rota == nil {
		return nil, notFound("rota", t.RotaID)
	}
	return rota, nil
}

// AppendStops adds one stop per order after the route's current highest
// delivery order. With skipExisting an order that already has a stop is
// ignored; otherwise it rejects the whole batch before any stop is added.
func (m *RouteStops) AppendStops(ctx context.Context, tx domain.Tx, rota *domain.Rota, pedidos []*domain.Pedido, skipExisting bool) ([]domain.Parada, error) {
	if rota.IsTerminal() {
		return nil, domain.ErrRotaEncerrada
	}

	pending := make([]*domain.Pedido, 0, len(pedidos))
	seen := make(map[string]bool, len(pedidos))
	for _, p := range pedidos {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if err := rota.CheckNovaParada(p.ID); err != nil {
			if skipExisting && err == domain.ErrParadaDuplicada {
				continue
			}
			return nil, err
		}
		pending = append(pending, p)
	}

	created := make([]domain.Parada, 0, len(pending))
	for _, p := range pending {
		parada, err := rota.AdicionarParada(p.ID, p.Destino)
		if err != nil {
			return nil, err
		}
		created = append(created, *parada)
	}
	if err := tx.Rotas().Save(ctx, rota); err != nil {
		return nil, fmt.Errorf("save rota %s: %w", rota.ID, err)
	}
	outcomeFrom(ctx).paradasCriadas(len(created))
	return created, nil
}

// Advance walks the route along its graph to target. CRIADA is started
// before it is finalized. Finalizing delivers the open stops and keeps
// failed or cancelled ones; cancelling closes the open stops as CANCELADA.
func (m *RouteStops) Advance(ctx context.Context, tx domain.Tx, rota *domain.Rota, target domain.RotaStatus) error {
	if rota.Status == target {
		return nil
	}
	if rota.IsTerminal() {
		return domain.ErrRotaEncerrada
	}

	var err error
	switch target {
	case domain.RotaFinalizada:
		if rota.Status == domain.RotaCriada {
			if err := rota.AtualizarStatus(domain.RotaEmAndamento); err != nil {
				return err
			}
		}
		err = rota.Finalizar()
	case domain.RotaCancelada:
		rota.FecharParadasAbertas(domain.ParadaCancelada)
		err = rota.AtualizarStatus(target)
	default:
		err = rota.AtualizarStatus(target)
	}
	if err != nil {
		return err
	}
	if err := tx.Rotas().Save(ctx, rota); err != nil {
		return fmt.Errorf("save rota %s: %w", rota.ID, err)
	}
	return nil
}

// rotaTargetFor maps a shipment status to the status its route follows
func rotaTargetFor(s domain.TransporteStatus) (domain.RotaStatus, bool) {
	switch s {
	case domain.TransporteEmTransporte:
		return domain.RotaEmAndamento, true
	case domain.TransporteRecebido, domain.TransporteEntregue:
		return domain.RotaFinalizada, true
	case domain.TransporteCancelado:
		return domain.RotaCancelada, true
	}
	return "", false
}
