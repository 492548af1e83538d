package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// TransporteService drives shipments through their status graph and
// cascades each step to the route and the linked orders.
type TransporteService struct {
	unit
	ledger   OrderLedger
	recorder ExceptionRecorder
	routes   RouteManager
}

// NewTransporteService creates a new TransporteService
func NewTransporteService(uow domain.UnitOfWork, ledger OrderLedger, recorder ExceptionRecorder, routes RouteManager, observer *Observer) *TransporteService {
	return &TransporteService{
		unit:     unit{uow: uow, observer: observer},
		ledger:   ledger,
		recorder: recorder,
		routes:   routes,
	}
}

// CriarTransporte creates a shipment in CRIADO, optionally with a driver
func (s *TransporteService) CriarTransporte(ctx context.Context, cmd CriarTransporteCommand) (*TransporteDTO, error) {
	if !cmd.Tipo.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown transporte tipo %q", cmd.Tipo))
	}
	var transporte *domain.Transporte
	err := s.run(ctx, "transporte.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		codigo, err := nextCodigo(ctx, tx, prefixTransporte)
		if err != nil {
			return err
		}
		transporte = domain.NewTransporte(codigo, cmd.Tipo, cmd.Origem, cmd.Destino)
		if cmd.MotoristaID != "" {
			if _, err := loadMotoristaAtivo(ctx, tx, cmd.MotoristaID); err != nil {
				return err
			}
			if err := transporte.AtribuirMotorista(cmd.MotoristaID); err != nil {
				return err
			}
		}
		if err := tx.Transportes().Save(ctx, transporte); err != nil {
			return fmt.Errorf("save transporte: %w", err)
		}
		out.event("transporte.created", "transporte", transporte.ID, "created", map[string]string{"codigo": codigo})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToTransporteDTO(transporte), nil
}

// CriarMotorista registers an active driver
func (s *TransporteService) CriarMotorista(ctx context.Context, cmd CriarMotoristaCommand) (*MotoristaDTO, error) {
	motorista := domain.NewMotorista(cmd.Nome, cmd.CNH)
	err := s.run(ctx, "motorista.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		if err := tx.Motoristas().Save(ctx, motorista); err != nil {
			return fmt.Errorf("save motorista: %w", err)
		}
		out.event("motorista.created", "motorista", motorista.ID, "created", nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToMotoristaDTO(motorista), nil
}

// AtualizarStatus moves a shipment along its graph and cascades the step
func (s *TransporteService) AtualizarStatus(ctx context.Context, transporteID string, status domain.TransporteStatus) (*TransporteResultadoDTO, error) {
	if !status.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown transporte status %q", status))
	}
	var result *TransporteResultadoDTO
	err := s.run(ctx, "transporte.atualizar-status", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		t, err := loadTransporte(ctx, tx, transporteID)
		if err != nil {
			return err
		}
		result, err = s.transition(ctx, tx, t, status, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IniciarTransporte starts a shipment that has a driver and a route. Every
// VALIDADO order on the shipment gets a stop first, then the shipment moves
// to EM_TRANSPORTE.
func (s *TransporteService) IniciarTransporte(ctx context.Context, transporteID string) (*TransporteResultadoDTO, error) {
	var result *TransporteResultadoDTO
	err := s.run(ctx, "transporte.iniciar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		t, err := loadTransporte(ctx, tx, transporteID)
		if err != nil {
			return err
		}
		if err := t.ValidarInicio(); err != nil {
			return err
		}
		if _, err := loadMotoristaAtivo(ctx, tx, t.MotoristaID); err != nil {
			return err
		}
		rota, err := loadRota(ctx, tx, t.RotaID)
		if err != nil {
			return err
		}

		pedidos, err := tx.Pedidos().FindByTransporte(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("load pedidos of transporte %s: %w", t.ID, err)
		}
		validados := make([]*domain.Pedido, 0, len(pedidos))
		for _, p := range pedidos {
			if p.Status == domain.PedidoValidado {
				validados = append(validados, p)
			}
		}
		if _, err := s.routes.AppendStops(ctx, tx, rota, validados, true); err != nil {
			return err
		}

		result, err = s.transition(ctx, tx, t, domain.TransporteEmTransporte, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// transition applies one shipment step and its cascades: the route follows
// its own graph, linked orders take the mapped status when the order table
// allows it, and a cancellation files one exception per affected order.
func (s *TransporteService) transition(ctx context.Context, tx domain.Tx, t *domain.Transporte, to domain.TransporteStatus, out *outcome) (*TransporteResultadoDTO, error) {
	from := t.Status
	if err := t.AtualizarStatus(to); err != nil {
		return nil, err
	}

	var rota *domain.Rota
	if t.RotaID != "" {
		var err error
		rota, err = loadRota(ctx, tx, t.RotaID)
		if err != nil {
			return nil, err
		}
		if target, ok := rotaTargetFor(to); ok && !rota.IsTerminal() {
			if err := s.routes.Advance(ctx, tx, rota, target); err != nil {
				return nil, err
			}
		}
	}

	afetados := make([]*domain.Pedido, 0)
	if cascade, ok := domain.CascadeParaPedidos(to); ok {
		pedidos, err := tx.Pedidos().FindByTransporte(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load pedidos of transporte %s: %w", t.ID, err)
		}
		for _, p := range pedidos {
			if !p.CanTransitionTo(cascade.Status) {
				continue
			}
			mov := Movimento{Evento: cascade.Evento, Local: t.Destino, Observacao: "transporte " + t.Codigo}
			if err := s.ledger.SetStatus(ctx, tx, p, cascade.Status, mov); err != nil {
				return nil, err
			}
			afetados = append(afetados, p)
		}
	}

	excecoes := make([]*domain.Excecao, 0)
	if to == domain.TransporteCancelado {
		for _, p := range afetados {
			e, err := s.recorder.Record(ctx, tx, RegistroExcecao{
				Tipo:       domain.ExcecaoCancelamentoTransp,
				Severidade: domain.SeveridadeBaixa,
				Titulo:     fmt.Sprintf("Transporte %s cancelado", t.Codigo),
				Descricao:  fmt.Sprintf("pedido %s cancelado com o transporte", p.Codigo),
				Vinculos: domain.VinculosExcecao{
					PedidoID:      p.ID,
					TransporteID:  t.ID,
					ConferenciaID: t.ConferenciaID,
				},
				Quantidade:        1,
				ImpactoFinanceiro: s.recorder.UnitPenalty(),
			})
			if err != nil {
				return nil, err
			}
			excecoes = append(excecoes, e)
		}
	}

	if err := tx.Transportes().Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save transporte %s: %w", t.ID, err)
	}
	out.transicao(from, to)
	out.event("transporte.status-changed", "transporte", t.ID, "status-changed", map[string]string{
		"from":     string(from),
		"to":       string(to),
		"afetados": fmt.Sprint(len(afetados)),
	})

	return &TransporteResultadoDTO{
		Transporte:      *ToTransporteDTO(t),
		Rota:            ToRotaDTO(rota),
		PedidosAfetados: ToPedidoDTOs(afetados),
		ExcecoesGeradas: ToExcecaoDTOs(excecoes),
		TotalAfetados:   len(afetados),
	}, nil
}

// AtribuirMotorista assigns an active driver to an open shipment
func (s *TransporteService) AtribuirMotorista(ctx context.Context, transporteID, motoristaID string) (*TransporteDTO, error) {
	var t *domain.Transporte
	err := s.run(ctx, "transporte.atribuir-motorista", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		t, err = loadTransporte(ctx, tx, transporteID)
		if err != nil {
			return err
		}
		if _, err := loadMotoristaAtivo(ctx, tx, motoristaID); err != nil {
			return err
		}
		if err := t.AtribuirMotorista(motoristaID); err != nil {
			return err
		}
		if err := tx.Transportes().Save(ctx, t); err != nil {
			return fmt.Errorf("save transporte %s: %w", t.ID, err)
		}
		out.event("transporte.driver-assigned", "transporte", t.ID, "driver-assigned", map[string]string{"motoristaId": motoristaID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToTransporteDTO(t), nil
}

// AtribuirRota attaches an existing free route to a shipment without one
func (s *TransporteService) AtribuirRota(ctx context.Context, transporteID, rotaID string) (*TransporteDTO, error) {
	var t *domain.Transporte
	err := s.run(ctx, "transporte.atribuir-rota", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		t, err = loadTransporte(ctx, tx, transporteID)
		if err != nil {
			return err
		}
		rota, err := loadRota(ctx, tx, rotaID)
		if err != nil {
			return err
		}
		if t.IsTerminal() {
			return domain.ErrTransporteEncerrado
		}
		if err := rota.VincularTransporte(t.ID); err != nil {
			return err
		}
		if err := t.AtribuirRota(rota.ID); err != nil {
			return err
		}
		if err := tx.Rotas().Save(ctx, rota); err != nil {
			return fmt.Errorf("save rota %s: %w", rota.ID, err)
		}
		if err := tx.Transportes().Save(ctx, t); err != nil {
			return fmt.Errorf("save transporte %s: %w", t.ID, err)
		}
		out.event("transporte.route-assigned", "transporte", t.ID, "route-assigned", map[string]string{"rotaId": rota.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToTransporteDTO(t), nil
}

// CriarRota creates the shipment's route with a stop per open order
func (s *TransporteService) CriarRota(ctx context.Context, transporteID string) (*RotaDTO, error) {
	var rota *domain.Rota
	err := s.run(ctx, "transporte.criar-rota", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		t, err := loadTransporte(ctx, tx, transporteID)
		if err != nil {
			return err
		}
		rota, err = s.routes.CreateFromTransporte(ctx, tx, t)
		if err != nil {
			return err
		}
		out.event("rota.created", "rota", rota.ID, "created", map[string]string{
			"transporteId": t.ID,
			"paradas":      fmt.Sprint(len(rota.Paradas)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRotaDTO(rota), nil
}

// AssociarConferencia links an open OUTBOUND conference to a shipment.
// Neither side may already be linked elsewhere.
func (s *TransporteService) AssociarConferencia(ctx context.Context, transporteID, conferenciaID string) (*TransporteDTO, error) {
	var t *domain.Transporte
	err := s.run(ctx, "transporte.associar-conferencia", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		t, err = loadTransporte(ctx, tx, transporteID)
		if err != nil {
			return err
		}
		conferencia, err := loadConferencia(ctx, tx, conferenciaID)
		if err != nil {
			return err
		}
		if conferencia.Tipo != domain.TipoOutbound {
			return errors.ErrConflict(fmt.Sprintf("conferencia %s is not OUTBOUND", conferencia.Codigo))
		}
		if err := conferencia.EnsureAberta(); err != nil {
			return err
		}
		if conferencia.TransporteID != "" && conferencia.TransporteID != t.ID {
			return domain.ErrConferenciaVinculada
		}
		if err := t.AssociarConferencia(conferencia.ID); err != nil {
			return err
		}
		conferencia.TransporteID = t.ID
		if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
			return fmt.Errorf("save conferencia %s: %w", conferencia.ID, err)
		}
		if err := tx.Transportes().Save(ctx, t); err != nil {
			return fmt.Errorf("save transporte %s: %w", t.ID, err)
		}
		out.event("transporte.conference-linked", "transporte", t.ID, "conference-linked", map[string]string{"conferenciaId": conferencia.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToTransporteDTO(t), nil
}

// Obter returns one shipment
func (s *TransporteService) Obter(ctx context.Context, transporteID string) (*TransporteDTO, error) {
	var t *domain.Transporte
	err := s.run(ctx, "transporte.obter", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		t, err = loadTransporte(ctx, tx, transporteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToTransporteDTO(t), nil
}

func loadMotoristaAtivo(ctx context.Context, tx domain.Tx, id string) (*domain.Motorista, error) {
	m, err := tx.Motoristas().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load motorista %s: %w", id, err)
	}
	if m == nil {
		return nil, notFound("motorista", id)
	}
	if !m.Ativo {
		return nil, domain.ErrMotoristaInativo
	}
	return m, nil
}
