package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// DefaultLocalizacao is the stock location used when an inbound completion
// does not name one.
const DefaultLocalizacao = "DOCA-RECEBIMENTO"

// ConferenciaService runs verification sessions and their completion
type ConferenciaService struct {
	unit
	ledger   OrderLedger
	recorder ExceptionRecorder
	routes   RouteManager
}

// NewConferenciaService creates a new ConferenciaService
func NewConferenciaService(uow domain.UnitOfWork, ledger OrderLedger, recorder ExceptionRecorder, routes RouteManager, observer *Observer) *ConferenciaService {
	return &ConferenciaService{
		unit:     unit{uow: uow, observer: observer},
		ledger:   ledger,
		recorder: recorder,
		routes:   routes,
	}
}

// CriarConferencia opens a PENDENTE conference. When a shipment is given the
// link is set on both sides.
func (s *ConferenciaService) CriarConferencia(ctx context.Context, cmd CriarConferenciaCommand) (*ConferenciaDTO, error) {
	if !cmd.Tipo.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown conferencia tipo %q", cmd.Tipo))
	}
	if cmd.Tipo == domain.TipoOutbound && cmd.TransporteID == "" {
		return nil, toAppError(domain.ErrConferenciaSemTransp)
	}

	var conferencia *domain.Conferencia
	err := s.run(ctx, "conferencia.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var transporte *domain.Transporte
		if cmd.TransporteID != "" {
			var err error
			transporte, err = loadTransporte(ctx, tx, cmd.TransporteID)
			if err != nil {
				return err
			}
			if transporte.IsTerminal() {
				return domain.ErrTransporteEncerrado
			}
			if transporte.ConferenciaID != "" {
				return domain.ErrTransporteJaPossuiConf
			}
		}

		codigo, err := nextCodigo(ctx, tx, prefixConferencia)
		if err != nil {
			return err
		}
		conferencia = domain.NewConferencia(codigo, cmd.Tipo)
		if transporte != nil {
			conferencia.TransporteID = transporte.ID
			if err := transporte.AssociarConferencia(conferencia.ID); err != nil {
				return err
			}
			if err := tx.Transportes().Save(ctx, transporte); err != nil {
				return fmt.Errorf("save transporte %s: %w", transporte.ID, err)
			}
		}
		if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
			return fmt.Errorf("save conferencia: %w", err)
		}
		out.event("conferencia.created", "conferencia", conferencia.ID, "created", map[string]string{
			"tipo":         string(cmd.Tipo),
			"transporteId": cmd.TransporteID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToConferenciaDTO(conferencia), nil
}

// ValidarPedido scans a linked order as present. A second validation of the
// same order fails and leaves the counters as they were.
func (s *ConferenciaService) ValidarPedido(ctx context.Context, conferenciaID, pedidoID string) (*ValidacaoResultadoDTO, error) {
	var result *ValidacaoResultadoDTO
	err := s.run(ctx, "conferencia.validar-pedido", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		conferencia, pedido, err := s.loadScan(ctx, tx, conferenciaID, pedidoID)
		if err != nil {
			return err
		}
		if pedido.Status == domain.PedidoValidado {
			return domain.ErrPedidoJaValidado
		}

		mov := Movimento{Evento: domain.EventoValidado, Observacao: "conferencia " + conferencia.Codigo}
		if err := s.ledger.SetStatus(ctx, tx, pedido, domain.PedidoValidado, mov); err != nil {
			return err
		}
		if err := conferencia.RegistrarValidacao(pedido.ID); err != nil {
			return err
		}
		if err := s.saveCounters(ctx, tx, conferencia); err != nil {
			return err
		}

		out.event("conferencia.pedido-validated", "conferencia", conferencia.ID, "validated", map[string]string{"pedidoId": pedido.ID})
		result = &ValidacaoResultadoDTO{Pedido: *ToPedidoDTO(pedido), Conferencia: *ToConferenciaDTO(conferencia)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InvalidarPedido undoes a scan: the order moves to CANCELADO, the counters
// are recomputed and the session is flagged.
func (s *ConferenciaService) InvalidarPedido(ctx context.Context, conferenciaID, pedidoID, motivo string) (*ValidacaoResultadoDTO, error) {
	var result *ValidacaoResultadoDTO
	err := s.run(ctx, "conferencia.invalidar-pedido", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		conferencia, pedido, err := s.loadScan(ctx, tx, conferenciaID, pedidoID)
		if err != nil {
			return err
		}
		if pedido.Status == domain.PedidoCancelado {
			return domain.ErrPedidoJaInvalidado
		}

		mov := Movimento{Evento: domain.EventoRejeitado, Observacao: motivo}
		if err := s.ledger.SetStatus(ctx, tx, pedido, domain.PedidoCancelado, mov); err != nil {
			return err
		}
		if err := conferencia.RegistrarInvalidacao(pedido.ID); err != nil {
			return err
		}
		if err := s.saveCounters(ctx, tx, conferencia); err != nil {
			return err
		}

		out.event("conferencia.pedido-invalidated", "conferencia", conferencia.ID, "invalidated", map[string]string{"pedidoId": pedido.ID})
		result = &ValidacaoResultadoDTO{Pedido: *ToPedidoDTO(pedido), Conferencia: *ToConferenciaDTO(conferencia)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// conclusao holds everything completion loads while checking preconditions
type conclusao struct {
	conferencia *domain.Conferencia
	transporte  *domain.Transporte
	rota        *domain.Rota
	validados   []*domain.Pedido
}

// ConcluirConferencia closes a conference. Every precondition is checked
// before the first write; a divergence is filed as an exception; the
// INBOUND branch stocks the validated orders and closes the receiving
// shipment, the OUTBOUND branch dispatches them or records a NOSHOW.
func (s *ConferenciaService) ConcluirConferencia(ctx context.Context, conferenciaID string, extra ConclusaoExtra) (*ConferenciaDetalheDTO, error) {
	var detalhe *ConferenciaDetalheDTO
	err := s.run(ctx, "conferencia.concluir", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		c, err := s.checkConclusao(ctx, tx, conferenciaID)
		if err != nil {
			return err
		}
		conferencia := c.conferencia

		if err := conferencia.Concluir(extra.Observacoes, extra.Usuario); err != nil {
			return err
		}
		if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
			return fmt.Errorf("save conferencia %s: %w", conferencia.ID, err)
		}
		if diff := conferencia.Divergencia(); diff != 0 {
			if err := s.registrarDivergencia(ctx, tx, conferencia, diff); err != nil {
				return err
			}
		}

		switch conferencia.Tipo {
		case domain.TipoInbound:
			err = s.concluirInbound(ctx, tx, c, extra, out)
		case domain.TipoOutbound:
			err = s.concluirOutbound(ctx, tx, c, out)
		}
		if err != nil {
			return err
		}

		out.conferenciaConcluida(conferencia)
		out.event("conferencia.completed", "conferencia", conferencia.ID, "completed", map[string]string{
			"tipo":              string(conferencia.Tipo),
			"totalPedidos":      fmt.Sprint(conferencia.TotalPedidos),
			"pedidosEscaneados": fmt.Sprint(conferencia.PedidosEscaneados),
		})
		detalhe, err = loadDetalhe(ctx, tx, conferencia)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detalhe, nil
}

func (s *ConferenciaService) checkConclusao(ctx context.Context, tx domain.Tx, conferenciaID string) (*conclusao, error) {
	conferencia, err := loadConferencia(ctx, tx, conferenciaID)
	if err != nil {
		return nil, err
	}
	if conferencia.IsConcluida() {
		return nil, domain.ErrConferenciaConcluida
	}
	if err := recontarConferencia(ctx, tx, conferencia); err != nil {
		return nil, err
	}
	if conferencia.TotalPedidos == 0 {
		return nil, domain.ErrConferenciaSemPedidos
	}

	c := &conclusao{conferencia: conferencia}
	if conferencia.TransporteID == "" {
		if conferencia.Tipo == domain.TipoOutbound {
			return nil, domain.ErrConferenciaSemTransp
		}
	} else {
		c.transporte, err = loadTransporte(ctx, tx, conferencia.TransporteID)
		if err != nil {
			return nil, err
		}
		if c.transporte.IsTerminal() {
			return nil, domain.ErrTransporteEncerrado
		}
	}

	c.validados, err = tx.Pedidos().FindByConferenciaAndStatus(ctx, conferencia.ID, domain.PedidoValidado)
	if err != nil {
		return nil, fmt.Errorf("load validated pedidos: %w", err)
	}

	if conferencia.Tipo == domain.TipoInbound && c.transporte != nil && c.transporte.RotaID != "" {
		c.rota, err = loadRota(ctx, tx, c.transporte.RotaID)
		if err != nil {
			return nil, err
		}
		if c.rota.Status == domain.RotaCancelada {
			return nil, domain.ErrRotaEncerrada
		}
	}
	if conferencia.Tipo == domain.TipoOutbound && c.transporte.MotoristaID != "" {
		if c.transporte.RotaID != "" {
			c.rota, err = loadRota(ctx, tx, c.transporte.RotaID)
			if err != nil {
				return nil, err
			}
			if c.rota.IsTerminal() {
				return nil, domain.ErrRotaEncerrada
			}
		}
		for _, p := range c.validados {
			if err := p.CheckLink(domain.RelacaoTransporte, c.transporte.ID); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (s *ConferenciaService) registrarDivergencia(ctx context.Context, tx domain.Tx, conferencia *domain.Conferencia, diff int) error {
	quantidade := diff
	if quantidade < 0 {
		quantidade = -quantidade
	}
	_, err := s.recorder.Record(ctx, tx, RegistroExcecao{
		Tipo:       domain.ExcecaoDivergenciaQuantidade,
		Severidade: divergenceSeverity(diff, conferencia.TotalPedidos),
		Titulo:     fmt.Sprintf("Divergencia de quantidade na conferencia %s", conferencia.Codigo),
		Descricao: fmt.Sprintf("esperados %d, escaneados %d",
			conferencia.TotalPedidos, conferencia.PedidosEscaneados),
		Vinculos: domain.VinculosExcecao{
			ConferenciaID: conferencia.ID,
			TransporteID:  conferencia.TransporteID,
			RecebimentoID: conferencia.RecebimentoID,
		},
		Quantidade:        quantidade,
		ImpactoFinanceiro: s.recorder.DivergenceImpact(diff),
	})
	return err
}

// concluirInbound stocks every validated order, optionally releases picking
// tasks, records the receiving route (or finalizes the one the shipment
// already owns) and walks the shipment to RECEBIDO.
// Linked orders are not cascaded by the shipment here; they stay stocked.
func (s *ConferenciaService) concluirInbound(ctx context.Context, tx domain.Tx, c *conclusao, extra ConclusaoExtra, out *outcome) error {
	local := extra.Localizacao
	if local == "" {
		local = DefaultLocalizacao
	}

	for _, p := range c.validados {
		if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoEmEstoque, Movimento{Evento: domain.EventoEstocado, Local: local}); err != nil {
			return err
		}
		if err := tx.Estoques().Create(ctx, domain.NewEntradaEstoque(p.ID, c.conferencia.ID, local)); err != nil {
			return fmt.Errorf("create entrada estoque for pedido %s: %w", p.ID, err)
		}
		if !extra.GerarSeparacao {
			continue
		}
		if _, err := liberarSeparacao(ctx, tx, s.ledger, p); err != nil {
			return err
		}
	}

	t := c.transporte
	if t == nil {
		return nil
	}
	if c.rota == nil {
		rota, err := s.routes.CreateReceivingRoute(ctx, tx, t, local)
		if err != nil {
			return err
		}
		if err := t.AtribuirRota(rota.ID); err != nil {
			return err
		}
	} else if err := s.routes.Advance(ctx, tx, c.rota, domain.RotaFinalizada); err != nil {
		return err
	}
	for _, step := range []domain.TransporteStatus{domain.TransporteEmTransporte, domain.TransporteRecebido} {
		if t.Status != domain.TransporteCriado && step == domain.TransporteEmTransporte {
			continue
		}
		from := t.Status
		if err := t.AtualizarStatus(step); err != nil {
			return err
		}
		out.transicao(from, step)
	}
	if err := tx.Transportes().Save(ctx, t); err != nil {
		return fmt.Errorf("save transporte %s: %w", t.ID, err)
	}
	return nil
}

// concluirOutbound records a NOSHOW when the shipment has no driver and
// leaves the shipment untouched. Otherwise every validated order is put on
// the shipment in EM_ROTA and gets a stop on its route, then the route is
// started and the shipment leaves.
func (s *ConferenciaService) concluirOutbound(ctx context.Context, tx domain.Tx, c *conclusao, out *outcome) error {
	t := c.transporte
	if t.MotoristaID == "" {
		_, err := s.recorder.Record(ctx, tx, RegistroExcecao{
			Tipo:       domain.ExcecaoNoShow,
			Severidade: domain.SeveridadeAlta,
			Titulo:     fmt.Sprintf("Transporte %s sem motorista", t.Codigo),
			Descricao:  fmt.Sprintf("conferencia %s concluida sem motorista atribuido", c.conferencia.Codigo),
			Vinculos: domain.VinculosExcecao{
				TransporteID:  t.ID,
				ConferenciaID: c.conferencia.ID,
			},
			Quantidade:        len(c.validados),
			ImpactoFinanceiro: decimal.Zero,
		})
		return err
	}

	rota := c.rota
	if rota == nil {
		var err error
		if rota, err = s.routes.EnsureForTransporte(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, p := range c.validados {
		if err := s.ledger.Attach(ctx, tx, p, domain.RelacaoTransporte, t.ID); err != nil {
			return err
		}
		mov := Movimento{Evento: domain.EventoDespachado, Local: t.Origem, Observacao: "rota " + rota.Codigo}
		if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoEmRota, mov); err != nil {
			return err
		}
	}
	if _, err := s.routes.AppendStops(ctx, tx, rota, c.validados, true); err != nil {
		return err
	}
	if err := s.routes.Advance(ctx, tx, rota, domain.RotaEmAndamento); err != nil {
		return err
	}
	if t.Status == domain.TransporteCriado {
		if err := t.AtualizarStatus(domain.TransporteEmTransporte); err != nil {
			return err
		}
		out.transicao(domain.TransporteCriado, domain.TransporteEmTransporte)
	}
	if err := tx.Transportes().Save(ctx, t); err != nil {
		return fmt.Errorf("save transporte %s: %w", t.ID, err)
	}

	out.event("transporte.dispatched", "transporte", t.ID, "dispatched", map[string]string{
		"rotaId":  rota.ID,
		"pedidos": fmt.Sprint(len(c.validados)),
	})
	return nil
}

// PedidosValidados lists the conference's orders currently VALIDADO
func (s *ConferenciaService) PedidosValidados(ctx context.Context, conferenciaID string) ([]PedidoDTO, error) {
	var pedidos []*domain.Pedido
	err := s.run(ctx, "conferencia.pedidos-validados", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		if _, err := loadConferencia(ctx, tx, conferenciaID); err != nil {
			return err
		}
		var err error
		pedidos, err = tx.Pedidos().FindByConferenciaAndStatus(ctx, conferenciaID, domain.PedidoValidado)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToPedidoDTOs(pedidos), nil
}

// Obter returns a conference with its orders, shipment and exceptions
func (s *ConferenciaService) Obter(ctx context.Context, conferenciaID string) (*ConferenciaDetalheDTO, error) {
	var detalhe *ConferenciaDetalheDTO
	err := s.run(ctx, "conferencia.obter", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		conferencia, err := loadConferencia(ctx, tx, conferenciaID)
		if err != nil {
			return err
		}
		detalhe, err = loadDetalhe(ctx, tx, conferencia)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detalhe, nil
}

// loadScan loads the pair a validation works on. The conference must be
// open and the order must belong to it.
func (s *ConferenciaService) loadScan(ctx context.Context, tx domain.Tx, conferenciaID, pedidoID string) (*domain.Conferencia, *domain.Pedido, error) {
	conferencia, err := loadConferencia(ctx, tx, conferenciaID)
	if err != nil {
		return nil, nil, err
	}
	if err := conferencia.EnsureAberta(); err != nil {
		return nil, nil, err
	}
	pedido, err := loadPedido(ctx, tx, pedidoID)
	if err != nil {
		return nil, nil, err
	}
	if pedido.ConferenciaID != conferencia.ID {
		return nil, nil, domain.ErrPedidoNaoVinculado
	}
	return conferencia, pedido, nil
}

func (s *ConferenciaService) saveCounters(ctx context.Context, tx domain.Tx, conferencia *domain.Conferencia) error {
	if err := recontarConferencia(ctx, tx, conferencia); err != nil {
		return err
	}
	if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
		return fmt.Errorf("save conferencia %s: %w", conferencia.ID, err)
	}
	return nil
}

func loadDetalhe(ctx context.Context, tx domain.Tx, conferencia *domain.Conferencia) (*ConferenciaDetalheDTO, error) {
	pedidos, err := tx.Pedidos().FindByConferencia(ctx, conferencia.ID)
	if err != nil {
		return nil, fmt.Errorf("load pedidos of conferencia %s: %w", conferencia.ID, err)
	}
	excecoes, err := tx.Excecoes().FindByConferencia(ctx, conferencia.ID)
	if err != nil {
		return nil, fmt.Errorf("load excecoes of conferencia %s: %w", conferencia.ID, err)
	}
	detalhe := &ConferenciaDetalheDTO{
		ConferenciaDTO: *ToConferenciaDTO(conferencia),
		Pedidos:        ToPedidoDTOs(pedidos),
		Excecoes:       ToExcecaoDTOs(excecoes),
	}
	if conferencia.TransporteID != "" {
		t, err := tx.Transportes().FindByID(ctx, conferencia.TransporteID)
		if err != nil {
			return nil, fmt.Errorf("load transporte %s: %w", conferencia.TransporteID, err)
		}
		detalhe.Transporte = ToTransporteDTO(t)
	}
	return detalhe, nil
}

func loadConferencia(ctx context.Context, tx domain.Tx, id string) (*domain.Conferencia, error) {
	c, err := tx.Conferencias().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load conferencia %s: %w", id, err)
	}
	if c == nil {
		return nil, notFound("conferencia", id)
	}
	return c, nil
}

func loadTransporte(ctx context.Context, tx domain.Tx, id string) (*domain.Transporte, error) {
	t, err := tx.Transportes().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load transporte %s: %w", id, err)
	}
	if t == nil {
		return nil, notFound("transporte", id)
	}
	return t, nil
}

func loadRota(ctx context.Context, tx domain.Tx, id string) (*domain.Rota, error) {
	r, err := tx.Rotas().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load rota %s: %w", id, err)
	}
	if r == nil {
		return nil, notFound("rota", id)
	}
	return r, nil
}
