package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// SeparacaoService runs the picking and pickup chain
type SeparacaoService struct {
	unit
	ledger OrderLedger
}

// NewSeparacaoService creates a new SeparacaoService
func NewSeparacaoService(uow domain.UnitOfWork, ledger OrderLedger, observer *Observer) *SeparacaoService {
	return &SeparacaoService{unit: unit{uow: uow, observer: observer}, ledger: ledger}
}

// CriarSeparacao releases a picking task for a stocked order
func (s *SeparacaoService) CriarSeparacao(ctx context.Context, pedidoID string) (*SeparacaoDTO, error) {
	var separacao *domain.Separacao
	err := s.run(ctx, "separacao.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		p, err := loadPedido(ctx, tx, pedidoID)
		if err != nil {
			return err
		}
		if p.Status != domain.PedidoEmEstoque {
			return &domain.InvalidTransitionError{Entity: "pedido", From: string(p.Status), To: string(domain.PedidoAguardandoSeparacao)}
		}
		separacao, err = liberarSeparacao(ctx, tx, s.ledger, p)
		if err != nil {
			return err
		}
		out.event("separacao.created", "separacao", separacao.ID, "created", map[string]string{"pedidoId": p.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToSeparacaoDTO(separacao), nil
}

// MarcarComoSeparado completes a picking task exactly once: the order moves
// to AGUARDANDO_COLETA and one PENDENTE pickup is created.
func (s *SeparacaoService) MarcarComoSeparado(ctx context.Context, separacaoID, responsavel string) (*SeparacaoResultadoDTO, error) {
	var result *SeparacaoResultadoDTO
	err := s.run(ctx, "separacao.separar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		separacao, err := tx.Separacoes().FindByID(ctx, separacaoID)
		if err != nil {
			return fmt.Errorf("load separacao %s: %w", separacaoID, err)
		}
		if separacao == nil {
			return notFound("separacao", separacaoID)
		}
		if err := separacao.CheckSeparar(); err != nil {
			return err
		}
		p, err := loadPedido(ctx, tx, separacao.PedidoID)
		if err != nil {
			return err
		}
		if !p.CanTransitionTo(domain.PedidoAguardandoColeta) {
			return &domain.InvalidTransitionError{Entity: "pedido", From: string(p.Status), To: string(domain.PedidoAguardandoColeta)}
		}

		if err := separacao.MarcarComoSeparado(responsavel); err != nil {
			return err
		}
		if err := tx.Separacoes().Save(ctx, separacao); err != nil {
			return fmt.Errorf("save separacao %s: %w", separacao.ID, err)
		}
		coleta := domain.NewColeta(p.ID, separacao.ID)
		if err := tx.Coletas().Save(ctx, coleta); err != nil {
			return fmt.Errorf("save coleta: %w", err)
		}
		mov := Movimento{Evento: domain.EventoSeparado, Observacao: responsavel}
		if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoAguardandoColeta, mov); err != nil {
			return err
		}

		out.event("separacao.completed", "separacao", separacao.ID, "completed", map[string]string{
			"pedidoId": p.ID,
			"coletaId": coleta.ID,
		})
		result = &SeparacaoResultadoDTO{
			Separacao: *ToSeparacaoDTO(separacao),
			Coleta:    *ToColetaDTO(coleta),
			Pedido:    *ToPedidoDTO(p),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarcarComoColetado completes a pickup exactly once and puts the order in
// transit.
func (s *SeparacaoService) MarcarComoColetado(ctx context.Context, coletaID string) (*ColetaResultadoDTO, error) {
	var result *ColetaResultadoDTO
	err := s.run(ctx, "coleta.coletar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		coleta, err := tx.Coletas().FindByID(ctx, coletaID)
		if err != nil {
			return fmt.Errorf("load coleta %s: %w", coletaID, err)
		}
		if coleta == nil {
			return notFound("coleta", coletaID)
		}
		if err := coleta.CheckColetar(); err != nil {
			return err
		}
		p, err := loadPedido(ctx, tx, coleta.PedidoID)
		if err != nil {
			return err
		}
		if !p.CanTransitionTo(domain.PedidoEmTransito) {
			return &domain.InvalidTransitionError{Entity: "pedido", From: string(p.Status), To: string(domain.PedidoEmTransito)}
		}

		if err := coleta.MarcarComoColetado(); err != nil {
			return err
		}
		if err := tx.Coletas().Save(ctx, coleta); err != nil {
			return fmt.Errorf("save coleta %s: %w", coleta.ID, err)
		}
		if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoEmTransito, Movimento{Evento: domain.EventoColetado}); err != nil {
			return err
		}

		out.event("coleta.completed", "coleta", coleta.ID, "completed", map[string]string{"pedidoId": p.ID})
		result = &ColetaResultadoDTO{Coleta: *ToColetaDTO(coleta), Pedido: *ToPedidoDTO(p)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// liberarSeparacao creates the PENDENTE picking task of a stocked order and
// moves the order to AGUARDANDO_SEPARACAO.
func liberarSeparacao(ctx context.Context, tx domain.Tx, ledger OrderLedger, p *domain.Pedido) (*domain.Separacao, error) {
	ativa, err := tx.Separacoes().FindAtivaByPedido(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load separacao of pedido %s: %w", p.ID, err)
	}
	if ativa != nil {
		return nil, domain.ErrSeparacaoExistente
	}
	separacao := domain.NewSeparacao(p.ID)
	if err := tx.Separacoes().Save(ctx, separacao); err != nil {
		return nil, fmt.Errorf("save separacao: %w", err)
	}
	if err := ledger.SetStatus(ctx, tx, p, domain.PedidoAguardandoSeparacao, Movimento{Evento: domain.EventoSeparacaoLiberada}); err != nil {
		return nil, err
	}
	return separacao, nil
}
