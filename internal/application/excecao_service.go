package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// ExcecaoService runs the resolution workflow of filed exceptions. Only the
// resolution fields of an exception are ever rewritten.
type ExcecaoService struct {
	unit
}

// NewExcecaoService creates a new ExcecaoService
func NewExcecaoService(uow domain.UnitOfWork, observer *Observer) *ExcecaoService {
	return &ExcecaoService{unit: unit{uow: uow, observer: observer}}
}

// Obter returns one exception
func (s *ExcecaoService) Obter(ctx context.Context, id string) (*ExcecaoDTO, error) {
	var excecao *domain.Excecao
	err := s.run(ctx, "excecao.obter", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		excecao, err = loadExcecao(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToExcecaoDTO(excecao), nil
}

// ListarPorPedido lists the exceptions filed against an order
func (s *ExcecaoService) ListarPorPedido(ctx context.Context, pedidoID string) ([]ExcecaoDTO, error) {
	var excecoes []*domain.Excecao
	err := s.run(ctx, "excecao.listar-por-pedido", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		excecoes, err = tx.Excecoes().FindByPedido(ctx, pedidoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToExcecaoDTOs(excecoes), nil
}

// IniciarAnalise takes an ABERTA exception into analysis
func (s *ExcecaoService) IniciarAnalise(ctx context.Context, id, responsavel string) (*ExcecaoDTO, error) {
	return s.resolve(ctx, "excecao.analisar", id, func(e *domain.Excecao) error {
		return e.IniciarAnalise(responsavel)
	})
}

// Resolver closes an exception under analysis
func (s *ExcecaoService) Resolver(ctx context.Context, id, resolucao, usuario string) (*ExcecaoDTO, error) {
	return s.resolve(ctx, "excecao.resolver", id, func(e *domain.Excecao) error {
		return e.Resolver(resolucao, usuario)
	})
}

// Cancelar discards an open exception
func (s *ExcecaoService) Cancelar(ctx context.Context, id, motivo, usuario string) (*ExcecaoDTO, error) {
	return s.resolve(ctx, "excecao.cancelar", id, func(e *domain.Excecao) error {
		return e.Cancelar(motivo, usuario)
	})
}

func (s *ExcecaoService) resolve(ctx context.Context, operation, id string, step func(*domain.Excecao) error) (*ExcecaoDTO, error) {
	var excecao *domain.Excecao
	err := s.run(ctx, operation, func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		excecao, err = loadExcecao(ctx, tx, id)
		if err != nil {
			return err
		}
		from := excecao.Status
		if err := step(excecao); err != nil {
			return err
		}
		if err := tx.Excecoes().SaveResolution(ctx, excecao); err != nil {
			return fmt.Errorf("save excecao %s: %w", excecao.ID, err)
		}
		out.event("excecao.status-changed", "excecao", excecao.ID, "status-changed", map[string]string{
			"numero": excecao.Numero,
			"from":   string(from),
			"to":     string(excecao.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToExcecaoDTO(excecao), nil
}

func loadExcecao(ctx context.Context, tx domain.Tx, id string) (*domain.Excecao, error) {
	e, err := tx.Excecoes().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load excecao %s: %w", id, err)
	}
	if e == nil {
		return nil, notFound("excecao", id)
	}
	return e, nil
}
