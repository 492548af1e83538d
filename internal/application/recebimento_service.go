package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// DefaultLockTTL bounds how long a receiving completion holds its
// distributed lock.
const DefaultLockTTL = 30 * time.Second

// RecebimentoService opens receiving manifests and turns a completed
// manifest into an INBOUND shipment and conference.
type RecebimentoService struct {
	unit
	ledger  OrderLedger
	locker  domain.Locker
	lockTTL time.Duration
	logger  *logging.Logger
}

// NewRecebimentoService creates a new RecebimentoService. A nil locker
// falls back to NoopLocker.
func NewRecebimentoService(uow domain.UnitOfWork, ledger OrderLedger, locker domain.Locker, lockTTL time.Duration, observer *Observer, logger *logging.Logger) *RecebimentoService {
	if locker == nil {
		locker = NoopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RecebimentoService{
		unit:    unit{uow: uow, observer: observer},
		ledger:  ledger,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// CriarRecebimento opens a PENDENTE manifest
func (s *RecebimentoService) CriarRecebimento(ctx context.Context, cmd CriarRecebimentoCommand) (*RecebimentoDTO, error) {
	var recebimento *domain.Recebimento
	err := s.run(ctx, "recebimento.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		codigo, err := nextCodigo(ctx, tx, prefixRecebimento)
		if err != nil {
			return err
		}
		recebimento = domain.NewRecebimento(codigo, cmd.Fornecedor, cmd.Origem)
		if err := tx.Recebimentos().Save(ctx, recebimento); err != nil {
			return fmt.Errorf("save recebimento: %w", err)
		}
		out.event("recebimento.created", "recebimento", recebimento.ID, "created", map[string]string{"codigo": codigo})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRecebimentoDTO(recebimento), nil
}

// Obter returns one manifest
func (s *RecebimentoService) Obter(ctx context.Context, id string) (*RecebimentoDTO, error) {
	var recebimento *domain.Recebimento
	err := s.run(ctx, "recebimento.obter", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		var err error
		recebimento, err = tx.Recebimentos().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if recebimento == nil {
			return notFound("recebimento", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToRecebimentoDTO(recebimento), nil
}

// ConcluirRecebimento completes a manifest. The distributed lock keeps other
// instances out; the row lock taken inside the transaction makes a
// concurrent completion conflict and then observe CONCLUIDO.
func (s *RecebimentoService) ConcluirRecebimento(ctx context.Context, id, usuario string) (*RecebimentoResultadoDTO, error) {
	release, err := s.locker.Obtain(ctx, "recebimento:"+id, s.lockTTL)
	if err != nil {
		if stderrors.Is(err, domain.ErrLockNotObtained) {
			return nil, toAppError(err)
		}
		return nil, errors.ErrServiceUnavailable("lock").Wrap(err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WithError(err).Warn("Failed to release recebimento lock", "recebimentoId", id)
		}
	}()

	var result *RecebimentoResultadoDTO
	err = s.run(ctx, "recebimento.concluir", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		recebimento, err := tx.Recebimentos().LockForUpdate(ctx, id, uuid.NewString())
		if err != nil {
			return fmt.Errorf("lock recebimento %s: %w", id, err)
		}
		if recebimento == nil {
			return notFound("recebimento", id)
		}
		if !recebimento.IsAberto() {
			return domain.ErrRecebimentoEncerrado
		}
		pedidos, err := tx.Pedidos().FindByRecebimento(ctx, recebimento.ID)
		if err != nil {
			return fmt.Errorf("load pedidos of recebimento %s: %w", recebimento.ID, err)
		}
		if len(pedidos) == 0 {
			return domain.ErrRecebimentoSemPedidos
		}
		for _, p := range pedidos {
			if p.ConferenciaID != "" {
				return domain.ErrPedidoVinculado
			}
			if p.TransporteID != "" {
				return domain.ErrPedidoVinculado
			}
			if !p.CanTransitionTo(domain.PedidoRecebido) {
				return &domain.InvalidTransitionError{Entity: "pedido", From: string(p.Status), To: string(domain.PedidoRecebido)}
			}
		}

		codigoTransporte, err := nextCodigo(ctx, tx, prefixTransporte)
		if err != nil {
			return err
		}
		codigoConferencia, err := nextCodigo(ctx, tx, prefixConferencia)
		if err != nil {
			return err
		}
		transporte := domain.NewTransporte(codigoTransporte, domain.TipoInbound, recebimento.Origem, DefaultLocalizacao)
		conferencia := domain.NewConferencia(codigoConferencia, domain.TipoInbound)
		conferencia.TransporteID = transporte.ID
		conferencia.RecebimentoID = recebimento.ID
		if err := transporte.AssociarConferencia(conferencia.ID); err != nil {
			return err
		}
		if err := tx.Transportes().Save(ctx, transporte); err != nil {
			return fmt.Errorf("save transporte: %w", err)
		}
		if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
			return fmt.Errorf("save conferencia: %w", err)
		}

		local := recebimento.Origem
		for _, p := range pedidos {
			if err := s.ledger.Attach(ctx, tx, p, domain.RelacaoTransporte, transporte.ID); err != nil {
				return err
			}
			if err := s.ledger.Attach(ctx, tx, p, domain.RelacaoConferencia, conferencia.ID); err != nil {
				return err
			}
			if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoRecebido, Movimento{Evento: domain.EventoRecebido, Local: local, Observacao: recebimento.Codigo}); err != nil {
				return err
			}
			if err := s.ledger.SetStatus(ctx, tx, p, domain.PedidoAguardandoConferencia, Movimento{Evento: domain.EventoAguardandoConf, Observacao: conferencia.Codigo}); err != nil {
				return err
			}
		}
		if err := recontarConferencia(ctx, tx, conferencia); err != nil {
			return err
		}
		if err := tx.Conferencias().Save(ctx, conferencia); err != nil {
			return fmt.Errorf("save conferencia counters: %w", err)
		}

		if err := recebimento.Concluir(transporte.ID, conferencia.ID); err != nil {
			return err
		}
		if err := tx.Recebimentos().Save(ctx, recebimento); err != nil {
			return fmt.Errorf("save recebimento %s: %w", recebimento.ID, err)
		}

		out.event("recebimento.completed", "recebimento", recebimento.ID, "completed", map[string]string{
			"transporteId":  transporte.ID,
			"conferenciaId": conferencia.ID,
			"usuario":       usuario,
			"pedidos":       fmt.Sprint(len(pedidos)),
		})
		result = &RecebimentoResultadoDTO{
			Recebimento: *ToRecebimentoDTO(recebimento),
			Transporte:  *ToTransporteDTO(transporte),
			Conferencia: *ToConferenciaDTO(conferencia),
			Pedidos:     ToPedidoDTOs(pedidos),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransferenciaService creates inter-hub transfers
type TransferenciaService struct {
	unit
}

// NewTransferenciaService creates a new TransferenciaService
func NewTransferenciaService(uow domain.UnitOfWork, observer *Observer) *TransferenciaService {
	return &TransferenciaService{unit: unit{uow: uow, observer: observer}}
}

// CriarTransferencia creates a PENDENTE transfer
func (s *TransferenciaService) CriarTransferencia(ctx context.Context, cmd CriarTransferenciaCommand) (*TransferenciaDTO, error) {
	var transferencia *domain.Transferencia
	err := s.run(ctx, "transferencia.criar", func(ctx context.Context, tx domain.Tx, out *outcome) error {
		codigo, err := nextCodigo(ctx, tx, prefixTransferencia)
		if err != nil {
			return err
		}
		transferencia = domain.NewTransferencia(codigo, cmd.Origem, cmd.Destino, cmd.Observacao)
		if err := tx.Transferencias().Save(ctx, transferencia); err != nil {
			return fmt.Errorf("save transferencia: %w", err)
		}
		out.event("transferencia.created", "transferencia", transferencia.ID, "created", map[string]string{
			"origem":  cmd.Origem,
			"destino": cmd.Destino,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToTransferenciaDTO(transferencia), nil
}

// NoopLocker grants every lock. It is used when no Redis is configured; the
// row lock still serializes completions inside the store.
type NoopLocker struct{}

// Obtain implements domain.Locker
func (NoopLocker) Obtain(ctx context.Context, _ string, _ time.Duration) (func(context.Context) error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func(context.Context) error { return nil }, nil
}
