package application

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

// outcome collects what a unit of work did so it can be reported once the
// transaction commits. It is reset at the start of every attempt because
// the store may retry the callback.
type outcome struct {
	events       []logging.BusinessEvent
	excecoes     []*domain.Excecao
	pedidos      map[domain.PedidoStatus]int
	pedidoIDs    []string
	transicoes   [][2]string
	conferencias []*domain.Conferencia
	paradas      int
}

func (o *outcome) event(eventType, entityType, entityID, action string, related map[string]string) {
	o.events = append(o.events, logging.BusinessEvent{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		RelatedIDs: related,
	})
}

// spanAttributes lists every entity the committed events touched. Orders
// whose status moved are listed together since one unit may move many.
func (o *outcome) spanAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, ev := range o.events {
		if ev.EntityID != "" {
			attrs = append(attrs, tracing.EntityID(ev.EntityType, ev.EntityID))
		}
		attrs = append(attrs, tracing.RelatedIDs(ev.RelatedIDs)...)
	}
	for _, e := range o.excecoes {
		attrs = append(attrs, tracing.ExcecaoIDKey.String(e.ID))
	}
	if len(o.pedidoIDs) > 0 {
		attrs = append(attrs, tracing.PedidoIDsKey.StringSlice(o.pedidoIDs))
	}
	return attrs
}

func (o *outcome) excecao(e *domain.Excecao) {
	o.excecoes = append(o.excecoes, e)
}

func (o *outcome) pedidoStatus(id string, status domain.PedidoStatus) {
	if o.pedidos == nil {
		o.pedidos = make(map[domain.PedidoStatus]int)
	}
	o.pedidos[status]++
	o.pedidoIDs = append(o.pedidoIDs, id)
}

func (o *outcome) transicao(from, to domain.TransporteStatus) {
	o.transicoes = append(o.transicoes, [2]string{string(from), string(to)})
}

func (o *outcome) conferenciaConcluida(c *domain.Conferencia) {
	o.conferencias = append(o.conferencias, c)
}

func (o *outcome) paradasCriadas(n int) {
	o.paradas += n
}

type outcomeKey struct{}

func withOutcome(ctx context.Context, out *outcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, out)
}

// outcomeFrom returns the outcome of the running unit of work, or a
// throwaway one when the caller runs outside a service.
func outcomeFrom(ctx context.Context) *outcome {
	if out, ok := ctx.Value(outcomeKey{}).(*outcome); ok {
		return out
	}
	return &outcome{}
}

// Observer reports committed outcomes as business log lines, metrics and
// span attributes. Metrics may be nil.
type Observer struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewObserver creates an Observer
func NewObserver(logger *logging.Logger, m *metrics.Metrics) *Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Observer{
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("github.com/wms-platform/fulfillment-service/internal/application"),
	}
}

func (ob *Observer) committed(ctx context.Context, out *outcome) {
	for _, ev := range out.events {
		ob.logger.LogBusinessEvent(ctx, ev)
	}
	for _, e := range out.excecoes {
		ob.logger.Divergence(ctx, logging.ExceptionRecord{
			Numero:            e.Numero,
			Tipo:              string(e.Tipo),
			Severidade:        string(e.Severidade),
			Quantidade:        e.Quantidade,
			ImpactoFinanceiro: e.ImpactoFinanceiro.StringFixed(2),
			Vinculos:          e.Vinculos.Map(),
		})
		impacto, _ := e.ImpactoFinanceiro.Float64()
		ob.metrics.RecordExcecao(string(e.Tipo), string(e.Severidade), impacto)
	}
	for status, n := range out.pedidos {
		ob.metrics.RecordPedidoStatus(string(status), n)
	}
	for _, t := range out.transicoes {
		ob.metrics.RecordTransporteTransition(t[0], t[1])
	}
	for _, c := range out.conferencias {
		ob.metrics.RecordConferenciaConcluida(string(c.Tipo), c.PossuiDivergencia)
	}
	ob.metrics.RecordParadasCriadas(out.paradas)
}

// unit binds a UnitOfWork to the Observer that reports what it commits.
// Every public service operation is exactly one run call.
type unit struct {
	uow      domain.UnitOfWork
	observer *Observer
}

func (u unit) run(ctx context.Context, operation string, fn func(ctx context.Context, tx domain.Tx, out *outcome) error) error {
	ctx = logging.ContextWithOperation(ctx, operation)
	ctx, span := tracing.StartOperation(ctx, u.observer.tracer, operation)

	out := &outcome{}
	ctx = withOutcome(ctx, out)
	err := u.uow.WithinTransaction(ctx, operation, func(ctx context.Context, tx domain.Tx) error {
		*out = outcome{}
		return fn(ctx, tx, out)
	})
	if err != nil {
		err = toAppError(err)
		rejected := isRejection(err)
		var duration time.Duration
		if rejected {
			duration = span.EndRejected(err)
		} else {
			duration = span.EndWithError(err)
		}
		u.observer.logger.OperationFinished(ctx, logging.OperationResult{Duration: duration, Err: err, Rejected: rejected})
		return err
	}

	span.SetAttributes(out.spanAttributes()...)
	duration := span.EndWithError(nil)
	u.observer.logger.OperationFinished(ctx, logging.OperationResult{Duration: duration})
	u.observer.committed(ctx, out)
	return nil
}

// isRejection tells business refusals, which the caller can correct, from
// faults of the store or the service.
func isRejection(err error) bool {
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.HTTPStatus < http.StatusInternalServerError
}
