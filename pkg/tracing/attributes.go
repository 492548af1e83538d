package tracing

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys of the fulfillment spans. Entity ids follow the
// fulfillment.<entity>.id pattern so a trace can be searched by any
// order, conference or shipment it touched.
const (
	OperationKey     = attribute.Key("fulfillment.operation")
	RejectedKey      = attribute.Key("fulfillment.rejected")
	EventTypeKey     = attribute.Key("fulfillment.event.type")
	StatusKey        = attribute.Key("fulfillment.status")
	RelacaoKey       = attribute.Key("fulfillment.relacao.tipo")
	PedidoIDKey      = attribute.Key("fulfillment.pedido.id")
	PedidoIDsKey     = attribute.Key("fulfillment.pedido.ids")
	ConferenciaIDKey = attribute.Key("fulfillment.conferencia.id")
	TransporteIDKey  = attribute.Key("fulfillment.transporte.id")
	RotaIDKey        = attribute.Key("fulfillment.rota.id")
	ParadaIDKey      = attribute.Key("fulfillment.parada.id")
	RecebimentoIDKey = attribute.Key("fulfillment.recebimento.id")
	ExcecaoIDKey     = attribute.Key("fulfillment.excecao.id")
)

var entityKeys = map[string]attribute.Key{
	"pedido":      PedidoIDKey,
	"conferencia": ConferenciaIDKey,
	"transporte":  TransporteIDKey,
	"rota":        RotaIDKey,
	"parada":      ParadaIDKey,
	"recebimento": RecebimentoIDKey,
	"excecao":     ExcecaoIDKey,
}

// EntityID names one entity. Entity types outside the well-known set
// still map to fulfillment.<entity>.id.
func EntityID(entityType, id string) attribute.KeyValue {
	entityType = strings.ToLower(entityType)
	if key, ok := entityKeys[entityType]; ok {
		return key.String(id)
	}
	return attribute.Key("fulfillment." + entityType + ".id").String(id)
}

// RelatedIDs turns the related ids of a business event, keyed like
// "transporteId", into entity attributes. Other keys and empty values are
// skipped.
func RelatedIDs(related map[string]string) []attribute.KeyValue {
	keys := make([]string, 0, len(related))
	for k, v := range related {
		if v != "" && len(k) > 2 && strings.HasSuffix(k, "Id") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, EntityID(strings.TrimSuffix(k, "Id"), related[k]))
	}
	return attrs
}

// StartOperation opens the span wrapping one service operation
func StartOperation(ctx context.Context, tracer trace.Tracer, operation string) (context.Context, *TimedSpan) {
	return StartTimedSpan(ctx, tracer, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(OperationKey.String(operation)),
	)
}

// EndRejected ends a span whose operation a business rule refused. The
// error is recorded but the span status stays unset.
func (ts *TimedSpan) EndRejected(err error) time.Duration {
	ts.span.RecordError(err)
	ts.span.SetAttributes(RejectedKey.Bool(true))
	return ts.End()
}

// Annotate tags the span active in ctx
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attrs...)
}
