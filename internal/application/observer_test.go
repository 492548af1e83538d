package application

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

// observed swaps the fixture's tracer and logger for recording ones
func observed(f *fixture) (*tracetest.SpanRecorder, *bytes.Buffer) {
	recorder := tracetest.NewSpanRecorder()
	f.observer.tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	var buf bytes.Buffer
	f.observer.logger = logging.New(&logging.Config{ServiceName: "test", Level: logging.LevelDebug, Output: &buf})
	return recorder, &buf
}

func lastSpan(t *testing.T, recorder *tracetest.SpanRecorder, name string) (sdktrace.ReadOnlySpan, map[attribute.Key]attribute.Value) {
	t.Helper()
	ended := recorder.Ended()
	for i := len(ended) - 1; i >= 0; i-- {
		if ended[i].Name() != name {
			continue
		}
		attrs := make(map[attribute.Key]attribute.Value)
		for _, kv := range ended[i].Attributes() {
			attrs[kv.Key] = kv.Value
		}
		return ended[i], attrs
	}
	require.FailNow(t, "span not found", name)
	return nil, nil
}

func logLines(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		if line["msg"] == msg {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestRun_ConclusionSpanNamesTouchedEntities(t *testing.T) {
	f := newFixture(t)
	transporte, conf, ids := f.conferenciaOutbound(t, 3, true)
	f.validar(t, conf.ID, ids[0], ids[1])
	recorder, buf := observed(f)

	detalhe, err := f.conferencias.ConcluirConferencia(context.Background(), conf.ID, ConclusaoExtra{})
	require.NoError(t, err)
	require.Len(t, detalhe.Excecoes, 1)

	span, attrs := lastSpan(t, recorder, "conferencia.concluir")
	assert.Equal(t, codes.Ok, span.Status().Code)
	assert.Equal(t, "conferencia.concluir", attrs[tracing.OperationKey].AsString())
	assert.Equal(t, conf.ID, attrs[tracing.ConferenciaIDKey].AsString())
	assert.Equal(t, transporte.ID, attrs[tracing.TransporteIDKey].AsString())
	assert.NotEmpty(t, attrs[tracing.RotaIDKey].AsString())
	assert.Equal(t, detalhe.Excecoes[0].ID, attrs[tracing.ExcecaoIDKey].AsString())
	moved := attrs[tracing.PedidoIDsKey].AsStringSlice()
	assert.Subset(t, moved, ids[:2])
	assert.NotContains(t, moved, ids[2])

	committed := logLines(t, buf, "Operation committed")
	require.Len(t, committed, 1)
	assert.Equal(t, "conferencia.concluir", committed[0]["operation"])

	for _, line := range logLines(t, buf, "Business event") {
		assert.Equal(t, "conferencia.concluir", line["operation"])
	}
	divergences := logLines(t, buf, "Divergence recorded")
	require.Len(t, divergences, 1)
	assert.Equal(t, string(domain.ExcecaoDivergenciaQuantidade), divergences[0]["tipo"])
	assert.Equal(t, "25.00", divergences[0]["impactoFinanceiro"])
	assert.Equal(t, conf.ID, divergences[0]["conferenciaId"])
}

func TestRun_ValidationSpanCarriesOrder(t *testing.T) {
	f := newFixture(t)
	_, conf, ids := f.conferenciaOutbound(t, 1, false)
	recorder, _ := observed(f)

	f.validar(t, conf.ID, ids[0])

	_, attrs := lastSpan(t, recorder, "conferencia.validar-pedido")
	assert.Equal(t, conf.ID, attrs[tracing.ConferenciaIDKey].AsString())
	assert.Equal(t, ids[0], attrs[tracing.PedidoIDKey].AsString())
}

func TestRun_BusinessRefusalIsNotAFault(t *testing.T) {
	f := newFixture(t)
	_, conf, ids := f.conferenciaOutbound(t, 1, false)
	f.validar(t, conf.ID, ids[0])
	recorder, buf := observed(f)

	_, err := f.conferencias.ValidarPedido(context.Background(), conf.ID, ids[0])
	require.ErrorIs(t, err, domain.ErrPedidoJaValidado)

	span, attrs := lastSpan(t, recorder, "conferencia.validar-pedido")
	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.True(t, attrs[tracing.RejectedKey].AsBool())
	assert.Empty(t, attrs[tracing.PedidoIDKey].AsString())

	rejected := logLines(t, buf, "Operation rejected")
	require.Len(t, rejected, 1)
	assert.Equal(t, "INFO", rejected[0]["level"])
	assert.Equal(t, "conferencia.validar-pedido", rejected[0]["operation"])
	assert.Empty(t, logLines(t, buf, "Operation rolled back"))
}
