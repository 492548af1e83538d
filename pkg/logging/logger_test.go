package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&Config{ServiceName: "svc", Level: level, Output: &buf}), &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithContext_AddsIDs(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithTraceID(ctx, "trace-1")

	logger.WithContext(ctx).Info("hello")

	line := lastLine(t, buf)
	assert.Equal(t, "svc", line["service"])
	assert.Equal(t, "req-1", line["requestId"])
	assert.Equal(t, "corr-1", line["correlationId"])
	assert.Equal(t, "trace-1", line["traceId"])
}

func TestDivergence_LogsAtWarn(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	logger.Divergence(context.Background(), ExceptionRecord{
		Numero:            "EXC-1",
		Tipo:              "DIVERGENCIA_QUANTIDADE",
		Severidade:        "MEDIA",
		Quantidade:        2,
		ImpactoFinanceiro: "100.00",
		Vinculos:          map[string]string{"conferenciaId": "c-1", "transporteId": "t-1"},
	})

	line := lastLine(t, buf)
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "EXC-1", line["excecaoNumero"])
	assert.Equal(t, float64(2), line["quantidade"])
	assert.Equal(t, "100.00", line["impactoFinanceiro"])
	assert.Equal(t, "c-1", line["conferenciaId"])
	assert.Equal(t, "t-1", line["transporteId"])
}

func TestLogBusinessEvent_CarriesOperation(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	ctx := ContextWithOperation(context.Background(), "conferencia.concluir")

	logger.LogBusinessEvent(ctx, BusinessEvent{
		EventType:  "conferencia.completed",
		EntityType: "conferencia",
		EntityID:   "c-1",
		Action:     "completed",
		RelatedIDs: map[string]string{"transporteId": "t-1"},
	})

	line := lastLine(t, buf)
	assert.Equal(t, "conferencia.concluir", line["operation"])
	assert.Equal(t, "conferencia.completed", line["eventType"])
	assert.Equal(t, "c-1", line["entityId"])
	assert.Equal(t, "t-1", line["transporteId"])
}

func TestOperationFinished(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)
	ctx := ContextWithOperation(context.Background(), "pedido.criar")

	logger.OperationFinished(ctx, OperationResult{Duration: 5 * time.Millisecond})
	line := lastLine(t, buf)
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "pedido.criar", line["operation"])

	logger.OperationFinished(ctx, OperationResult{Err: errors.New("pedido ja validado"), Rejected: true})
	line = lastLine(t, buf)
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "pedido ja validado", line["reason"])

	logger.OperationFinished(ctx, OperationResult{Err: errors.New("write conflict")})
	line = lastLine(t, buf)
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "write conflict", line["error"])
}

func TestLevelFiltersOutput(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)
	logger.Info("dropped")
	assert.Zero(t, buf.Len())
}
