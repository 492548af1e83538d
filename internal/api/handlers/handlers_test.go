package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/memory"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	logger := logging.NewNop()
	observer := application.NewObserver(logger, nil)
	ledger := application.NewLedger()
	routes := application.NewRouteStops()
	recorder := application.NewRecorder(application.DefaultUnitPenalty)

	h := New(Services{
		Pedidos:        application.NewPedidoService(store, ledger, observer),
		Conferencias:   application.NewConferenciaService(store, ledger, recorder, routes, observer),
		Transportes:    application.NewTransporteService(store, ledger, recorder, routes, observer),
		Rotas:          application.NewRotaService(store, ledger, routes, observer),
		Separacoes:     application.NewSeparacaoService(store, ledger, observer),
		Excecoes:       application.NewExcecaoService(store, observer),
		Recebimentos:   application.NewRecebimentoService(store, ledger, nil, time.Second, observer, logger),
		Transferencias: application.NewTransferenciaService(store, observer),
	})

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func criarPedido(t *testing.T, router *gin.Engine) application.PedidoDTO {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/pedidos", map[string]interface{}{
		"cliente_id": "CLI-1",
		"destino":    map[string]string{"uf": "SP", "cidade": "Campinas"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[application.PedidoDTO](t, w)
}

func TestPedidoHandlers(t *testing.T) {
	router := setupRouter(t)

	t.Run("create and get", func(t *testing.T) {
		pedido := criarPedido(t, router)
		assert.Equal(t, "PENDENTE", pedido.Status)

		w := do(t, router, http.MethodGet, "/api/v1/pedidos/"+pedido.ID, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pedido.Codigo, decode[application.PedidoDTO](t, w).Codigo)
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/pedidos/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode[middleware.APIErrorResponse](t, w)
		assert.Equal(t, "RESOURCE_NOT_FOUND", body.Code)
	})

	t.Run("status outside the enum is rejected", func(t *testing.T) {
		pedido := criarPedido(t, router)
		w := do(t, router, http.MethodPost, "/api/v1/pedidos/"+pedido.ID+"/status", map[string]string{"status": "PERDIDO"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[middleware.APIErrorResponse](t, w)
		assert.Contains(t, body.Details, "status")
	})

	t.Run("invalid transition is 422", func(t *testing.T) {
		pedido := criarPedido(t, router)
		w := do(t, router, http.MethodPost, "/api/v1/pedidos/"+pedido.ID+"/status", map[string]string{"status": "ENTREGUE"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("delete then get is 404", func(t *testing.T) {
		pedido := criarPedido(t, router)
		w := do(t, router, http.MethodDelete, "/api/v1/pedidos/"+pedido.ID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, router, http.MethodGet, "/api/v1/pedidos/"+pedido.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bulk link requires order ids", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/pedidos/associar-transporte", map[string]string{"transporte_id": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[middleware.APIErrorResponse](t, w).Details, "pedido_ids")
	})

	t.Run("link requires the kind specific id", func(t *testing.T) {
		pedido := criarPedido(t, router)
		w := do(t, router, http.MethodPost, "/api/v1/pedidos/"+pedido.ID+"/associar-recebimento", map[string]string{"transporte_id": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[middleware.APIErrorResponse](t, w).Details, "recebimento_id")
	})
}

func TestConferenciaHandlers(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/conferencias", map[string]string{"tipo": "INBOUND"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conf := decode[application.ConferenciaDTO](t, w)

	a, b := criarPedido(t, router), criarPedido(t, router)
	w = do(t, router, http.MethodPost, "/api/v1/pedidos/associar-conferencia", map[string]interface{}{
		"pedido_ids":     []string{a.ID, b.ID},
		"conferencia_id": conf.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]application.PedidoDTO](t, w), 2)

	validar := "/api/v1/conferencias/" + conf.ID + "/pedido/" + a.ID + "/validar"
	w = do(t, router, http.MethodPost, validar, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[application.ValidacaoResultadoDTO](t, w)
	assert.Equal(t, "VALIDADO", res.Pedido.Status)
	assert.Equal(t, 1, res.Conferencia.PedidosEscaneados)

	t.Run("second validation conflicts", func(t *testing.T) {
		w := do(t, router, http.MethodPost, validar, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validated list", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/conferencias/"+conf.ID+"/pedidos-validados", nil)
		require.Equal(t, http.StatusOK, w.Code)
		pedidos := decode[[]application.PedidoDTO](t, w)
		require.Len(t, pedidos, 1)
		assert.Equal(t, a.ID, pedidos[0].ID)
	})

	t.Run("unknown tipo is rejected", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/conferencias", map[string]string{"tipo": "CROSSDOCK"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransporteHandlers(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/transportes", map[string]string{
		"tipo":    "OUTBOUND",
		"origem":  "CD Campinas",
		"destino": "Sao Paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	transporte := decode[application.TransporteDTO](t, w)
	assert.Equal(t, "CRIADO", transporte.Status)

	t.Run("status body uses status_transporte", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/transportes/"+transporte.ID+"/atualizar-status", map[string]string{"status": "ENTREGUE"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("driver must exist", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/transportes/"+transporte.ID+"/atribuir-motorista", map[string]string{"motorista_id": "ghost"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("assign created driver", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/motoristas", map[string]string{"nome": "Ana", "cnh": "123"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		motorista := decode[application.MotoristaDTO](t, w)

		w = do(t, router, http.MethodPost, "/api/v1/transportes/"+transporte.ID+"/atribuir-motorista", map[string]string{"motorista_id": motorista.ID})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

func TestRotaHandlers(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/rotas", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rota := decode[application.RotaDTO](t, w)

	w = do(t, router, http.MethodGet, "/api/v1/rotas/disponiveis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]application.RotaDTO](t, w))

	t.Run("stops need order ids", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/rotas/"+rota.ID+"/paradas", map[string]interface{}{"pedido_ids": []string{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stops are added", func(t *testing.T) {
		pedido := criarPedido(t, router)
		w := do(t, router, http.MethodPost, "/api/v1/rotas/"+rota.ID+"/paradas", map[string]interface{}{"pedido_ids": []string{pedido.ID}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, decode[application.RotaDTO](t, w).Paradas, 1)
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/rotas/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestExcecaoHandlers_NotFound(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/excecoes/missing/analisar", map[string]string{"responsavel": "ana"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/excecoes/missing/resolver", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
