package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

type criarConferenciaRequest struct {
	Tipo         string `json:"tipo" binding:"required,tipo_operacao"`
	TransporteID string `json:"transporte_id"`
}

type concluirConferenciaRequest struct {
	Observacoes    string `json:"observacoes"`
	Localizacao    string `json:"localizacao"`
	GerarSeparacao bool   `json:"gerar_separacao"`
	Usuario        string `json:"usuario"`
}

type invalidarPedidoRequest struct {
	Motivo string `json:"motivo"`
}

// CriarConferencia handles POST /conferencias
func (h *Handlers) CriarConferencia(c *gin.Context) error {
	var req criarConferenciaRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	conferencia, err := h.svc.Conferencias.CriarConferencia(c.Request.Context(), application.CriarConferenciaCommand{
		Tipo:         domain.TipoOperacao(req.Tipo),
		TransporteID: req.TransporteID,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, conferencia)
	return nil
}

// ObterConferencia handles GET /conferencias/:id
func (h *Handlers) ObterConferencia(c *gin.Context) error {
	detalhe, err := h.svc.Conferencias.Obter(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, detalhe)
	return nil
}

// ValidarPedido handles POST /conferencias/:id/pedido/:pedidoId/validar
func (h *Handlers) ValidarPedido(c *gin.Context) error {
	annotate(c, tracing.ConferenciaIDKey.String(c.Param("id")), tracing.PedidoIDKey.String(c.Param("pedidoId")))
	res, err := h.svc.Conferencias.ValidarPedido(c.Request.Context(), c.Param("id"), c.Param("pedidoId"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// InvalidarPedido handles POST /conferencias/:id/pedido/:pedidoId/invalidar
func (h *Handlers) InvalidarPedido(c *gin.Context) error {
	var req invalidarPedidoRequest
	if err := middleware.BindOptionalJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.ConferenciaIDKey.String(c.Param("id")), tracing.PedidoIDKey.String(c.Param("pedidoId")))

	res, err := h.svc.Conferencias.InvalidarPedido(c.Request.Context(), c.Param("id"), c.Param("pedidoId"), req.Motivo)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// ConcluirConferencia handles POST /conferencias/:id/concluir
func (h *Handlers) ConcluirConferencia(c *gin.Context) error {
	var req concluirConferenciaRequest
	if err := middleware.BindOptionalJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.ConferenciaIDKey.String(c.Param("id")))

	detalhe, err := h.svc.Conferencias.ConcluirConferencia(c.Request.Context(), c.Param("id"), application.ConclusaoExtra{
		Observacoes:    req.Observacoes,
		Localizacao:    req.Localizacao,
		GerarSeparacao: req.GerarSeparacao,
		Usuario:        req.Usuario,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, detalhe)
	return nil
}

// PedidosValidados handles GET /conferencias/:id/pedidos-validados
func (h *Handlers) PedidosValidados(c *gin.Context) error {
	pedidos, err := h.svc.Conferencias.PedidosValidados(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pedidos)
	return nil
}
