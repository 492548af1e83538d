package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

type paradasRequest struct {
	PedidoIDs []string `json:"pedido_ids" binding:"required,min=1"`
}

type statusRotaRequest struct {
	Status string `json:"status" binding:"required,rota_status"`
}

type statusParadaRequest struct {
	Status     string `json:"status" binding:"required,parada_status"`
	Observacao string `json:"observacao"`
}

// CriarRota handles POST /rotas
func (h *Handlers) CriarRota(c *gin.Context) error {
	rota, err := h.svc.Rotas.CriarRota(c.Request.Context())
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, rota)
	return nil
}

// ObterRota handles GET /rotas/:id
func (h *Handlers) ObterRota(c *gin.Context) error {
	rota, err := h.svc.Rotas.Obter(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, rota)
	return nil
}

// RotasDisponiveis handles GET /rotas/disponiveis
func (h *Handlers) RotasDisponiveis(c *gin.Context) error {
	rotas, err := h.svc.Rotas.RotasDisponiveis(c.Request.Context())
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, rotas)
	return nil
}

// AdicionarParadas handles POST /rotas/:id/paradas
func (h *Handlers) AdicionarParadas(c *gin.Context) error {
	var req paradasRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.RotaIDKey.String(c.Param("id")))

	rota, err := h.svc.Rotas.AdicionarParadasRota(c.Request.Context(), c.Param("id"), req.PedidoIDs)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, rota)
	return nil
}

// AtualizarStatusRota handles POST /rotas/:id/atualizar-status
func (h *Handlers) AtualizarStatusRota(c *gin.Context) error {
	var req statusRotaRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	rota, err := h.svc.Rotas.AtualizarStatusRota(c.Request.Context(), c.Param("id"), domain.RotaStatus(req.Status))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, rota)
	return nil
}

// OtimizarRota handles POST /rotas/:id/otimizar
func (h *Handlers) OtimizarRota(c *gin.Context) error {
	rota, err := h.svc.Rotas.OtimizarRota(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, rota)
	return nil
}

// AtualizarStatusParada handles POST /rotas/:id/paradas/:paradaId/atualizar-status
func (h *Handlers) AtualizarStatusParada(c *gin.Context) error {
	var req statusParadaRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.RotaIDKey.String(c.Param("id")), tracing.ParadaIDKey.String(c.Param("paradaId")))

	rota, err := h.svc.Rotas.AtualizarStatusParada(c.Request.Context(), application.AtualizarStatusParadaCommand{
		RotaID:     c.Param("id"),
		ParadaID:   c.Param("paradaId"),
		Status:     domain.ParadaStatus(req.Status),
		Observacao: req.Observacao,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, rota)
	return nil
}
