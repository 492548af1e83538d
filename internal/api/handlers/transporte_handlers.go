package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

type criarTransporteRequest struct {
	Tipo        string `json:"tipo" binding:"required,tipo_operacao"`
	Origem      string `json:"origem"`
	Destino     string `json:"destino"`
	MotoristaID string `json:"motorista_id"`
}

type statusTransporteRequest struct {
	StatusTransporte string `json:"status_transporte" binding:"required,transporte_status"`
}

type criarMotoristaRequest struct {
	Nome string `json:"nome" binding:"required"`
	CNH  string `json:"cnh" binding:"required"`
}

// CriarTransporte handles POST /transportes
func (h *Handlers) CriarTransporte(c *gin.Context) error {
	var req criarTransporteRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	transporte, err := h.svc.Transportes.CriarTransporte(c.Request.Context(), application.CriarTransporteCommand{
		Tipo:        domain.TipoOperacao(req.Tipo),
		Origem:      req.Origem,
		Destino:     req.Destino,
		MotoristaID: req.MotoristaID,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, transporte)
	return nil
}

// ObterTransporte handles GET /transportes/:id
func (h *Handlers) ObterTransporte(c *gin.Context) error {
	transporte, err := h.svc.Transportes.Obter(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, transporte)
	return nil
}

// AtualizarStatusTransporte handles POST /transportes/:id/atualizar-status
func (h *Handlers) AtualizarStatusTransporte(c *gin.Context) error {
	var req statusTransporteRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.TransporteIDKey.String(c.Param("id")), tracing.StatusKey.String(req.StatusTransporte))

	res, err := h.svc.Transportes.AtualizarStatus(c.Request.Context(), c.Param("id"), domain.TransporteStatus(req.StatusTransporte))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// IniciarTransporte handles POST /transportes/:id/iniciar
func (h *Handlers) IniciarTransporte(c *gin.Context) error {
	res, err := h.svc.Transportes.IniciarTransporte(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// AtribuirMotorista handles POST /transportes/:id/atribuir-motorista
func (h *Handlers) AtribuirMotorista(c *gin.Context) error {
	var req struct {
		MotoristaID string `json:"motorista_id" binding:"required"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	transporte, err := h.svc.Transportes.AtribuirMotorista(c.Request.Context(), c.Param("id"), req.MotoristaID)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, transporte)
	return nil
}

// AtribuirRota handles POST /transportes/:id/atribuir-rota
func (h *Handlers) AtribuirRota(c *gin.Context) error {
	var req struct {
		RotaID string `json:"rota_id" binding:"required"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	transporte, err := h.svc.Transportes.AtribuirRota(c.Request.Context(), c.Param("id"), req.RotaID)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, transporte)
	return nil
}

// CriarRotaTransporte handles POST /transportes/:id/criar-rota
func (h *Handlers) CriarRotaTransporte(c *gin.Context) error {
	rota, err := h.svc.Transportes.CriarRota(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, rota)
	return nil
}

// AssociarConferencia handles POST /transportes/:id/associar-conferencia
func (h *Handlers) AssociarConferencia(c *gin.Context) error {
	var req struct {
		ConferenciaID string `json:"conferencia_id" binding:"required"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	transporte, err := h.svc.Transportes.AssociarConferencia(c.Request.Context(), c.Param("id"), req.ConferenciaID)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, transporte)
	return nil
}

// CriarMotorista handles POST /motoristas
func (h *Handlers) CriarMotorista(c *gin.Context) error {
	var req criarMotoristaRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	motorista, err := h.svc.Transportes.CriarMotorista(c.Request.Context(), application.CriarMotoristaCommand{
		Nome: req.Nome,
		CNH:  req.CNH,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, motorista)
	return nil
}
