package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

type criarPedidoRequest struct {
	ClienteID string                  `json:"cliente_id"`
	Destino   application.EnderecoDTO `json:"destino"`
}

type statusPedidoRequest struct {
	Status     string `json:"status" binding:"required,pedido_status"`
	Local      string `json:"local"`
	Observacao string `json:"observacao"`
}

// relacaoRequest carries the target id under its kind-specific name
type relacaoRequest struct {
	PedidoIDs       []string `json:"pedido_ids"`
	TransporteID    string   `json:"transporte_id"`
	RecebimentoID   string   `json:"recebimento_id"`
	TransferenciaID string   `json:"transferencia_id"`
	ConferenciaID   string   `json:"conferencia_id"`
}

func (r relacaoRequest) id(kind domain.RelationKind) string {
	switch kind {
	case domain.RelacaoTransporte:
		return r.TransporteID
	case domain.RelacaoRecebimento:
		return r.RecebimentoID
	case domain.RelacaoTransferencia:
		return r.TransferenciaID
	default:
		return r.ConferenciaID
	}
}

func relationField(kind domain.RelationKind) string {
	return strings.ToLower(string(kind)) + "_id"
}

func missing(field string) error {
	return errors.ErrValidationWithFields("validation failed", map[string]string{field: "is required"})
}

// CriarPedido handles POST /pedidos
func (h *Handlers) CriarPedido(c *gin.Context) error {
	var req criarPedidoRequest
	if err := middleware.BindOptionalJSON(c, &req); err != nil {
		return err
	}
	pedido, err := h.svc.Pedidos.CriarPedido(c.Request.Context(), application.CriarPedidoCommand{
		ClienteID: req.ClienteID,
		Destino:   req.Destino,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, pedido)
	return nil
}

// ObterPedido handles GET /pedidos/:id
func (h *Handlers) ObterPedido(c *gin.Context) error {
	pedido, err := h.svc.Pedidos.Obter(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pedido)
	return nil
}

// RemoverPedido handles DELETE /pedidos/:id
func (h *Handlers) RemoverPedido(c *gin.Context) error {
	if err := h.svc.Pedidos.Remover(c.Request.Context(), c.Param("id")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

// AtualizarStatusPedido handles POST /pedidos/:id/status
func (h *Handlers) AtualizarStatusPedido(c *gin.Context) error {
	var req statusPedidoRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.PedidoIDKey.String(c.Param("id")), tracing.StatusKey.String(req.Status))

	pedido, err := h.svc.Pedidos.AtualizarStatus(c.Request.Context(), application.AtualizarStatusPedidoCommand{
		PedidoID:   c.Param("id"),
		Status:     domain.PedidoStatus(req.Status),
		Local:      req.Local,
		Observacao: req.Observacao,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pedido)
	return nil
}

// Rastreamento handles GET /pedidos/:id/rastreamento
func (h *Handlers) Rastreamento(c *gin.Context) error {
	eventos, err := h.svc.Pedidos.Rastreamento(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, eventos)
	return nil
}

// ExcecoesPedido handles GET /pedidos/:id/excecoes
func (h *Handlers) ExcecoesPedido(c *gin.Context) error {
	excecoes, err := h.svc.Pedidos.Excecoes(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, excecoes)
	return nil
}

// AssociarRelacao handles POST /pedidos/:id/associar-<kind>
func (h *Handlers) AssociarRelacao(kind domain.RelationKind) func(*gin.Context) error {
	return func(c *gin.Context) error {
		var req relacaoRequest
		if err := middleware.BindJSON(c, &req); err != nil {
			return err
		}
		relationID := req.id(kind)
		if relationID == "" {
			return missing(relationField(kind))
		}
		annotate(c, tracing.PedidoIDKey.String(c.Param("id")), tracing.RelacaoKey.String(string(kind)), tracing.EntityID(string(kind), relationID))

		pedido, err := h.svc.Pedidos.AssociarRelacao(c.Request.Context(), c.Param("id"), kind, relationID)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, pedido)
		return nil
	}
}

// RemoverRelacao handles POST /pedidos/:id/remover-<kind>
func (h *Handlers) RemoverRelacao(kind domain.RelationKind) func(*gin.Context) error {
	return func(c *gin.Context) error {
		pedido, err := h.svc.Pedidos.RemoverRelacao(c.Request.Context(), c.Param("id"), kind)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, pedido)
		return nil
	}
}

// AssociarEmLote handles POST /pedidos/associar-<kind>
func (h *Handlers) AssociarEmLote(kind domain.RelationKind) func(*gin.Context) error {
	return func(c *gin.Context) error {
		var req relacaoRequest
		if err := middleware.BindJSON(c, &req); err != nil {
			return err
		}
		if len(req.PedidoIDs) == 0 {
			return missing("pedido_ids")
		}
		relationID := req.id(kind)
		if relationID == "" {
			return missing(relationField(kind))
		}

		pedidos, err := h.svc.Pedidos.AssociarEmLote(c.Request.Context(), req.PedidoIDs, kind, relationID)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, pedidos)
		return nil
	}
}

// RemoverEmLote handles POST /pedidos/remover-<kind>
func (h *Handlers) RemoverEmLote(kind domain.RelationKind) func(*gin.Context) error {
	return func(c *gin.Context) error {
		var req relacaoRequest
		if err := middleware.BindJSON(c, &req); err != nil {
			return err
		}
		if len(req.PedidoIDs) == 0 {
			return missing("pedido_ids")
		}

		pedidos, err := h.svc.Pedidos.RemoverEmLote(c.Request.Context(), req.PedidoIDs, kind)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, pedidos)
		return nil
	}
}
