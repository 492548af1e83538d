package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

// CriarSeparacao handles POST /separacoes
func (h *Handlers) CriarSeparacao(c *gin.Context) error {
	var req struct {
		PedidoID string `json:"pedido_id" binding:"required"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	separacao, err := h.svc.Separacoes.CriarSeparacao(c.Request.Context(), req.PedidoID)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, separacao)
	return nil
}

// MarcarComoSeparado handles POST /separacoes/:id/separar
func (h *Handlers) MarcarComoSeparado(c *gin.Context) error {
	var req struct {
		Responsavel string `json:"responsavel"`
	}
	if err := middleware.BindOptionalJSON(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Separacoes.MarcarComoSeparado(c.Request.Context(), c.Param("id"), req.Responsavel)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// MarcarComoColetado handles POST /coletas/:id/coletar
func (h *Handlers) MarcarComoColetado(c *gin.Context) error {
	res, err := h.svc.Separacoes.MarcarComoColetado(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// ObterExcecao handles GET /excecoes/:id
func (h *Handlers) ObterExcecao(c *gin.Context) error {
	excecao, err := h.svc.Excecoes.Obter(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, excecao)
	return nil
}

// AnalisarExcecao handles POST /excecoes/:id/analisar
func (h *Handlers) AnalisarExcecao(c *gin.Context) error {
	var req struct {
		Responsavel string `json:"responsavel" binding:"required"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	excecao, err := h.svc.Excecoes.IniciarAnalise(c.Request.Context(), c.Param("id"), req.Responsavel)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, excecao)
	return nil
}

// ResolverExcecao handles POST /excecoes/:id/resolver
func (h *Handlers) ResolverExcecao(c *gin.Context) error {
	var req struct {
		Resolucao string `json:"resolucao" binding:"required"`
		Usuario   string `json:"usuario"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	excecao, err := h.svc.Excecoes.Resolver(c.Request.Context(), c.Param("id"), req.Resolucao, req.Usuario)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, excecao)
	return nil
}

// CancelarExcecao handles POST /excecoes/:id/cancelar
func (h *Handlers) CancelarExcecao(c *gin.Context) error {
	var req struct {
		Motivo  string `json:"motivo" binding:"required"`
		Usuario string `json:"usuario"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	excecao, err := h.svc.Excecoes.Cancelar(c.Request.Context(), c.Param("id"), req.Motivo, req.Usuario)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, excecao)
	return nil
}

// CriarRecebimento handles POST /recebimentos
func (h *Handlers) CriarRecebimento(c *gin.Context) error {
	var req struct {
		Fornecedor string `json:"fornecedor"`
		Origem     string `json:"origem"`
	}
	if err := middleware.BindOptionalJSON(c, &req); err != nil {
		return err
	}
	recebimento, err := h.svc.Recebimentos.CriarRecebimento(c.Request.Context(), application.CriarRecebimentoCommand{
		Fornecedor: req.Fornecedor,
		Origem:     req.Origem,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, recebimento)
	return nil
}

// ObterRecebimento handles GET /recebimentos/:id
func (h *Handlers) ObterRecebimento(c *gin.Context) error {
	recebimento, err := h.svc.Recebimentos.Obter(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, recebimento)
	return nil
}

// ConcluirRecebimento handles POST /recebimentos/:id/concluir
func (h *Handlers) ConcluirRecebimento(c *gin.Context) error {
	var req struct {
		Usuario string `json:"usuario"`
	}
	if err := middleware.BindOptionalJSON(c, &req); err != nil {
		return err
	}
	annotate(c, tracing.RecebimentoIDKey.String(c.Param("id")))

	res, err := h.svc.Recebimentos.ConcluirRecebimento(c.Request.Context(), c.Param("id"), req.Usuario)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, res)
	return nil
}

// CriarTransferencia handles POST /transferencias
func (h *Handlers) CriarTransferencia(c *gin.Context) error {
	var req struct {
		Origem     string `json:"origem" binding:"required"`
		Destino    string `json:"destino" binding:"required"`
		Observacao string `json:"observacao"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	transferencia, err := h.svc.Transferencias.CriarTransferencia(c.Request.Context(), application.CriarTransferenciaCommand{
		Origem:     req.Origem,
		Destino:    req.Destino,
		Observacao: req.Observacao,
	})
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, transferencia)
	return nil
}
