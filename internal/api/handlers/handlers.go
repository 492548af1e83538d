// Package handlers exposes the application services over HTTP
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

// Services bundles the application services the handlers call
type Services struct {
	Pedidos        *application.PedidoService
	Conferencias   *application.ConferenciaService
	Transportes    *application.TransporteService
	Rotas          *application.RotaService
	Separacoes     *application.SeparacaoService
	Excecoes       *application.ExcecaoService
	Recebimentos   *application.RecebimentoService
	Transferencias *application.TransferenciaService
}

// Handlers serves the /api/v1 surface
type Handlers struct {
	svc Services
}

// New creates Handlers and registers the request enums with the validator
func New(svc Services) *Handlers {
	registerEnums()
	middleware.InitValidator()
	return &Handlers{svc: svc}
}

var relationKinds = []domain.RelationKind{
	domain.RelacaoTransporte,
	domain.RelacaoRecebimento,
	domain.RelacaoTransferencia,
	domain.RelacaoConferencia,
}

func registerEnums() {
	middleware.RegisterEnum("tipo_operacao", domain.TipoInbound, domain.TipoOutbound)
	middleware.RegisterEnum("pedido_status", domain.PedidoStatuses()...)
	middleware.RegisterEnum("transporte_status",
		domain.TransporteCriado, domain.TransporteEmTransporte, domain.TransporteRecebido,
		domain.TransporteEntregue, domain.TransporteCancelado)
	middleware.RegisterEnum("rota_status",
		domain.RotaCriada, domain.RotaEmAndamento, domain.RotaFinalizada, domain.RotaCancelada)
	middleware.RegisterEnum("parada_status",
		domain.ParadaPendente, domain.ParadaEmAndamento, domain.ParadaEntregue,
		domain.ParadaFalha, domain.ParadaCancelada)
}

// RegisterRoutes registers every route on the /api/v1 group
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	pedidos := router.Group("/pedidos")
	{
		pedidos.POST("", middleware.WrapHandler(h.CriarPedido))
		pedidos.GET("/:id", middleware.WrapHandler(h.ObterPedido))
		pedidos.DELETE("/:id", middleware.WrapHandler(h.RemoverPedido))
		pedidos.POST("/:id/status", middleware.WrapHandler(h.AtualizarStatusPedido))
		pedidos.GET("/:id/rastreamento", middleware.WrapHandler(h.Rastreamento))
		pedidos.GET("/:id/excecoes", middleware.WrapHandler(h.ExcecoesPedido))
		for _, kind := range relationKinds {
			slug := strings.ToLower(string(kind))
			pedidos.POST("/:id/associar-"+slug, middleware.WrapHandler(h.AssociarRelacao(kind)))
			pedidos.POST("/:id/remover-"+slug, middleware.WrapHandler(h.RemoverRelacao(kind)))
			pedidos.POST("/associar-"+slug, middleware.WrapHandler(h.AssociarEmLote(kind)))
			pedidos.POST("/remover-"+slug, middleware.WrapHandler(h.RemoverEmLote(kind)))
		}
	}

	conferencias := router.Group("/conferencias")
	{
		conferencias.POST("", middleware.WrapHandler(h.CriarConferencia))
		conferencias.GET("/:id", middleware.WrapHandler(h.ObterConferencia))
		conferencias.POST("/:id/concluir", middleware.WrapHandler(h.ConcluirConferencia))
		conferencias.POST("/:id/pedido/:pedidoId/validar", middleware.WrapHandler(h.ValidarPedido))
		conferencias.POST("/:id/pedido/:pedidoId/invalidar", middleware.WrapHandler(h.InvalidarPedido))
		conferencias.GET("/:id/pedidos-validados", middleware.WrapHandler(h.PedidosValidados))
	}

	transportes := router.Group("/transportes")
	{
		transportes.POST("", middleware.WrapHandler(h.CriarTransporte))
		transportes.GET("/:id", middleware.WrapHandler(h.ObterTransporte))
		transportes.POST("/:id/atualizar-status", middleware.WrapHandler(h.AtualizarStatusTransporte))
		transportes.POST("/:id/iniciar", middleware.WrapHandler(h.IniciarTransporte))
		transportes.POST("/:id/atribuir-motorista", middleware.WrapHandler(h.AtribuirMotorista))
		transportes.POST("/:id/atribuir-rota", middleware.WrapHandler(h.AtribuirRota))
		transportes.POST("/:id/criar-rota", middleware.WrapHandler(h.CriarRotaTransporte))
		transportes.POST("/:id/associar-conferencia", middleware.WrapHandler(h.AssociarConferencia))
	}
	router.POST("/motoristas", middleware.WrapHandler(h.CriarMotorista))

	rotas := router.Group("/rotas")
	{
		rotas.POST("", middleware.WrapHandler(h.CriarRota))
		rotas.GET("/disponiveis", middleware.WrapHandler(h.RotasDisponiveis))
		rotas.GET("/:id", middleware.WrapHandler(h.ObterRota))
		rotas.POST("/:id/paradas", middleware.WrapHandler(h.AdicionarParadas))
		rotas.POST("/:id/atualizar-status", middleware.WrapHandler(h.AtualizarStatusRota))
		rotas.POST("/:id/otimizar", middleware.WrapHandler(h.OtimizarRota))
		rotas.POST("/:id/paradas/:paradaId/atualizar-status", middleware.WrapHandler(h.AtualizarStatusParada))
	}

	router.POST("/separacoes", middleware.WrapHandler(h.CriarSeparacao))
	router.POST("/separacoes/:id/separar", middleware.WrapHandler(h.MarcarComoSeparado))
	router.POST("/coletas/:id/coletar", middleware.WrapHandler(h.MarcarComoColetado))

	excecoes := router.Group("/excecoes")
	{
		excecoes.GET("/:id", middleware.WrapHandler(h.ObterExcecao))
		excecoes.POST("/:id/analisar", middleware.WrapHandler(h.AnalisarExcecao))
		excecoes.POST("/:id/resolver", middleware.WrapHandler(h.ResolverExcecao))
		excecoes.POST("/:id/cancelar", middleware.WrapHandler(h.CancelarExcecao))
	}

	router.POST("/recebimentos", middleware.WrapHandler(h.CriarRecebimento))
	router.GET("/recebimentos/:id", middleware.WrapHandler(h.ObterRecebimento))
	router.POST("/recebimentos/:id/concluir", middleware.WrapHandler(h.ConcluirRecebimento))
	router.POST("/transferencias", middleware.WrapHandler(h.CriarTransferencia))
}

// annotate tags the request span with the ids a handler works on
func annotate(c *gin.Context, attrs ...attribute.KeyValue) {
	tracing.Annotate(c.Request.Context(), attrs...)
}
