package cloudevents

import (
	"time"
)

// Event types emitted by the fulfillment service
const (
	PedidoCreated       = "wms.fulfillment.pedido.created"
	PedidoStatusChanged = "wms.fulfillment.pedido.status-changed"
	PedidoLinked        = "wms.fulfillment.pedido.linked"
	PedidoUnlinked      = "wms.fulfillment.pedido.unlinked"
	PedidoRemoved       = "wms.fulfillment.pedido.removed"

	ConferenciaCreated           = "wms.fulfillment.conferencia.created"
	ConferenciaPedidoValidated   = "wms.fulfillment.conferencia.pedido-validated"
	ConferenciaPedidoInvalidated = "wms.fulfillment.conferencia.pedido-invalidated"
	ConferenciaCompleted         = "wms.fulfillment.conferencia.completed"

	TransporteCreated          = "wms.fulfillment.transporte.created"
	TransporteStatusChanged    = "wms.fulfillment.transporte.status-changed"
	TransporteDriverAssigned   = "wms.fulfillment.transporte.driver-assigned"
	TransporteRouteAssigned    = "wms.fulfillment.transporte.route-assigned"
	TransporteConferenceLinked = "wms.fulfillment.transporte.conference-linked"

	RotaCreated         = "wms.fulfillment.rota.created"
	RotaStatusChanged   = "wms.fulfillment.rota.status-changed"
	RotaOptimized       = "wms.fulfillment.rota.optimized"
	ParadaAdded         = "wms.fulfillment.rota.parada-added"
	ParadaStatusChanged = "wms.fulfillment.parada.status-changed"

	SeparacaoCreated   = "wms.fulfillment.separacao.created"
	SeparacaoCompleted = "wms.fulfillment.separacao.completed"
	ColetaCreated      = "wms.fulfillment.coleta.created"
	ColetaCompleted    = "wms.fulfillment.coleta.completed"

	ExcecaoRecorded      = "wms.fulfillment.excecao.recorded"
	ExcecaoStatusChanged = "wms.fulfillment.excecao.status-changed"

	RecebimentoCreated   = "wms.fulfillment.recebimento.created"
	RecebimentoCompleted = "wms.fulfillment.recebimento.completed"
	TransferenciaCreated = "wms.fulfillment.transferencia.created"
)

// SourceFulfillment is the CloudEvents source of this service
const SourceFulfillment = "/wms/fulfillment-service"

// TopicPrefix prefixes every Kafka topic; the aggregate type completes it
const TopicPrefix = "wms.fulfillment."

// TopicFor returns the Kafka topic for an aggregate type
func TopicFor(aggregateType string) string {
	return TopicPrefix + aggregateType
}

// WMSCloudEvent represents a CloudEvents v1.0 compliant event
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	RequestID     string `json:"wmsrequestid,omitempty"`
}
