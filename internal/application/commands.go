package application

import "github.com/wms-platform/fulfillment-service/internal/domain"

// CriarPedidoCommand registers a new order
type CriarPedidoCommand struct {
	ClienteID string
	Destino   EnderecoDTO
}

// AtualizarStatusPedidoCommand sets an order status manually
type AtualizarStatusPedidoCommand struct {
	PedidoID   string
	Status     domain.PedidoStatus
	Local      string
	Observacao string
}

// CriarConferenciaCommand opens a conference. OUTBOUND conferences need a
// shipment.
type CriarConferenciaCommand struct {
	Tipo         domain.TipoOperacao
	TransporteID string
}

// ConclusaoExtra carries the optional data sent when closing a conference
type ConclusaoExtra struct {
	Observacoes    string
	Localizacao    string
	GerarSeparacao bool
	Usuario        string
}

// CriarTransporteCommand creates a shipment
type CriarTransporteCommand struct {
	Tipo        domain.TipoOperacao
	Origem      string
	Destino     string
	MotoristaID string
}

// CriarMotoristaCommand registers a driver
type CriarMotoristaCommand struct {
	Nome string
	CNH  string
}

// AtualizarStatusParadaCommand moves one route stop
type AtualizarStatusParadaCommand struct {
	RotaID     string
	ParadaID   string
	Status     domain.ParadaStatus
	Observacao string
}

// CriarRecebimentoCommand opens a receiving manifest
type CriarRecebimentoCommand struct {
	Fornecedor string
	Origem     string
}

// CriarTransferenciaCommand creates an inter-hub transfer
type CriarTransferenciaCommand struct {
	Origem     string
	Destino    string
	Observacao string
}
