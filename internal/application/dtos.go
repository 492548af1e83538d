package application

import "time"

// EnderecoDTO represents a delivery address
type EnderecoDTO struct {
	Logradouro string  `json:"logradouro,omitempty"`
	Bairro     string  `json:"bairro,omitempty"`
	Cidade     string  `json:"cidade,omitempty"`
	UF         string  `json:"uf,omitempty"`
	CEP        string  `json:"cep,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}

// PedidoDTO represents an order
type PedidoDTO struct {
	ID              string      `json:"id"`
	Codigo          string      `json:"codigo"`
	ClienteID       string      `json:"cliente_id,omitempty"`
	Destino         EnderecoDTO `json:"destino"`
	Status          string      `json:"status"`
	RecebimentoID   *string     `json:"recebimento_id"`
	TransferenciaID *string     `json:"transferencia_id"`
	ConferenciaID   *string     `json:"conferencia_id"`
	TransporteID    *string     `json:"transporte_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// EventoRastreamentoDTO represents one tracking history row
type EventoRastreamentoDTO struct {
	ID         string    `json:"id"`
	PedidoID   string    `json:"pedido_id"`
	Status     string    `json:"status"`
	Evento     string    `json:"evento"`
	Local      string    `json:"local,omitempty"`
	Observacao string    `json:"observacao,omitempty"`
	Data       time.Time `json:"data"`
}

// ConferenciaDTO represents a conference and its counters
type ConferenciaDTO struct {
	ID                  string     `json:"id"`
	Codigo              string     `json:"codigo"`
	Tipo                string     `json:"tipo"`
	Status              string     `json:"status"`
	TransporteID        *string    `json:"transporte_id"`
	RecebimentoID       *string    `json:"recebimento_id"`
	TotalPedidos        int        `json:"total_pedidos"`
	PedidosEscaneados   int        `json:"pedidos_escaneados"`
	PercentualValidacao float64    `json:"percentual_validacao"`
	PossuiDivergencia   bool       `json:"possui_divergencia"`
	Observacoes         string     `json:"observacoes,omitempty"`
	ConcluidoPor        string     `json:"concluido_por,omitempty"`
	DataInicio          *time.Time `json:"data_inicio,omitempty"`
	DataConclusao       *time.Time `json:"data_conclusao,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ConferenciaDetalheDTO is a conference with its nested orders, shipment and
// the exceptions filed against it.
type ConferenciaDetalheDTO struct {
	ConferenciaDTO
	Pedidos    []PedidoDTO    `json:"pedidos"`
	Transporte *TransporteDTO `json:"transporte,omitempty"`
	Excecoes   []ExcecaoDTO   `json:"excecoes"`
}

// ValidacaoResultadoDTO is an order after a conference scan, with the
// refreshed conference counters.
type ValidacaoResultadoDTO struct {
	Pedido      PedidoDTO      `json:"pedido"`
	Conferencia ConferenciaDTO `json:"conferencia"`
}

// TransporteDTO represents a shipment
type TransporteDTO struct {
	ID            string     `json:"id"`
	Codigo        string     `json:"codigo"`
	Tipo          string     `json:"tipo"`
	Status        string     `json:"status_transporte"`
	Origem        string     `json:"origem,omitempty"`
	Destino       string     `json:"destino,omitempty"`
	RotaID        *string    `json:"rota_id"`
	ConferenciaID *string    `json:"conferencia_id"`
	MotoristaID   *string    `json:"motorista_id"`
	DataInicio    *time.Time `json:"data_inicio,omitempty"`
	DataConclusao *time.Time `json:"data_conclusao,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TransporteResultadoDTO is a shipment after a transition, with the orders
// the cascade touched and the exceptions it filed.
type TransporteResultadoDTO struct {
	Transporte      TransporteDTO `json:"transporte"`
	Rota            *RotaDTO      `json:"rota,omitempty"`
	PedidosAfetados []PedidoDTO   `json:"pedidos_afetados"`
	ExcecoesGeradas []ExcecaoDTO  `json:"excecoes_geradas"`
	TotalAfetados   int           `json:"total_afetados"`
}

// MotoristaDTO represents a driver
type MotoristaDTO struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	CNH       string    `json:"cnh,omitempty"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

// ParadaDTO represents a route stop
type ParadaDTO struct {
	ID           string      `json:"id"`
	PedidoID     *string     `json:"pedido_id"`
	OrdemEntrega int         `json:"ordem_entrega"`
	Destino      EnderecoDTO `json:"destino"`
	Status       string      `json:"status"`
	DataEntrega  *time.Time  `json:"data_entrega,omitempty"`
	Observacao   string      `json:"observacao,omitempty"`
}

// RotaDTO represents a route with its ordered stops
type RotaDTO struct {
	ID               string      `json:"id"`
	Codigo           string      `json:"codigo"`
	Status           string      `json:"status"`
	TransporteID     *string     `json:"transporte_id"`
	Paradas          []ParadaDTO `json:"paradas"`
	DistanciaTotalKm float64     `json:"distancia_total_km"`
	DataInicio       *time.Time  `json:"data_inicio,omitempty"`
	DataFim          *time.Time  `json:"data_fim,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// SeparacaoDTO represents a picking task
type SeparacaoDTO struct {
	ID            string     `json:"id"`
	PedidoID      string     `json:"pedido_id"`
	Status        string     `json:"status"`
	Responsavel   string     `json:"responsavel,omitempty"`
	DataSeparacao *time.Time `json:"data_separacao,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ColetaDTO represents a carrier pickup
type ColetaDTO struct {
	ID          string     `json:"id"`
	PedidoID    string     `json:"pedido_id"`
	SeparacaoID string     `json:"separacao_id"`
	Status      string     `json:"status"`
	DataColeta  *time.Time `json:"data_coleta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SeparacaoResultadoDTO is a completed picking task with the pickup it created
type SeparacaoResultadoDTO struct {
	Separacao SeparacaoDTO `json:"separacao"`
	Coleta    ColetaDTO    `json:"coleta"`
	Pedido    PedidoDTO    `json:"pedido"`
}

// ColetaResultadoDTO is a completed pickup with its order
type ColetaResultadoDTO struct {
	Coleta ColetaDTO `json:"coleta"`
	Pedido PedidoDTO `json:"pedido"`
}

// HistoricoExcecaoDTO is one audit entry of an exception
type HistoricoExcecaoDTO struct {
	Data           time.Time `json:"data"`
	Acao           string    `json:"acao"`
	Usuario        string    `json:"usuario,omitempty"`
	Descricao      string    `json:"descricao,omitempty"`
	StatusAnterior string    `json:"status_anterior,omitempty"`
	StatusNovo     string    `json:"status_novo"`
}

// ExcecaoDTO represents an operational exception
type ExcecaoDTO struct {
	ID                string                `json:"id"`
	Numero            string                `json:"numero"`
	Tipo              string                `json:"tipo"`
	Severidade        string                `json:"severidade"`
	Status            string                `json:"status"`
	Titulo            string                `json:"titulo"`
	Descricao         string                `json:"descricao,omitempty"`
	ImpactoFinanceiro string                `json:"impacto_financeiro"`
	Quantidade        int                   `json:"quantidade"`
	PedidoID          *string               `json:"pedido_id"`
	TransporteID      *string               `json:"transporte_id"`
	RecebimentoID     *string               `json:"recebimento_id"`
	ConferenciaID     *string               `json:"conferencia_id"`
	Responsavel       string                `json:"responsavel,omitempty"`
	Resolucao         string                `json:"resolucao,omitempty"`
	Historico         []HistoricoExcecaoDTO `json:"historico"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// RecebimentoDTO represents a receiving manifest
type RecebimentoDTO struct {
	ID            string     `json:"id"`
	Codigo        string     `json:"codigo"`
	Fornecedor    string     `json:"fornecedor,omitempty"`
	Origem        string     `json:"origem,omitempty"`
	Status        string     `json:"status"`
	TransporteID  *string    `json:"transporte_id"`
	ConferenciaID *string    `json:"conferencia_id"`
	DataConclusao *time.Time `json:"data_conclusao,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RecebimentoResultadoDTO is a completed manifest with the records it produced
type RecebimentoResultadoDTO struct {
	Recebimento RecebimentoDTO `json:"recebimento"`
	Transporte  TransporteDTO  `json:"transporte"`
	Conferencia ConferenciaDTO `json:"conferencia"`
	Pedidos     []PedidoDTO    `json:"pedidos"`
}

// TransferenciaDTO represents an inter-hub transfer
type TransferenciaDTO struct {
	ID         string    `json:"id"`
	Codigo     string    `json:"codigo"`
	Origem     string    `json:"origem"`
	Destino    string    `json:"destino"`
	Status     string    `json:"status"`
	Observacao string    `json:"observacao,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
