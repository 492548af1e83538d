package domain

import (
	"time"

	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// events is embedded by every aggregate that records domain events. The
// repository drains them into the outbox when the aggregate is saved.
type events struct {
	domainEvents []DomainEvent
}

func (e *events) addEvent(event DomainEvent) {
	e.domainEvents = append(e.domainEvents, event)
}

// DomainEvents returns the events recorded since the last save
func (e *events) DomainEvents() []DomainEvent {
	return e.domainEvents
}

// ClearDomainEvents drops recorded events once they are persisted
func (e *events) ClearDomainEvents() {
	e.domainEvents = nil
}

// PedidoCriadoEvent is published when an order enters the pipeline
type PedidoCriadoEvent struct {
	PedidoID  string    `json:"pedidoId"`
	Codigo    string    `json:"codigo"`
	ClienteID string    `json:"clienteId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *PedidoCriadoEvent) EventType() string     { return cloudevents.PedidoCreated }
func (e *PedidoCriadoEvent) OccurredAt() time.Time { return e.CreatedAt }

// PedidoStatusAlteradoEvent is published on every accepted order status change
type PedidoStatusAlteradoEvent struct {
	PedidoID  string    `json:"pedidoId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

func (e *PedidoStatusAlteradoEvent) EventType() string     { return cloudevents.PedidoStatusChanged }
func (e *PedidoStatusAlteradoEvent) OccurredAt() time.Time { return e.ChangedAt }

// PedidoVinculadoEvent is published when an order gains a relation link
type PedidoVinculadoEvent struct {
	PedidoID  string    `json:"pedidoId"`
	Relacao   string    `json:"relacao"`
	RelacaoID string    `json:"relacaoId"`
	LinkedAt  time.Time `json:"linkedAt"`
}

func (e *PedidoVinculadoEvent) EventType() string     { return cloudevents.PedidoLinked }
func (e *PedidoVinculadoEvent) OccurredAt() time.Time { return e.LinkedAt }

// PedidoDesvinculadoEvent is published when an order loses a relation link
type PedidoDesvinculadoEvent struct {
	PedidoID   string    `json:"pedidoId"`
	Relacao    string    `json:"relacao"`
	RelacaoID  string    `json:"relacaoId"`
	UnlinkedAt time.Time `json:"unlinkedAt"`
}

func (e *PedidoDesvinculadoEvent) EventType() string     { return cloudevents.PedidoUnlinked }
func (e *PedidoDesvinculadoEvent) OccurredAt() time.Time { return e.UnlinkedAt }

// PedidoRemovidoEvent is published when an order is soft deleted
type PedidoRemovidoEvent struct {
	PedidoID  string    `json:"pedidoId"`
	RemovedAt time.Time `json:"removedAt"`
}

func (e *PedidoRemovidoEvent) EventType() string     { return cloudevents.PedidoRemoved }
func (e *PedidoRemovidoEvent) OccurredAt() time.Time { return e.RemovedAt }

// ConferenciaCriadaEvent is published when a conference is opened
type ConferenciaCriadaEvent struct {
	ConferenciaID string    `json:"conferenciaId"`
	Codigo        string    `json:"codigo"`
	Tipo          string    `json:"tipo"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (e *ConferenciaCriadaEvent) EventType() string     { return cloudevents.ConferenciaCreated }
func (e *ConferenciaCriadaEvent) OccurredAt() time.Time { return e.CreatedAt }

// PedidoValidadoEvent is published when a conference validates an order
type PedidoValidadoEvent struct {
	ConferenciaID string    `json:"conferenciaId"`
	PedidoID      string    `json:"pedidoId"`
	ValidatedAt   time.Time `json:"validatedAt"`
}

func (e *PedidoValidadoEvent) EventType() string {
	return cloudevents.ConferenciaPedidoValidated
}
func (e *PedidoValidadoEvent) OccurredAt() time.Time { return e.ValidatedAt }

// PedidoInvalidadoEvent is published when a conference rejects an order
type PedidoInvalidadoEvent struct {
	ConferenciaID string    `json:"conferenciaId"`
	PedidoID      string    `json:"pedidoId"`
	InvalidatedAt time.Time `json:"invalidatedAt"`
}

func (e *PedidoInvalidadoEvent) EventType() string {
	return cloudevents.ConferenciaPedidoInvalidated
}
func (e *PedidoInvalidadoEvent) OccurredAt() time.Time { return e.InvalidatedAt }

// ConferenciaConcluidaEvent is published when a conference completes
type ConferenciaConcluidaEvent struct {
	ConferenciaID     string    `json:"conferenciaId"`
	Tipo              string    `json:"tipo"`
	TotalPedidos      int       `json:"totalPedidos"`
	PedidosEscaneados int       `json:"pedidosEscaneados"`
	PossuiDivergencia bool      `json:"possuiDivergencia"`
	CompletedAt       time.Time `json:"completedAt"`
}

func (e *ConferenciaConcluidaEvent) EventType() string     { return cloudevents.ConferenciaCompleted }
func (e *ConferenciaConcluidaEvent) OccurredAt() time.Time { return e.CompletedAt }

// TransporteCriadoEvent is published when a shipment is created
type TransporteCriadoEvent struct {
	TransporteID string    `json:"transporteId"`
	Codigo       string    `json:"codigo"`
	Tipo         string    `json:"tipo"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *TransporteCriadoEvent) EventType() string     { return cloudevents.TransporteCreated }
func (e *TransporteCriadoEvent) OccurredAt() time.Time { return e.CreatedAt }

// TransporteStatusAlteradoEvent is published on every shipment transition
type TransporteStatusAlteradoEvent struct {
	TransporteID string    `json:"transporteId"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	ChangedAt    time.Time `json:"changedAt"`
}

func (e *TransporteStatusAlteradoEvent) EventType() string {
	return cloudevents.TransporteStatusChanged
}
func (e *TransporteStatusAlteradoEvent) OccurredAt() time.Time { return e.ChangedAt }

// MotoristaAtribuidoEvent is published when a driver is assigned
type MotoristaAtribuidoEvent struct {
	TransporteID string    `json:"transporteId"`
	MotoristaID  string    `json:"motoristaId"`
	AssignedAt   time.Time `json:"assignedAt"`
}

func (e *MotoristaAtribuidoEvent) EventType() string {
	return cloudevents.TransporteDriverAssigned
}
func (e *MotoristaAtribuidoEvent) OccurredAt() time.Time { return e.AssignedAt }

// RotaAtribuidaEvent is published when a route is attached to a shipment
type RotaAtribuidaEvent struct {
	TransporteID string    `json:"transporteId"`
	RotaID       string    `json:"rotaId"`
	AssignedAt   time.Time `json:"assignedAt"`
}

func (e *RotaAtribuidaEvent) EventType() string {
	return cloudevents.TransporteRouteAssigned
}
func (e *RotaAtribuidaEvent) OccurredAt() time.Time { return e.AssignedAt }

// ConferenciaAssociadaEvent is published when a conference is attached to a shipment
type ConferenciaAssociadaEvent struct {
	TransporteID  string    `json:"transporteId"`
	ConferenciaID string    `json:"conferenciaId"`
	LinkedAt      time.Time `json:"linkedAt"`
}

func (e *ConferenciaAssociadaEvent) EventType() string {
	return cloudevents.TransporteConferenceLinked
}
func (e *ConferenciaAssociadaEvent) OccurredAt() time.Time { return e.LinkedAt }

// RotaCriadaEvent is published when a route is created
type RotaCriadaEvent struct {
	RotaID       string    `json:"rotaId"`
	Codigo       string    `json:"codigo"`
	TransporteID string    `json:"transporteId,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *RotaCriadaEvent) EventType() string     { return cloudevents.RotaCreated }
func (e *RotaCriadaEvent) OccurredAt() time.Time { return e.CreatedAt }

// RotaStatusAlteradoEvent is published on every route transition
type RotaStatusAlteradoEvent struct {
	RotaID    string    `json:"rotaId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

func (e *RotaStatusAlteradoEvent) EventType() string     { return cloudevents.RotaStatusChanged }
func (e *RotaStatusAlteradoEvent) OccurredAt() time.Time { return e.ChangedAt }

// RotaOtimizadaEvent is published when stops are re-sequenced
type RotaOtimizadaEvent struct {
	RotaID           string    `json:"rotaId"`
	TotalParadas     int       `json:"totalParadas"`
	DistanciaTotalKm float64   `json:"distanciaTotalKm"`
	OptimizedAt      time.Time `json:"optimizedAt"`
}

func (e *RotaOtimizadaEvent) EventType() string     { return cloudevents.RotaOptimized }
func (e *RotaOtimizadaEvent) OccurredAt() time.Time { return e.OptimizedAt }

// ParadaAdicionadaEvent is published for each stop appended to a route
type ParadaAdicionadaEvent struct {
	RotaID       string    `json:"rotaId"`
	ParadaID     string    `json:"paradaId"`
	PedidoID     string    `json:"pedidoId,omitempty"`
	OrdemEntrega int       `json:"ordemEntrega"`
	AddedAt      time.Time `json:"addedAt"`
}

func (e *ParadaAdicionadaEvent) EventType() string     { return cloudevents.ParadaAdded }
func (e *ParadaAdicionadaEvent) OccurredAt() time.Time { return e.AddedAt }

// ParadaStatusAlteradoEvent is published on every stop transition
type ParadaStatusAlteradoEvent struct {
	RotaID    string    `json:"rotaId"`
	ParadaID  string    `json:"paradaId"`
	PedidoID  string    `json:"pedidoId,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

func (e *ParadaStatusAlteradoEvent) EventType() string     { return cloudevents.ParadaStatusChanged }
func (e *ParadaStatusAlteradoEvent) OccurredAt() time.Time { return e.ChangedAt }

// SeparacaoCriadaEvent is published when a picking task is released
type SeparacaoCriadaEvent struct {
	SeparacaoID string    `json:"separacaoId"`
	PedidoID    string    `json:"pedidoId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *SeparacaoCriadaEvent) EventType() string     { return cloudevents.SeparacaoCreated }
func (e *SeparacaoCriadaEvent) OccurredAt() time.Time { return e.CreatedAt }

// SeparacaoConcluidaEvent is published when picking completes
type SeparacaoConcluidaEvent struct {
	SeparacaoID string    `json:"separacaoId"`
	PedidoID    string    `json:"pedidoId"`
	Responsavel string    `json:"responsavel,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *SeparacaoConcluidaEvent) EventType() string     { return cloudevents.SeparacaoCompleted }
func (e *SeparacaoConcluidaEvent) OccurredAt() time.Time { return e.CompletedAt }

// ColetaCriadaEvent is published when a pickup task is created
type ColetaCriadaEvent struct {
	ColetaID    string    `json:"coletaId"`
	SeparacaoID string    `json:"separacaoId"`
	PedidoID    string    `json:"pedidoId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *ColetaCriadaEvent) EventType() string     { return cloudevents.ColetaCreated }
func (e *ColetaCriadaEvent) OccurredAt() time.Time { return e.CreatedAt }

// ColetaRealizadaEvent is published when the carrier picks the order up
type ColetaRealizadaEvent struct {
	ColetaID    string    `json:"coletaId"`
	PedidoID    string    `json:"pedidoId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *ColetaRealizadaEvent) EventType() string     { return cloudevents.ColetaCompleted }
func (e *ColetaRealizadaEvent) OccurredAt() time.Time { return e.CompletedAt }

// ExcecaoRegistradaEvent is published when an exception is filed
type ExcecaoRegistradaEvent struct {
	ExcecaoID         string    `json:"excecaoId"`
	Numero            string    `json:"numero"`
	Tipo              string    `json:"tipo"`
	Severidade        string    `json:"severidade"`
	ImpactoFinanceiro string    `json:"impactoFinanceiro"`
	PedidoID          string    `json:"pedidoId,omitempty"`
	TransporteID      string    `json:"transporteId,omitempty"`
	ConferenciaID     string    `json:"conferenciaId,omitempty"`
	RecordedAt        time.Time `json:"recordedAt"`
}

func (e *ExcecaoRegistradaEvent) EventType() string     { return cloudevents.ExcecaoRecorded }
func (e *ExcecaoRegistradaEvent) OccurredAt() time.Time { return e.RecordedAt }

// ExcecaoStatusAlteradoEvent is published on each resolution workflow step
type ExcecaoStatusAlteradoEvent struct {
	ExcecaoID string    `json:"excecaoId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Usuario   string    `json:"usuario,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

func (e *ExcecaoStatusAlteradoEvent) EventType() string {
	return cloudevents.ExcecaoStatusChanged
}
func (e *ExcecaoStatusAlteradoEvent) OccurredAt() time.Time { return e.ChangedAt }

// RecebimentoCriadoEvent is published when a receiving manifest is opened
type RecebimentoCriadoEvent struct {
	RecebimentoID string    `json:"recebimentoId"`
	Codigo        string    `json:"codigo"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (e *RecebimentoCriadoEvent) EventType() string     { return cloudevents.RecebimentoCreated }
func (e *RecebimentoCriadoEvent) OccurredAt() time.Time { return e.CreatedAt }

// RecebimentoConcluidoEvent is published when receiving completes
type RecebimentoConcluidoEvent struct {
	RecebimentoID string    `json:"recebimentoId"`
	TransporteID  string    `json:"transporteId"`
	ConferenciaID string    `json:"conferenciaId"`
	CompletedAt   time.Time `json:"completedAt"`
}

func (e *RecebimentoConcluidoEvent) EventType() string {
	return cloudevents.RecebimentoCompleted
}
func (e *RecebimentoConcluidoEvent) OccurredAt() time.Time { return e.CompletedAt }

// TransferenciaCriadaEvent is published when a transfer is created
type TransferenciaCriadaEvent struct {
	TransferenciaID string    `json:"transferenciaId"`
	Codigo          string    `json:"codigo"`
	Origem          string    `json:"origem"`
	Destino         string    `json:"destino"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (e *TransferenciaCriadaEvent) EventType() string {
	return cloudevents.TransferenciaCreated
}
func (e *TransferenciaCriadaEvent) OccurredAt() time.Time { return e.CreatedAt }
