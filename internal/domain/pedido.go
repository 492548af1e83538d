package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PedidoStatus represents the lifecycle status of an order
type PedidoStatus string

const (
	PedidoPendente              PedidoStatus = "PENDENTE"
	PedidoProcessando           PedidoStatus = "PROCESSANDO"
	PedidoRecebido              PedidoStatus = "RECEBIDO"
	PedidoAguardandoConferencia PedidoStatus = "AGUARDANDO_CONFERENCIA"
	PedidoValidado              PedidoStatus = "VALIDADO"
	PedidoEmEstoque             PedidoStatus = "EM_ESTOQUE"
	PedidoAguardandoSeparacao   PedidoStatus = "AGUARDANDO_SEPARACAO"
	PedidoAguardandoColeta      PedidoStatus = "AGUARDANDO_COLETA"
	PedidoEmTransito            PedidoStatus = "EM_TRANSITO"
	PedidoEmRota                PedidoStatus = "EM_ROTA"
	PedidoEntregue              PedidoStatus = "ENTREGUE"
	PedidoCancelado             PedidoStatus = "CANCELADO"
	PedidoExcecao               PedidoStatus = "EXCECAO"
)

var pedidoTransitions = map[PedidoStatus][]PedidoStatus{
	PedidoPendente:              {PedidoProcessando, PedidoRecebido, PedidoAguardandoConferencia, PedidoValidado, PedidoCancelado, PedidoExcecao},
	PedidoProcessando:           {PedidoRecebido, PedidoAguardandoConferencia, PedidoCancelado, PedidoExcecao},
	PedidoRecebido:              {PedidoAguardandoConferencia, PedidoValidado, PedidoCancelado, PedidoExcecao},
	PedidoAguardandoConferencia: {PedidoValidado, PedidoCancelado, PedidoExcecao},
	PedidoValidado:              {PedidoEmEstoque, PedidoEmRota, PedidoEntregue, PedidoCancelado, PedidoExcecao},
	PedidoEmEstoque:             {PedidoAguardandoSeparacao, PedidoValidado, PedidoCancelado, PedidoExcecao},
	PedidoAguardandoSeparacao:   {PedidoAguardandoColeta, PedidoCancelado, PedidoExcecao},
	PedidoAguardandoColeta:      {PedidoEmTransito, PedidoValidado, PedidoCancelado, PedidoExcecao},
	PedidoEmTransito:            {PedidoValidado, PedidoEmRota, PedidoEntregue, PedidoCancelado, PedidoExcecao},
	PedidoEmRota:                {PedidoEntregue, PedidoCancelado, PedidoExcecao},
	PedidoCancelado:             {PedidoValidado},
	PedidoExcecao:               {PedidoProcessando, PedidoAguardandoConferencia, PedidoValidado, PedidoCancelado},
	PedidoEntregue:              {},
}

// IsValid reports whether s is a known order status
func (s PedidoStatus) IsValid() bool {
	_, ok := pedidoTransitions[s]
	return ok
}

// CanTransitionTo checks if the order can move from s to target
func (s PedidoStatus) CanTransitionTo(target PedidoStatus) bool {
	for _, allowed := range pedidoTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PedidoStatuses lists every order status
func PedidoStatuses() []PedidoStatus {
	return []PedidoStatus{
		PedidoPendente, PedidoProcessando, PedidoRecebido, PedidoAguardandoConferencia,
		PedidoValidado, PedidoEmEstoque, PedidoAguardandoSeparacao, PedidoAguardandoColeta,
		PedidoEmTransito, PedidoEmRota, PedidoEntregue, PedidoCancelado, PedidoExcecao,
	}
}

// RelationKind names one of the exclusive links an order can hold
type RelationKind string

const (
	RelacaoRecebimento   RelationKind = "RECEBIMENTO"
	RelacaoTransferencia RelationKind = "TRANSFERENCIA"
	RelacaoConferencia   RelationKind = "CONFERENCIA"
	RelacaoTransporte    RelationKind = "TRANSPORTE"
)

// IsValid reports whether k is a known relation kind
func (k RelationKind) IsValid() bool {
	switch k {
	case RelacaoRecebimento, RelacaoTransferencia, RelacaoConferencia, RelacaoTransporte:
		return true
	}
	return false
}

// Endereco is a delivery address
type Endereco struct {
	Logradouro string  `bson:"logradouro,omitempty"`
	Bairro     string  `bson:"bairro,omitempty"`
	Cidade     string  `bson:"cidade,omitempty"`
	UF         string  `bson:"uf,omitempty"`
	CEP        string  `bson:"cep,omitempty"`
	Latitude   float64 `bson:"latitude,omitempty"`
	Longitude  float64 `bson:"longitude,omitempty"`
}

// LocalityKey groups addresses by UF/Cidade/Bairro/CEP for route ordering
func (e Endereco) LocalityKey() string {
	return fmt.Sprintf("%s/%s/%s/%s", e.UF, e.Cidade, e.Bairro, e.CEP)
}

// HasCoordinates reports whether the address was geocoded
func (e Endereco) HasCoordinates() bool {
	return e.Latitude != 0 || e.Longitude != 0
}

// Pedido is the aggregate root for an order flowing through the pipeline.
// Each relation link is a single owner reference; an empty string means
// unlinked.
type Pedido struct {
	events          `bson:"-"`
	ID              string       `bson:"_id"`
	Codigo          string       `bson:"codigo"`
	ClienteID       string       `bson:"clienteId,omitempty"`
	Destino         Endereco     `bson:"destino"`
	Status          PedidoStatus `bson:"status"`
	RecebimentoID   string       `bson:"recebimentoId,omitempty"`
	TransferenciaID string       `bson:"transferenciaId,omitempty"`
	ConferenciaID   string       `bson:"conferenciaId,omitempty"`
	TransporteID    string       `bson:"transporteId,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt"`
	DeletedAt       *time.Time   `bson:"deletedAt,omitempty"`
}

// NewPedido creates a new order in PENDENTE
func NewPedido(codigo, clienteID string, destino Endereco) *Pedido {
	now := time.Now().UTC()
	p := &Pedido{
		ID:        uuid.NewString(),
		Codigo:    codigo,
		ClienteID: clienteID,
		Destino:   destino,
		Status:    PedidoPendente,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.addEvent(&PedidoCriadoEvent{PedidoID: p.ID, Codigo: codigo, ClienteID: clienteID, CreatedAt: now})
	return p
}

// CanTransitionTo checks if the order can move to target
func (p *Pedido) CanTransitionTo(target PedidoStatus) bool {
	return p.Status.CanTransitionTo(target)
}

// TransitionTo moves the order along the transition table
func (p *Pedido) TransitionTo(target PedidoStatus) error {
	if !p.CanTransitionTo(target) {
		return &InvalidTransitionError{Entity: "pedido", From: string(p.Status), To: string(target)}
	}
	from := p.Status
	p.Status = target
	p.UpdatedAt = time.Now().UTC()
	p.addEvent(&PedidoStatusAlteradoEvent{PedidoID: p.ID, From: string(from), To: string(target), ChangedAt: p.UpdatedAt})
	return nil
}

// LinkedTo returns the id the order holds for kind, or "" when unlinked
func (p *Pedido) LinkedTo(kind RelationKind) string {
	switch kind {
	case RelacaoRecebimento:
		return p.RecebimentoID
	case RelacaoTransferencia:
		return p.TransferenciaID
	case RelacaoConferencia:
		return p.ConferenciaID
	case RelacaoTransporte:
		return p.TransporteID
	}
	return ""
}

func (p *Pedido) setLink(kind RelationKind, id string) {
	switch kind {
	case RelacaoRecebimento:
		p.RecebimentoID = id
	case RelacaoTransferencia:
		p.TransferenciaID = id
	case RelacaoConferencia:
		p.ConferenciaID = id
	case RelacaoTransporte:
		p.TransporteID = id
	}
}

// CheckLink reports whether the order may be linked to id. Linking to the
// id already held is allowed and is a no-op in Link.
func (p *Pedido) CheckLink(kind RelationKind, id string) error {
	if p.IsDeleted() {
		return ErrPedidoRemovido
	}
	if current := p.LinkedTo(kind); current != "" && current != id {
		return conflict("pedido %s is already linked to %s %s", p.Codigo, kind, current)
	}
	return nil
}

// Link sets the relation link. It reports whether anything changed.
func (p *Pedido) Link(kind RelationKind, id string) (bool, error) {
	if err := p.CheckLink(kind, id); err != nil {
		return false, err
	}
	if p.LinkedTo(kind) == id {
		return false, nil
	}
	p.setLink(kind, id)
	p.UpdatedAt = time.Now().UTC()
	p.addEvent(&PedidoVinculadoEvent{PedidoID: p.ID, Relacao: string(kind), RelacaoID: id, LinkedAt: p.UpdatedAt})
	return true, nil
}

// CheckUnlink reports whether the order holds a link of kind to remove
func (p *Pedido) CheckUnlink(kind RelationKind) error {
	if p.LinkedTo(kind) == "" {
		return conflict("pedido %s has no %s link to remove", p.Codigo, kind)
	}
	return nil
}

// Unlink clears the relation link and returns the id it held
func (p *Pedido) Unlink(kind RelationKind) (string, error) {
	if err := p.CheckUnlink(kind); err != nil {
		return "", err
	}
	previous := p.LinkedTo(kind)
	p.setLink(kind, "")
	p.UpdatedAt = time.Now().UTC()
	p.addEvent(&PedidoDesvinculadoEvent{PedidoID: p.ID, Relacao: string(kind), RelacaoID: previous, UnlinkedAt: p.UpdatedAt})
	return previous, nil
}

// HasAnyLink reports whether the order still references an operational record
func (p *Pedido) HasAnyLink() bool {
	return p.RecebimentoID != "" || p.TransferenciaID != "" || p.ConferenciaID != "" || p.TransporteID != ""
}

// IsDeleted reports whether the order was soft deleted
func (p *Pedido) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Remove soft deletes the order. Linked orders cannot be removed.
func (p *Pedido) Remove() error {
	if p.IsDeleted() {
		return ErrPedidoRemovido
	}
	if p.HasAnyLink() {
		return ErrPedidoVinculado
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	p.UpdatedAt = now
	p.addEvent(&PedidoRemovidoEvent{PedidoID: p.ID, RemovedAt: now})
	return nil
}

// Tracking event codes appended to an order's history
const (
	EventoCriado            = "CREATED"
	EventoRecebido          = "RECEIVED"
	EventoAguardandoConf    = "AWAITING_CONFERENCE"
	EventoValidado          = "VALIDATED"
	EventoRejeitado         = "REJECTED"
	EventoEstocado          = "STOCKED"
	EventoSeparacaoLiberada = "PICKING_RELEASED"
	EventoSeparado          = "PICKED"
	EventoColetado          = "COLLECTED"
	EventoDespachado        = "DISPATCHED"
	EventoEmTransito        = "IN_TRANSIT"
	EventoEntregue          = "DELIVERED"
	EventoCancelado         = "CANCELLED"
	EventoStatusAtualizado  = "STATUS_UPDATED"
	EventoVinculado         = "LINKED"
	EventoDesvinculado      = "UNLINKED"
	EventoRemovido          = "REMOVED"
)

// EventoRastreamento is one immutable row of an order's tracking history
type EventoRastreamento struct {
	ID         string       `bson:"_id"`
	PedidoID   string       `bson:"pedidoId"`
	Status     PedidoStatus `bson:"status"`
	Evento     string       `bson:"evento"`
	Local      string       `bson:"local,omitempty"`
	Observacao string       `bson:"observacao,omitempty"`
	Data       time.Time    `bson:"data"`
}

// NewEventoRastreamento creates a tracking row for the order's current status
func NewEventoRastreamento(p *Pedido, evento, local, observacao string) *EventoRastreamento {
	return &EventoRastreamento{
		ID:         uuid.NewString(),
		PedidoID:   p.ID,
		Status:     p.Status,
		Evento:     evento,
		Local:      local,
		Observacao: observacao,
		Data:       time.Now().UTC(),
	}
}
