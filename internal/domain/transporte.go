package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransporteStatus represents the status of a shipment
type TransporteStatus string

const (
	TransporteCriado       TransporteStatus = "CRIADO"
	TransporteEmTransporte TransporteStatus = "EM_TRANSPORTE"
	TransporteRecebido     TransporteStatus = "RECEBIDO"
	TransporteEntregue     TransporteStatus = "ENTREGUE"
	TransporteCancelado    TransporteStatus = "CANCELADO"
)

var transporteTransitions = map[TransporteStatus][]TransporteStatus{
	TransporteCriado:       {TransporteEmTransporte, TransporteCancelado},
	TransporteEmTransporte: {TransporteRecebido, TransporteEntregue, TransporteCancelado},
	TransporteRecebido:     {},
	TransporteEntregue:     {},
	TransporteCancelado:    {},
}

// IsValid reports whether s is a known shipment status
func (s TransporteStatus) IsValid() bool {
	_, ok := transporteTransitions[s]
	return ok
}

// CanTransitionTo checks if the shipment can move from s to target
func (s TransporteStatus) CanTransitionTo(target TransporteStatus) bool {
	for _, allowed := range transporteTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges
func (s TransporteStatus) IsTerminal() bool {
	return len(transporteTransitions[s]) == 0
}

// PedidoCascade describes what a shipment transition does to linked orders
type PedidoCascade struct {
	Status PedidoStatus
	Evento string
}

// CascadeParaPedidos maps a shipment status to the status its linked orders
// take. ok is false for statuses that do not cascade.
func CascadeParaPedidos(s TransporteStatus) (PedidoCascade, bool) {
	switch s {
	case TransporteEmTransporte:
		return PedidoCascade{Status: PedidoEmRota, Evento: EventoEmTransito}, true
	case TransporteRecebido, TransporteEntregue:
		return PedidoCascade{Status: PedidoEntregue, Evento: EventoEntregue}, true
	case TransporteCancelado:
		return PedidoCascade{Status: PedidoCancelado, Evento: EventoCancelado}, true
	}
	return PedidoCascade{}, false
}

// Transporte is the aggregate root for a shipment movement between hubs
type Transporte struct {
	events        `bson:"-"`
	ID            string           `bson:"_id"`
	Codigo        string           `bson:"codigo"`
	Tipo          TipoOperacao     `bson:"tipo"`
	Status        TransporteStatus `bson:"status"`
	Origem        string           `bson:"origem,omitempty"`
	Destino       string           `bson:"destino,omitempty"`
	RotaID        string           `bson:"rotaId,omitempty"`
	ConferenciaID string           `bson:"conferenciaId,omitempty"`
	MotoristaID   string           `bson:"motoristaId,omitempty"`
	DataInicio    *time.Time       `bson:"dataInicio,omitempty"`
	DataConclusao *time.Time       `bson:"dataConclusao,omitempty"`
	CreatedAt     time.Time        `bson:"createdAt"`
	UpdatedAt     time.Time        `bson:"updatedAt"`
}

// NewTransporte creates a shipment in CRIADO
func NewTransporte(codigo string, tipo TipoOperacao, origem, destino string) *Transporte {
	now := time.Now().UTC()
	t := &Transporte{
		ID:        uuid.NewString(),
		Codigo:    codigo,
		Tipo:      tipo,
		Status:    TransporteCriado,
		Origem:    origem,
		Destino:   destino,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.addEvent(&TransporteCriadoEvent{TransporteID: t.ID, Codigo: codigo, Tipo: string(tipo), CreatedAt: now})
	return t
}

// IsTerminal reports whether the shipment is closed
func (t *Transporte) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// AtualizarStatus moves the shipment along its graph and stamps the start
// and completion dates.
func (t *Transporte) AtualizarStatus(target TransporteStatus) error {
	if !t.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{Entity: "transporte", From: string(t.Status), To: string(target)}
	}
	now := time.Now().UTC()
	from := t.Status
	t.Status = target
	switch target {
	case TransporteEmTransporte:
		t.DataInicio = &now
	case TransporteRecebido, TransporteEntregue, TransporteCancelado:
		t.DataConclusao = &now
	}
	t.UpdatedAt = now
	t.addEvent(&TransporteStatusAlteradoEvent{TransporteID: t.ID, From: string(from), To: string(target), ChangedAt: now})
	return nil
}

// ValidarInicio checks the stricter preconditions for starting a shipment
func (t *Transporte) ValidarInicio() error {
	if t.Status != TransporteCriado {
		return &InvalidTransitionError{Entity: "transporte", From: string(t.Status), To: string(TransporteEmTransporte)}
	}
	if t.MotoristaID == "" {
		return ErrTransporteSemMotorista
	}
	if t.RotaID == "" {
		return ErrTransporteSemRota
	}
	return nil
}

// AtribuirMotorista assigns a driver, replacing any previous one
func (t *Transporte) AtribuirMotorista(motoristaID string) error {
	if t.IsTerminal() {
		return ErrTransporteEncerrado
	}
	now := time.Now().UTC()
	t.MotoristaID = motoristaID
	t.UpdatedAt = now
	t.addEvent(&MotoristaAtribuidoEvent{TransporteID: t.ID, MotoristaID: motoristaID, AssignedAt: now})
	return nil
}

// AtribuirRota attaches a route. A shipment owns at most one route.
func (t *Transporte) AtribuirRota(rotaID string) error {
	if t.IsTerminal() {
		return ErrTransporteEncerrado
	}
	if t.RotaID == rotaID {
		return nil
	}
	if t.RotaID != "" {
		return ErrTransporteJaPossuiRota
	}
	now := time.Now().UTC()
	t.RotaID = rotaID
	t.UpdatedAt = now
	t.addEvent(&RotaAtribuidaEvent{TransporteID: t.ID, RotaID: rotaID, AssignedAt: now})
	return nil
}

// AssociarConferencia attaches a conference. A shipment owns at most one.
func (t *Transporte) AssociarConferencia(conferenciaID string) error {
	if t.IsTerminal() {
		return ErrTransporteEncerrado
	}
	if t.ConferenciaID == conferenciaID {
		return nil
	}
	if t.ConferenciaID != "" {
		return ErrTransporteJaPossuiConf
	}
	now := time.Now().UTC()
	t.ConferenciaID = conferenciaID
	t.UpdatedAt = now
	t.addEvent(&ConferenciaAssociadaEvent{TransporteID: t.ID, ConferenciaID: conferenciaID, LinkedAt: now})
	return nil
}

// Motorista is a driver that can be assigned to shipments
type Motorista struct {
	ID        string    `bson:"_id"`
	Nome      string    `bson:"nome"`
	CNH       string    `bson:"cnh,omitempty"`
	Ativo     bool      `bson:"ativo"`
	CreatedAt time.Time `bson:"createdAt"`
}

// NewMotorista registers an active driver
func NewMotorista(nome, cnh string) *Motorista {
	return &Motorista{
		ID:        uuid.NewString(),
		Nome:      nome,
		CNH:       cnh,
		Ativo:     true,
		CreatedAt: time.Now().UTC(),
	}
}
