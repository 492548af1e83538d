package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TipoOperacao distinguishes inbound from outbound flows. Conferences and
// shipments share it.
type TipoOperacao string

const (
	TipoInbound  TipoOperacao = "INBOUND"
	TipoOutbound TipoOperacao = "OUTBOUND"
)

// IsValid reports whether t is a known operation type
func (t TipoOperacao) IsValid() bool {
	return t == TipoInbound || t == TipoOutbound
}

// ConferenciaStatus represents the status of a verification session
type ConferenciaStatus string

const (
	ConferenciaPendente    ConferenciaStatus = "PENDENTE"
	ConferenciaEmAndamento ConferenciaStatus = "EM_ANDAMENTO"
	ConferenciaExcecao     ConferenciaStatus = "EXCECAO"
	ConferenciaConcluida   ConferenciaStatus = "CONCLUIDO"
)

var conferenciaTransitions = map[ConferenciaStatus][]ConferenciaStatus{
	ConferenciaPendente:    {ConferenciaEmAndamento, ConferenciaExcecao, ConferenciaConcluida},
	ConferenciaEmAndamento: {ConferenciaExcecao, ConferenciaConcluida},
	ConferenciaExcecao:     {ConferenciaEmAndamento, ConferenciaConcluida},
	ConferenciaConcluida:   {},
}

// CanTransitionTo checks if the conference can move from s to target
func (s ConferenciaStatus) CanTransitionTo(target ConferenciaStatus) bool {
	for _, allowed := range conferenciaTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Conferencia is the aggregate root for an inbound or outbound verification
// session. The counters are derived from count queries over linked orders
// and are only ever overwritten, never incremented.
type Conferencia struct {
	events              `bson:"-"`
	ID                  string            `bson:"_id"`
	Codigo              string            `bson:"codigo"`
	Tipo                TipoOperacao      `bson:"tipo"`
	Status              ConferenciaStatus `bson:"status"`
	TransporteID        string            `bson:"transporteId,omitempty"`
	RecebimentoID       string            `bson:"recebimentoId,omitempty"`
	TotalPedidos        int               `bson:"totalPedidos"`
	PedidosEscaneados   int               `bson:"pedidosEscaneados"`
	PercentualValidacao float64           `bson:"percentualValidacao"`
	PossuiDivergencia   bool              `bson:"possuiDivergencia"`
	Observacoes         string            `bson:"observacoes,omitempty"`
	ConcluidoPor        string            `bson:"concluidoPor,omitempty"`
	DataInicio          *time.Time        `bson:"dataInicio,omitempty"`
	DataConclusao       *time.Time        `bson:"dataConclusao,omitempty"`
	CreatedAt           time.Time         `bson:"createdAt"`
	UpdatedAt           time.Time         `bson:"updatedAt"`
}

// NewConferencia opens a conference in PENDENTE
func NewConferencia(codigo string, tipo TipoOperacao) *Conferencia {
	now := time.Now().UTC()
	c := &Conferencia{
		ID:        uuid.NewString(),
		Codigo:    codigo,
		Tipo:      tipo,
		Status:    ConferenciaPendente,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.addEvent(&ConferenciaCriadaEvent{ConferenciaID: c.ID, Codigo: codigo, Tipo: string(tipo), CreatedAt: now})
	return c
}

// IsConcluida reports whether the conference is closed
func (c *Conferencia) IsConcluida() bool {
	return c.Status == ConferenciaConcluida
}

// EnsureAberta fails when the conference no longer accepts validations
func (c *Conferencia) EnsureAberta() error {
	if c.IsConcluida() {
		return ErrConferenciaConcluida
	}
	return nil
}

// AtualizarContadores overwrites the counters with freshly counted values
func (c *Conferencia) AtualizarContadores(total, escaneados int) {
	c.TotalPedidos = total
	c.PedidosEscaneados = escaneados
	c.PercentualValidacao = PercentualValidacao(escaneados, total)
	c.UpdatedAt = time.Now().UTC()
}

// Divergencia returns expected minus scanned
func (c *Conferencia) Divergencia() int {
	return c.TotalPedidos - c.PedidosEscaneados
}

// RegistrarValidacao records a validated order. The first validation starts
// the session.
func (c *Conferencia) RegistrarValidacao(pedidoID string) error {
	if err := c.EnsureAberta(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if c.Status != ConferenciaEmAndamento {
		c.moveTo(ConferenciaEmAndamento, now)
	}
	if c.DataInicio == nil {
		c.DataInicio = &now
	}
	c.UpdatedAt = now
	c.addEvent(&PedidoValidadoEvent{ConferenciaID: c.ID, PedidoID: pedidoID, ValidatedAt: now})
	return nil
}

// RegistrarInvalidacao records a rejected order and flags the session
func (c *Conferencia) RegistrarInvalidacao(pedidoID string) error {
	if err := c.EnsureAberta(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if c.Status != ConferenciaExcecao {
		c.moveTo(ConferenciaExcecao, now)
	}
	if c.DataInicio == nil {
		c.DataInicio = &now
	}
	c.UpdatedAt = now
	c.addEvent(&PedidoInvalidadoEvent{ConferenciaID: c.ID, PedidoID: pedidoID, InvalidatedAt: now})
	return nil
}

// Concluir closes the conference. Counters must be refreshed first.
func (c *Conferencia) Concluir(observacoes, usuario string) error {
	if c.IsConcluida() {
		return ErrConferenciaConcluida
	}
	if !c.Status.CanTransitionTo(ConferenciaConcluida) {
		return &InvalidTransitionError{Entity: "conferencia", From: string(c.Status), To: string(ConferenciaConcluida)}
	}
	now := time.Now().UTC()
	c.Status = ConferenciaConcluida
	c.DataConclusao = &now
	if c.DataInicio == nil {
		c.DataInicio = &now
	}
	c.PossuiDivergencia = c.Divergencia() != 0
	if observacoes != "" {
		c.Observacoes = observacoes
	}
	c.ConcluidoPor = usuario
	c.UpdatedAt = now
	c.addEvent(&ConferenciaConcluidaEvent{
		ConferenciaID:     c.ID,
		Tipo:              string(c.Tipo),
		TotalPedidos:      c.TotalPedidos,
		PedidosEscaneados: c.PedidosEscaneados,
		PossuiDivergencia: c.PossuiDivergencia,
		CompletedAt:       now,
	})
	return nil
}

func (c *Conferencia) moveTo(target ConferenciaStatus, at time.Time) {
	if c.Status.CanTransitionTo(target) {
		c.Status = target
		c.UpdatedAt = at
	}
}

// PercentualValidacao returns scanned/expected x 100 rounded to two
// decimals, or 0 when nothing is expected.
func PercentualValidacao(escaneados, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(escaneados)/float64(total)*10000) / 100
}
