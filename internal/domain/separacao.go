package domain

import (
	"time"

	"github.com/google/uuid"
)

// SeparacaoStatus represents the status of a picking task
type SeparacaoStatus string

const (
	SeparacaoPendente  SeparacaoStatus = "PENDENTE"
	SeparacaoSeparado  SeparacaoStatus = "SEPARADO"
	SeparacaoCancelada SeparacaoStatus = "CANCELADA"
)

// Separacao is a warehouse picking task for one order
type Separacao struct {
	events        `bson:"-"`
	ID            string          `bson:"_id"`
	PedidoID      string          `bson:"pedidoId"`
	Status        SeparacaoStatus `bson:"status"`
	Responsavel   string          `bson:"responsavel,omitempty"`
	DataSeparacao *time.Time      `bson:"dataSeparacao,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt"`
}

// NewSeparacao releases a PENDENTE picking task for pedidoID
func NewSeparacao(pedidoID string) *Separacao {
	now := time.Now().UTC()
	s := &Separacao{
		ID:        uuid.NewString(),
		PedidoID:  pedidoID,
		Status:    SeparacaoPendente,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.addEvent(&SeparacaoCriadaEvent{SeparacaoID: s.ID, PedidoID: pedidoID, CreatedAt: now})
	return s
}

// IsAtiva reports whether the task still counts against the order
func (s *Separacao) IsAtiva() bool {
	return s.Status != SeparacaoCancelada
}

// CheckSeparar reports whether the task can be completed
func (s *Separacao) CheckSeparar() error {
	switch s.Status {
	case SeparacaoPendente:
		return nil
	case SeparacaoSeparado:
		return ErrSeparacaoConcluida
	default:
		return &InvalidTransitionError{Entity: "separacao", From: string(s.Status), To: string(SeparacaoSeparado)}
	}
}

// MarcarComoSeparado completes the task. A second call fails.
func (s *Separacao) MarcarComoSeparado(responsavel string) error {
	if err := s.CheckSeparar(); err != nil {
		return err
	}
	now := time.Now().UTC()
	s.Status = SeparacaoSeparado
	s.Responsavel = responsavel
	s.DataSeparacao = &now
	s.UpdatedAt = now
	s.addEvent(&SeparacaoConcluidaEvent{SeparacaoID: s.ID, PedidoID: s.PedidoID, Responsavel: responsavel, CompletedAt: now})
	return nil
}

// ColetaStatus represents the status of a carrier pickup
type ColetaStatus string

const (
	ColetaPendente  ColetaStatus = "PENDENTE"
	ColetaRealizada ColetaStatus = "REALIZADA"
	ColetaCancelada ColetaStatus = "CANCELADA"
)

// Coleta is the carrier pickup that follows a completed picking task
type Coleta struct {
	events      `bson:"-"`
	ID          string       `bson:"_id"`
	PedidoID    string       `bson:"pedidoId"`
	SeparacaoID string       `bson:"separacaoId"`
	Status      ColetaStatus `bson:"status"`
	DataColeta  *time.Time   `bson:"dataColeta,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt"`
}

// NewColeta creates a PENDENTE pickup for a picked order
func NewColeta(pedidoID, separacaoID string) *Coleta {
	now := time.Now().UTC()
	c := &Coleta{
		ID:          uuid.NewString(),
		PedidoID:    pedidoID,
		SeparacaoID: separacaoID,
		Status:      ColetaPendente,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.addEvent(&ColetaCriadaEvent{ColetaID: c.ID, SeparacaoID: separacaoID, PedidoID: pedidoID, CreatedAt: now})
	return c
}

// CheckColetar reports whether the pickup can be completed
func (c *Coleta) CheckColetar() error {
	switch c.Status {
	case ColetaPendente:
		return nil
	case ColetaRealizada:
		return ErrColetaRealizada
	default:
		return &InvalidTransitionError{Entity: "coleta", From: string(c.Status), To: string(ColetaRealizada)}
	}
}

// MarcarComoColetado completes the pickup. A second call fails.
func (c *Coleta) MarcarComoColetado() error {
	if err := c.CheckColetar(); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.Status = ColetaRealizada
	c.DataColeta = &now
	c.UpdatedAt = now
	c.addEvent(&ColetaRealizadaEvent{ColetaID: c.ID, PedidoID: c.PedidoID, CompletedAt: now})
	return nil
}
