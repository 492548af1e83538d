package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecebimentoStatus represents the status of a receiving manifest
type RecebimentoStatus string

const (
	RecebimentoPendente  RecebimentoStatus = "PENDENTE"
	RecebimentoConcluido RecebimentoStatus = "CONCLUIDO"
	RecebimentoCancelado RecebimentoStatus = "CANCELADO"
)

// Recebimento is a receiving manifest for incoming orders. LockToken and
// LockedAt are written by the row lock taken during completion.
type Recebimento struct {
	events        `bson:"-"`
	ID            string            `bson:"_id"`
	Codigo        string            `bson:"codigo"`
	Fornecedor    string            `bson:"fornecedor,omitempty"`
	Origem        string            `bson:"origem,omitempty"`
	Status        RecebimentoStatus `bson:"status"`
	TransporteID  string            `bson:"transporteId,omitempty"`
	ConferenciaID string            `bson:"conferenciaId,omitempty"`
	DataConclusao *time.Time        `bson:"dataConclusao,omitempty"`
	LockToken     string            `bson:"lockToken,omitempty"`
	LockedAt      *time.Time        `bson:"lockedAt,omitempty"`
	CreatedAt     time.Time         `bson:"createdAt"`
	UpdatedAt     time.Time         `bson:"updatedAt"`
}

// NewRecebimento opens a PENDENTE receiving manifest
func NewRecebimento(codigo, fornecedor, origem string) *Recebimento {
	now := time.Now().UTC()
	r := &Recebimento{
		ID:         uuid.NewString(),
		Codigo:     codigo,
		Fornecedor: fornecedor,
		Origem:     origem,
		Status:     RecebimentoPendente,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.addEvent(&RecebimentoCriadoEvent{RecebimentoID: r.ID, Codigo: codigo, CreatedAt: now})
	return r
}

// IsAberto reports whether orders can still be linked to the manifest
func (r *Recebimento) IsAberto() bool {
	return r.Status == RecebimentoPendente
}

// Concluir closes the manifest and records the records it produced
func (r *Recebimento) Concluir(transporteID, conferenciaID string) error {
	if !r.IsAberto() {
		return ErrRecebimentoEncerrado
	}
	now := time.Now().UTC()
	r.Status = RecebimentoConcluido
	r.TransporteID = transporteID
	r.ConferenciaID = conferenciaID
	r.DataConclusao = &now
	r.LockToken = ""
	r.LockedAt = nil
	r.UpdatedAt = now
	r.addEvent(&RecebimentoConcluidoEvent{RecebimentoID: r.ID, TransporteID: transporteID, ConferenciaID: conferenciaID, CompletedAt: now})
	return nil
}

// TransferenciaStatus represents the status of an inter-hub transfer
type TransferenciaStatus string

const (
	TransferenciaPendente   TransferenciaStatus = "PENDENTE"
	TransferenciaEmTransito TransferenciaStatus = "EM_TRANSITO"
	TransferenciaConcluida  TransferenciaStatus = "CONCLUIDA"
	TransferenciaCancelada  TransferenciaStatus = "CANCELADA"
)

// Transferencia moves orders between hubs
type Transferencia struct {
	events     `bson:"-"`
	ID         string              `bson:"_id"`
	Codigo     string              `bson:"codigo"`
	Origem     string              `bson:"origem"`
	Destino    string              `bson:"destino"`
	Status     TransferenciaStatus `bson:"status"`
	Observacao string              `bson:"observacao,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt"`
}

// NewTransferencia creates a PENDENTE transfer
func NewTransferencia(codigo, origem, destino, observacao string) *Transferencia {
	now := time.Now().UTC()
	t := &Transferencia{
		ID:         uuid.NewString(),
		Codigo:     codigo,
		Origem:     origem,
		Destino:    destino,
		Status:     TransferenciaPendente,
		Observacao: observacao,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.addEvent(&TransferenciaCriadaEvent{TransferenciaID: t.ID, Codigo: codigo, Origem: origem, Destino: destino, CreatedAt: now})
	return t
}

// IsAberta reports whether orders can still be linked to the transfer
func (t *Transferencia) IsAberta() bool {
	return t.Status == TransferenciaPendente || t.Status == TransferenciaEmTransito
}

// EntradaEstoque records an order entering warehouse stock
type EntradaEstoque struct {
	ID            string    `bson:"_id"`
	PedidoID      string    `bson:"pedidoId"`
	ConferenciaID string    `bson:"conferenciaId"`
	Localizacao   string    `bson:"localizacao"`
	DataEntrada   time.Time `bson:"dataEntrada"`
}

// NewEntradaEstoque creates a stock entry for a stocked order
func NewEntradaEstoque(pedidoID, conferenciaID, localizacao string) *EntradaEstoque {
	return &EntradaEstoque{
		ID:            uuid.NewString(),
		PedidoID:      pedidoID,
		ConferenciaID: conferenciaID,
		Localizacao:   localizacao,
		DataEntrada:   time.Now().UTC(),
	}
}
