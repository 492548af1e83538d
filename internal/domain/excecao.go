package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoExcecao classifies an operational exception
type TipoExcecao string

const (
	ExcecaoDivergenciaQuantidade TipoExcecao = "DIVERGENCIA_QUANTIDADE"
	ExcecaoNoShow                TipoExcecao = "NOSHOW"
	ExcecaoCancelamentoTransp    TipoExcecao = "CANCELAMENTO_TRANSPORTE"
)

// Severidade ranks an exception
type Severidade string

const (
	SeveridadeBaixa   Severidade = "BAIXA"
	SeveridadeMedia   Severidade = "MEDIA"
	SeveridadeAlta    Severidade = "ALTA"
	SeveridadeCritica Severidade = "CRITICA"
)

// ExcecaoStatus represents the resolution workflow status
type ExcecaoStatus string

const (
	ExcecaoAberta    ExcecaoStatus = "ABERTA"
	ExcecaoEmAnalise ExcecaoStatus = "EM_ANALISE"
	ExcecaoResolvida ExcecaoStatus = "RESOLVIDA"
	ExcecaoCancelada ExcecaoStatus = "CANCELADA"
)

var excecaoTransitions = map[ExcecaoStatus][]ExcecaoStatus{
	ExcecaoAberta:    {ExcecaoEmAnalise, ExcecaoCancelada},
	ExcecaoEmAnalise: {ExcecaoResolvida, ExcecaoCancelada},
	ExcecaoResolvida: {},
	ExcecaoCancelada: {},
}

// CanTransitionTo checks if the exception can move from s to target
func (s ExcecaoStatus) CanTransitionTo(target ExcecaoStatus) bool {
	for _, allowed := range excecaoTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// VinculosExcecao holds the optional references of an exception
type VinculosExcecao struct {
	PedidoID      string `bson:"pedidoId,omitempty"`
	TransporteID  string `bson:"transporteId,omitempty"`
	RecebimentoID string `bson:"recebimentoId,omitempty"`
	ConferenciaID string `bson:"conferenciaId,omitempty"`
}

// Map returns the non-empty references keyed by name
func (v VinculosExcecao) Map() map[string]string {
	m := make(map[string]string, 4)
	if v.PedidoID != "" {
		m["pedidoId"] = v.PedidoID
	}
	if v.TransporteID != "" {
		m["transporteId"] = v.TransporteID
	}
	if v.RecebimentoID != "" {
		m["recebimentoId"] = v.RecebimentoID
	}
	if v.ConferenciaID != "" {
		m["conferenciaId"] = v.ConferenciaID
	}
	return m
}

// HistoricoExcecao is one append-only audit entry
type HistoricoExcecao struct {
	Data           time.Time     `bson:"data"`
	Acao           string        `bson:"acao"`
	Usuario        string        `bson:"usuario,omitempty"`
	Descricao      string        `bson:"descricao,omitempty"`
	StatusAnterior ExcecaoStatus `bson:"statusAnterior,omitempty"`
	StatusNovo     ExcecaoStatus `bson:"statusNovo"`
}

// Excecao is an incident record. Everything but the resolution fields is
// fixed at creation.
type Excecao struct {
	events            `bson:"-"`
	ID                string             `bson:"_id"`
	Numero            string             `bson:"numero"`
	Tipo              TipoExcecao        `bson:"tipo"`
	Severidade        Severidade         `bson:"severidade"`
	Status            ExcecaoStatus      `bson:"status"`
	Titulo            string             `bson:"titulo"`
	Descricao         string             `bson:"descricao,omitempty"`
	ImpactoFinanceiro decimal.Decimal    `bson:"impactoFinanceiro"`
	Quantidade        int                `bson:"quantidade"`
	Vinculos          VinculosExcecao    `bson:"vinculos"`
	Responsavel       string             `bson:"responsavel,omitempty"`
	Resolucao         string             `bson:"resolucao,omitempty"`
	Historico         []HistoricoExcecao `bson:"historico"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

// NovaExcecao carries the fields fixed at creation
type NovaExcecao struct {
	Numero            string
	Tipo              TipoExcecao
	Severidade        Severidade
	Titulo            string
	Descricao         string
	Vinculos          VinculosExcecao
	Quantidade        int
	ImpactoFinanceiro decimal.Decimal
}

// NewExcecao files an ABERTA exception with its first history entry
func NewExcecao(n NovaExcecao) *Excecao {
	now := time.Now().UTC()
	e := &Excecao{
		ID:                uuid.NewString(),
		Numero:            n.Numero,
		Tipo:              n.Tipo,
		Severidade:        n.Severidade,
		Status:            ExcecaoAberta,
		Titulo:            n.Titulo,
		Descricao:         n.Descricao,
		ImpactoFinanceiro: n.ImpactoFinanceiro,
		Quantidade:        n.Quantidade,
		Vinculos:          n.Vinculos,
		Historico: []HistoricoExcecao{{
			Data:       now,
			Acao:       "REGISTRADA",
			Usuario:    "sistema",
			Descricao:  n.Titulo,
			StatusNovo: ExcecaoAberta,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.addEvent(&ExcecaoRegistradaEvent{
		ExcecaoID:         e.ID,
		Numero:            e.Numero,
		Tipo:              string(e.Tipo),
		Severidade:        string(e.Severidade),
		ImpactoFinanceiro: e.ImpactoFinanceiro.StringFixed(2),
		PedidoID:          e.Vinculos.PedidoID,
		TransporteID:      e.Vinculos.TransporteID,
		ConferenciaID:     e.Vinculos.ConferenciaID,
		RecordedAt:        now,
	})
	return e
}

// IniciarAnalise takes the exception into analysis
func (e *Excecao) IniciarAnalise(responsavel string) error {
	if err := e.transition(ExcecaoEmAnalise, "ANALISE_INICIADA", responsavel, ""); err != nil {
		return err
	}
	e.Responsavel = responsavel
	return nil
}

// Resolver closes the exception with a resolution note
func (e *Excecao) Resolver(resolucao, usuario string) error {
	if err := e.transition(ExcecaoResolvida, "RESOLVIDA", usuario, resolucao); err != nil {
		return err
	}
	e.Resolucao = resolucao
	return nil
}

// Cancelar discards the exception
func (e *Excecao) Cancelar(motivo, usuario string) error {
	return e.transition(ExcecaoCancelada, "CANCELADA", usuario, motivo)
}

func (e *Excecao) transition(target ExcecaoStatus, acao, usuario, descricao string) error {
	if !e.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{Entity: "excecao", From: string(e.Status), To: string(target)}
	}
	now := time.Now().UTC()
	from := e.Status
	e.Status = target
	e.UpdatedAt = now
	e.Historico = append(e.Historico, HistoricoExcecao{
		Data:           now,
		Acao:           acao,
		Usuario:        usuario,
		Descricao:      descricao,
		StatusAnterior: from,
		StatusNovo:     target,
	})
	e.addEvent(&ExcecaoStatusAlteradoEvent{ExcecaoID: e.ID, From: string(from), To: string(target), Usuario: usuario, ChangedAt: now})
	return nil
}
