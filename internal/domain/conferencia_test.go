package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConferenciaTransitions(t *testing.T) {
	assert.True(t, ConferenciaPendente.CanTransitionTo(ConferenciaEmAndamento))
	assert.True(t, ConferenciaEmAndamento.CanTransitionTo(ConferenciaExcecao))
	assert.True(t, ConferenciaExcecao.CanTransitionTo(ConferenciaEmAndamento))
	assert.False(t, ConferenciaEmAndamento.CanTransitionTo(ConferenciaPendente))
	assert.False(t, ConferenciaConcluida.CanTransitionTo(ConferenciaEmAndamento))
}

func TestPercentualValidacao(t *testing.T) {
	tests := []struct {
		escaneados, total int
		want              float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{8, 10, 80},
		{10, 10, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentualValidacao(tt.escaneados, tt.total))
	}
}

func TestConferencia_Lifecycle(t *testing.T) {
	c := NewConferencia("CONF-1", TipoOutbound)
	assert.Equal(t, ConferenciaPendente, c.Status)

	require.NoError(t, c.RegistrarValidacao("P1"))
	assert.Equal(t, ConferenciaEmAndamento, c.Status)
	assert.NotNil(t, c.DataInicio)

	require.NoError(t, c.RegistrarInvalidacao("P2"))
	assert.Equal(t, ConferenciaExcecao, c.Status)

	require.NoError(t, c.RegistrarValidacao("P3"))
	assert.Equal(t, ConferenciaEmAndamento, c.Status)

	c.AtualizarContadores(3, 2)
	assert.Equal(t, 66.67, c.PercentualValidacao)
	require.NoError(t, c.Concluir("ok", "ana"))
	assert.True(t, c.IsConcluida())
	assert.True(t, c.PossuiDivergencia)
	assert.NotNil(t, c.DataConclusao)

	assert.ErrorIs(t, c.Concluir("", ""), ErrConferenciaConcluida)
	assert.ErrorIs(t, c.RegistrarValidacao("P4"), ErrConferenciaConcluida)
	assert.ErrorIs(t, c.RegistrarInvalidacao("P4"), ErrConferenciaConcluida)
}

func TestSeparacaoColeta(t *testing.T) {
	s := NewSeparacao("P1")
	require.NoError(t, s.MarcarComoSeparado("joao"))
	assert.Equal(t, SeparacaoSeparado, s.Status)
	assert.NotNil(t, s.DataSeparacao)
	assert.ErrorIs(t, s.MarcarComoSeparado("joao"), ErrSeparacaoConcluida)

	c := NewColeta("P1", s.ID)
	assert.Equal(t, ColetaPendente, c.Status)
	require.NoError(t, c.MarcarComoColetado())
	assert.NotNil(t, c.DataColeta)
	assert.ErrorIs(t, c.MarcarComoColetado(), ErrColetaRealizada)
}

func TestExcecao_Workflow(t *testing.T) {
	tests := []struct {
		name  string
		steps func(e *Excecao) error
		want  ExcecaoStatus
		audit int
		fails bool
	}{
		{
			name: "analyse and resolve",
			steps: func(e *Excecao) error {
				if err := e.IniciarAnalise("maria"); err != nil {
					return err
				}
				return e.Resolver("recontagem", "maria")
			},
			want:  ExcecaoResolvida,
			audit: 3,
		},
		{
			name:  "cancel open",
			steps: func(e *Excecao) error { return e.Cancelar("duplicada", "maria") },
			want:  ExcecaoCancelada,
			audit: 2,
		},
		{
			name:  "resolve without analysis",
			steps: func(e *Excecao) error { return e.Resolver("x", "y") },
			want:  ExcecaoAberta,
			audit: 1,
			fails: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExcecao(NovaExcecao{
				Numero:            "EXC-1",
				Tipo:              ExcecaoDivergenciaQuantidade,
				Severidade:        SeveridadeMedia,
				Titulo:            "divergencia",
				ImpactoFinanceiro: decimal.NewFromInt(50),
			})
			err := tt.steps(e)
			if tt.fails {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, e.Status)
			assert.Len(t, e.Historico, tt.audit)
			assert.True(t, decimal.NewFromInt(50).Equal(e.ImpactoFinanceiro))
		})
	}
}

func TestRecebimento_Concluir(t *testing.T) {
	r := NewRecebimento("REC-1", "ACME", "Porto")
	r.LockToken = "tok"
	require.NoError(t, r.Concluir("T1", "C1"))
	assert.Equal(t, RecebimentoConcluido, r.Status)
	assert.Empty(t, r.LockToken)
	assert.ErrorIs(t, r.Concluir("T2", "C2"), ErrRecebimentoEncerrado)
}
