package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRota(t *testing.T, destinos ...Endereco) *Rota {
	t.Helper()
	r := NewRota("ROT-1", "T1")
	for i, d := range destinos {
		_, err := r.AdicionarParada(string(rune('a'+i)), d)
		require.NoError(t, err)
	}
	return r
}

func TestRotaTransitions(t *testing.T) {
	tests := []struct {
		from    RotaStatus
		to      RotaStatus
		allowed bool
	}{
		{RotaCriada, RotaEmAndamento, true},
		{RotaCriada, RotaCancelada, true},
		{RotaCriada, RotaFinalizada, false},
		{RotaEmAndamento, RotaFinalizada, true},
		{RotaEmAndamento, RotaCancelada, true},
		{RotaFinalizada, RotaEmAndamento, false},
		{RotaCancelada, RotaCriada, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParadaTransitions(t *testing.T) {
	tests := []struct {
		from    ParadaStatus
		to      ParadaStatus
		allowed bool
	}{
		{ParadaPendente, ParadaEmAndamento, true},
		{ParadaPendente, ParadaEntregue, true},
		{ParadaPendente, ParadaFalha, true},
		{ParadaEmAndamento, ParadaCancelada, true},
		{ParadaEmAndamento, ParadaPendente, false},
		{ParadaEntregue, ParadaFalha, false},
		{ParadaFalha, ParadaEntregue, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRota_AdicionarParada(t *testing.T) {
	r := createTestRota(t, Endereco{Cidade: "A"}, Endereco{Cidade: "B"})
	require.Len(t, r.Paradas, 2)
	assert.Equal(t, 1, r.Paradas[0].OrdemEntrega)
	assert.Equal(t, 2, r.Paradas[1].OrdemEntrega)

	_, err := r.AdicionarParada("a", Endereco{})
	assert.ErrorIs(t, err, ErrParadaDuplicada)

	// ordering continues from the highest value, not the count
	r.Paradas[1].OrdemEntrega = 7
	p, err := r.AdicionarParada("z", Endereco{})
	require.NoError(t, err)
	assert.Equal(t, 8, p.OrdemEntrega)
}

func TestRota_FinalizarRequiresDeliveredStops(t *testing.T) {
	r := createTestRota(t, Endereco{}, Endereco{})
	require.NoError(t, r.AtualizarStatus(RotaEmAndamento))
	assert.NotNil(t, r.DataInicio)

	assert.ErrorIs(t, r.AtualizarStatus(RotaFinalizada), ErrRotaComParadasPendentes)

	for _, p := range r.Paradas {
		_, err := r.AtualizarStatusParada(p.ID, ParadaEntregue, "")
		require.NoError(t, err)
	}
	require.NoError(t, r.AtualizarStatus(RotaFinalizada))
	assert.NotNil(t, r.DataFim)

	_, err := r.AdicionarParada("new", Endereco{})
	assert.ErrorIs(t, err, ErrRotaEncerrada)
}

func TestRota_FinalizarKeepsFailedStops(t *testing.T) {
	r := createTestRota(t, Endereco{}, Endereco{}, Endereco{})
	assert.Error(t, r.Finalizar())

	require.NoError(t, r.AtualizarStatus(RotaEmAndamento))
	_, err := r.AtualizarStatusParada(r.Paradas[0].ID, ParadaFalha, "cliente ausente")
	require.NoError(t, err)
	_, err = r.AtualizarStatusParada(r.Paradas[1].ID, ParadaCancelada, "")
	require.NoError(t, err)
	assert.ErrorIs(t, r.AtualizarStatus(RotaFinalizada), ErrRotaComParadasPendentes)

	require.NoError(t, r.Finalizar())
	assert.Equal(t, RotaFinalizada, r.Status)
	assert.NotNil(t, r.DataFim)
	assert.Equal(t, ParadaFalha, r.Paradas[0].Status)
	assert.Equal(t, ParadaCancelada, r.Paradas[1].Status)
	assert.Equal(t, ParadaEntregue, r.Paradas[2].Status)
}

func TestRota_AtualizarStatusParada(t *testing.T) {
	r := createTestRota(t, Endereco{})
	id := r.Paradas[0].ID

	_, err := r.AtualizarStatusParada("missing", ParadaEntregue, "")
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))

	p, err := r.AtualizarStatusParada(id, ParadaFalha, "cliente ausente")
	require.NoError(t, err)
	assert.Equal(t, ParadaFalha, p.Status)
	assert.Equal(t, "cliente ausente", p.Observacao)

	_, err = r.AtualizarStatusParada(id, ParadaEntregue, "")
	var invalid *InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "parada", invalid.Entity)
}

func TestRota_FecharParadasAbertas(t *testing.T) {
	r := createTestRota(t, Endereco{}, Endereco{}, Endereco{})
	_, err := r.AtualizarStatusParada(r.Paradas[0].ID, ParadaFalha, "")
	require.NoError(t, err)

	closed := r.FecharParadasAbertas(ParadaEntregue)
	assert.Len(t, closed, 2)
	assert.Equal(t, ParadaFalha, r.Paradas[0].Status)
	assert.Equal(t, ParadaEntregue, r.Paradas[1].Status)
	assert.NotNil(t, r.Paradas[2].DataEntrega)
}

func TestRota_Otimizar(t *testing.T) {
	r := createTestRota(t,
		Endereco{UF: "SP", Cidade: "Santos", Latitude: -23.96, Longitude: -46.33},
		Endereco{UF: "RJ", Cidade: "Niteroi", Latitude: -22.88, Longitude: -43.10},
		Endereco{UF: "SP", Cidade: "Campinas", Latitude: -22.90, Longitude: -47.06},
		Endereco{UF: "MG", Cidade: "Belo Horizonte", Latitude: -19.92, Longitude: -43.94},
	)
	// stop "b" already left PENDENTE and must stay in front
	_, err := r.AtualizarStatusParada(r.Paradas[1].ID, ParadaEmAndamento, "")
	require.NoError(t, err)

	require.NoError(t, r.Otimizar())

	got := make([]string, len(r.Paradas))
	for i, p := range r.Paradas {
		got[i] = p.PedidoID
		assert.Equal(t, i+1, p.OrdemEntrega)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, got)
	assert.Greater(t, r.DistanciaTotalKm, 0.0)
}

func TestRota_OtimizarTerminal(t *testing.T) {
	r := NewRota("ROT-1", "")
	require.NoError(t, r.AtualizarStatus(RotaCancelada))
	assert.ErrorIs(t, r.Otimizar(), ErrRotaEncerrada)
}

func TestNewRotaRecebimento(t *testing.T) {
	r := NewRotaRecebimento("ROT-1", "T1", "DOCA-1")
	assert.Equal(t, RotaFinalizada, r.Status)
	require.Len(t, r.Paradas, 1)
	assert.Equal(t, ParadaEntregue, r.Paradas[0].Status)
	assert.Equal(t, "DOCA-1", r.Paradas[0].Destino.Logradouro)
	assert.False(t, r.IsDisponivel())
}

func TestHaversine(t *testing.T) {
	sp := Endereco{Latitude: -23.55, Longitude: -46.63}
	rj := Endereco{Latitude: -22.91, Longitude: -43.17}
	d := Haversine(sp, rj)
	assert.InDelta(t, 360, d, 10)
	assert.Zero(t, Haversine(sp, sp))
}
