package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

func TestRota_StopsAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp := f.novoPedido(t, EnderecoDTO{UF: "SP", Cidade: "Sao Paulo", Latitude: -23.55, Longitude: -46.63})
	rj := f.novoPedido(t, EnderecoDTO{UF: "RJ", Cidade: "Rio de Janeiro", Latitude: -22.90, Longitude: -43.17})
	_, err := f.pedidos.AtualizarStatus(ctx, AtualizarStatusPedidoCommand{PedidoID: sp.ID, Status: domain.PedidoValidado})
	require.NoError(t, err)

	rota, err := f.rotas.CriarRota(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RotaCriada), rota.Status)
	assert.Nil(t, rota.TransporteID)

	rota, err = f.rotas.AdicionarParadasRota(ctx, rota.ID, []string{sp.ID, rj.ID})
	require.NoError(t, err)
	require.Len(t, rota.Paradas, 2)
	assert.Equal(t, sp.ID, *rota.Paradas[0].PedidoID)

	t.Run("duplicate stop rejects the batch", func(t *testing.T) {
		outro := f.novoPedido(t, EnderecoDTO{UF: "MG"})
		_, err := f.rotas.AdicionarParadasRota(ctx, rota.ID, []string{outro.ID, sp.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrParadaDuplicada)

		got, err := f.rotas.Obter(ctx, rota.ID)
		require.NoError(t, err)
		assert.Len(t, got.Paradas, 2)
	})

	t.Run("optimize orders pending stops by locality", func(t *testing.T) {
		got, err := f.rotas.OtimizarRota(ctx, rota.ID)
		require.NoError(t, err)
		require.Len(t, got.Paradas, 2)
		assert.Equal(t, rj.ID, *got.Paradas[0].PedidoID)
		assert.Equal(t, 1, got.Paradas[0].OrdemEntrega)
		assert.Equal(t, sp.ID, *got.Paradas[1].PedidoID)
		assert.Greater(t, got.DistanciaTotalKm, 300.0)
	})

	t.Run("finalize from CRIADA is invalid", func(t *testing.T) {
		_, err := f.rotas.AtualizarStatusRota(ctx, rota.ID, domain.RotaFinalizada)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidTransition(err))
	})

	started, err := f.rotas.AtualizarStatusRota(ctx, rota.ID, domain.RotaEmAndamento)
	require.NoError(t, err)
	assert.NotNil(t, started.DataInicio)

	t.Run("finalize with open stops conflicts", func(t *testing.T) {
		_, err := f.rotas.AtualizarStatusRota(ctx, rota.ID, domain.RotaFinalizada)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRotaComParadasPendentes)
		assert.Equal(t, "CONFLICT: "+domain.ErrRotaComParadasPendentes.Message, err.Error())
	})

	for _, parada := range started.Paradas {
		_, err := f.rotas.AtualizarStatusParada(ctx, AtualizarStatusParadaCommand{
			RotaID: rota.ID, ParadaID: parada.ID, Status: domain.ParadaEntregue, Observacao: "recebido na portaria",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, string(domain.PedidoEntregue), f.pedido(t, sp.ID).Status)
	assert.Equal(t, string(domain.PedidoPendente), f.pedido(t, rj.ID).Status)

	finalizada, err := f.rotas.AtualizarStatusRota(ctx, rota.ID, domain.RotaFinalizada)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RotaFinalizada), finalizada.Status)
	assert.NotNil(t, finalizada.DataFim)

	_, err = f.rotas.OtimizarRota(ctx, rota.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRotaEncerrada)
}

func TestAtualizarStatusParada_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rota, err := f.rotas.CriarRota(ctx)
	require.NoError(t, err)

	t.Run("unknown stop", func(t *testing.T) {
		_, err := f.rotas.AtualizarStatusParada(ctx, AtualizarStatusParadaCommand{RotaID: rota.ID, ParadaID: "missing", Status: domain.ParadaEntregue})
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.rotas.AtualizarStatusParada(ctx, AtualizarStatusParadaCommand{RotaID: rota.ID, ParadaID: "x", Status: "PERDIDA"})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeValidationError))
	})

	t.Run("closed stop", func(t *testing.T) {
		p := f.novoPedido(t, EnderecoDTO{})
		got, err := f.rotas.AdicionarParadasRota(ctx, rota.ID, []string{p.ID})
		require.NoError(t, err)
		paradaID := got.Paradas[0].ID
		_, err = f.rotas.AtualizarStatusParada(ctx, AtualizarStatusParadaCommand{RotaID: rota.ID, ParadaID: paradaID, Status: domain.ParadaFalha})
		require.NoError(t, err)

		_, err = f.rotas.AtualizarStatusParada(ctx, AtualizarStatusParadaCommand{RotaID: rota.ID, ParadaID: paradaID, Status: domain.ParadaEntregue})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidTransition(err))
	})
}

func TestRotasDisponiveis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	livre, err := f.rotas.CriarRota(ctx)
	require.NoError(t, err)
	atribuida, err := f.rotas.CriarRota(ctx)
	require.NoError(t, err)
	transporte, err := f.transportes.CriarTransporte(ctx, CriarTransporteCommand{Tipo: domain.TipoOutbound})
	require.NoError(t, err)
	_, err = f.transportes.AtribuirRota(ctx, transporte.ID, atribuida.ID)
	require.NoError(t, err)

	rotas, err := f.rotas.RotasDisponiveis(ctx)
	require.NoError(t, err)
	require.Len(t, rotas, 1)
	assert.Equal(t, livre.ID, rotas[0].ID)
}
