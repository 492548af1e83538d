package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

func TestCriarPedido(t *testing.T) {
	f := newFixture(t)

	p := f.novoPedido(t, EnderecoDTO{UF: "SP", Cidade: "Campinas"})

	assert.Equal(t, string(domain.PedidoPendente), p.Status)
	assert.Regexp(t, `^PED-\d{8}-000001$`, p.Codigo)
	assert.Nil(t, p.ConferenciaID)
	assert.Nil(t, p.TransporteID)

	historico, err := f.pedidos.Rastreamento(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, historico, 1)
	assert.Equal(t, domain.EventoCriado, historico[0].Evento)
	assert.Equal(t, string(domain.PedidoPendente), historico[0].Status)
}

func TestPedidoLifecycle_HistoryFollowsTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.novoPedido(t, EnderecoDTO{UF: "SP", Cidade: "Sao Paulo"})
	rec, err := f.recebimentos.CriarRecebimento(ctx, CriarRecebimentoCommand{Fornecedor: "ACME", Origem: "CD-RJ"})
	require.NoError(t, err)
	_, err = f.pedidos.AssociarRelacao(ctx, p.ID, domain.RelacaoRecebimento, rec.ID)
	require.NoError(t, err)

	recebido, err := f.recebimentos.ConcluirRecebimento(ctx, rec.ID, "operador")
	require.NoError(t, err)
	f.validar(t, recebido.Conferencia.ID, p.ID)
	_, err = f.conferencias.ConcluirConferencia(ctx, recebido.Conferencia.ID, ConclusaoExtra{GerarSeparacao: true, Usuario: "operador"})
	require.NoError(t, err)

	separacao := f.separacaoAtiva(t, p.ID)
	separado, err := f.separacoes.MarcarComoSeparado(ctx, separacao.ID, "picker")
	require.NoError(t, err)
	_, err = f.separacoes.MarcarComoColetado(ctx, separado.Coleta.ID)
	require.NoError(t, err)

	historico, err := f.pedidos.Rastreamento(ctx, p.ID)
	require.NoError(t, err)

	var statuses []domain.PedidoStatus
	for _, ev := range historico {
		if ev.Evento == domain.EventoVinculado || ev.Evento == domain.EventoDesvinculado {
			continue
		}
		statuses = append(statuses, domain.PedidoStatus(ev.Status))
	}
	assert.Equal(t, []domain.PedidoStatus{
		domain.PedidoPendente,
		domain.PedidoRecebido,
		domain.PedidoAguardandoConferencia,
		domain.PedidoValidado,
		domain.PedidoEmEstoque,
		domain.PedidoAguardandoSeparacao,
		domain.PedidoAguardandoColeta,
		domain.PedidoEmTransito,
	}, statuses)
	for i := 1; i < len(statuses); i++ {
		assert.True(t, statuses[i-1].CanTransitionTo(statuses[i]), "%s -> %s", statuses[i-1], statuses[i])
	}
	assert.Equal(t, string(domain.PedidoEmTransito), f.pedido(t, p.ID).Status)
}

func TestAssociarEmLote_OneConflictRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1, err := f.transportes.CriarTransporte(ctx, CriarTransporteCommand{Tipo: domain.TipoOutbound})
	require.NoError(t, err)
	t2, err := f.transportes.CriarTransporte(ctx, CriarTransporteCommand{Tipo: domain.TipoOutbound})
	require.NoError(t, err)

	ids := f.novosPedidos(t, 3)
	_, err = f.pedidos.AssociarRelacao(ctx, ids[2], domain.RelacaoTransporte, t2.ID)
	require.NoError(t, err)

	_, err = f.pedidos.AssociarEmLote(ctx, ids, domain.RelacaoTransporte, t1.ID)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	assert.Nil(t, f.pedido(t, ids[0]).TransporteID)
	assert.Nil(t, f.pedido(t, ids[1]).TransporteID)
	require.NotNil(t, f.pedido(t, ids[2]).TransporteID)
	assert.Equal(t, t2.ID, *f.pedido(t, ids[2]).TransporteID)
}

func TestAssociarRelacao_SameRelationIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conf, ids := f.conferenciaInbound(t, 1)

	p, err := f.pedidos.AssociarRelacao(ctx, ids[0], domain.RelacaoConferencia, conf.ID)
	require.NoError(t, err)
	require.NotNil(t, p.ConferenciaID)
	assert.Equal(t, conf.ID, *p.ConferenciaID)

	detalhe, err := f.conferencias.Obter(ctx, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detalhe.TotalPedidos)
}

func TestAssociarRelacao_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.novoPedido(t, EnderecoDTO{})

	t.Run("unknown relation target", func(t *testing.T) {
		_, err := f.pedidos.AssociarRelacao(ctx, p.ID, domain.RelacaoConferencia, "missing")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("unknown order", func(t *testing.T) {
		conf, err := f.conferencias.CriarConferencia(ctx, CriarConferenciaCommand{Tipo: domain.TipoInbound})
		require.NoError(t, err)
		_, err = f.pedidos.AssociarRelacao(ctx, "missing", domain.RelacaoConferencia, conf.ID)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := f.pedidos.AssociarEmLote(ctx, nil, domain.RelacaoTransporte, "x")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeValidationError))
	})
}

func TestRemoverRelacao(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conf, ids := f.conferenciaInbound(t, 2)

	p, err := f.pedidos.RemoverRelacao(ctx, ids[0], domain.RelacaoConferencia)
	require.NoError(t, err)
	assert.Nil(t, p.ConferenciaID)

	detalhe, err := f.conferencias.Obter(ctx, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detalhe.TotalPedidos)

	_, err = f.pedidos.RemoverRelacao(ctx, ids[0], domain.RelacaoConferencia)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestRemoverEmLote_ConcludedConferenceRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conf, ids := f.conferenciaInbound(t, 2)
	f.validar(t, conf.ID, ids...)
	_, err := f.conferencias.ConcluirConferencia(ctx, conf.ID, ConclusaoExtra{})
	require.NoError(t, err)

	_, err = f.pedidos.RemoverEmLote(ctx, ids, domain.RelacaoConferencia)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConferenciaConcluida)
	assert.Equal(t, conf.ID, *f.pedido(t, ids[0]).ConferenciaID)
}

func TestAtualizarStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.novoPedido(t, EnderecoDTO{})

	t.Run("allowed transition records history", func(t *testing.T) {
		got, err := f.pedidos.AtualizarStatus(ctx, AtualizarStatusPedidoCommand{
			PedidoID: p.ID, Status: domain.PedidoProcessando, Local: "CD-SP", Observacao: "manual",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.PedidoProcessando), got.Status)

		historico, err := f.pedidos.Rastreamento(ctx, p.ID)
		require.NoError(t, err)
		last := historico[len(historico)-1]
		assert.Equal(t, domain.EventoStatusAtualizado, last.Evento)
		assert.Equal(t, "CD-SP", last.Local)
	})

	t.Run("forbidden transition", func(t *testing.T) {
		_, err := f.pedidos.AtualizarStatus(ctx, AtualizarStatusPedidoCommand{PedidoID: p.ID, Status: domain.PedidoEntregue})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidTransition(err))
		assert.Equal(t, string(domain.PedidoProcessando), f.pedido(t, p.ID).Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.pedidos.AtualizarStatus(ctx, AtualizarStatusPedidoCommand{PedidoID: p.ID, Status: "VOANDO"})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeValidationError))
	})
}

func TestRemover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("linked order is kept", func(t *testing.T) {
		_, ids := f.conferenciaInbound(t, 1)
		err := f.pedidos.Remover(ctx, ids[0])
		require.Error(t, err)
		assert.True(t, errors.IsConflict(err))
		f.pedido(t, ids[0])
	})

	t.Run("free order disappears", func(t *testing.T) {
		p := f.novoPedido(t, EnderecoDTO{})
		require.NoError(t, f.pedidos.Remover(ctx, p.ID))

		_, err := f.pedidos.Obter(ctx, p.ID)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func (f *fixture) separacaoAtiva(t *testing.T, pedidoID string) *domain.Separacao {
	t.Helper()
	var separacao *domain.Separacao
	require.NoError(t, f.store.WithinTransaction(context.Background(), "test.read", func(ctx context.Context, tx domain.Tx) error {
		var err error
		separacao, err = tx.Separacoes().FindAtivaByPedido(ctx, pedidoID)
		return err
	}))
	require.NotNil(t, separacao)
	return separacao
}
