package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

func TestStore_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := domain.NewPedido("PED-1", "", domain.Endereco{})

	require.NoError(t, store.WithinTransaction(ctx, "create", func(ctx context.Context, tx domain.Tx) error {
		return tx.Pedidos().Save(ctx, p)
	}))

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, "update", func(ctx context.Context, tx domain.Tx) error {
		loaded, err := tx.Pedidos().FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.TransitionTo(domain.PedidoRecebido))
		require.NoError(t, tx.Pedidos().Save(ctx, loaded))
		_, err = tx.Sequences().Next(ctx, "PED")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
		loaded, err := tx.Pedidos().FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PedidoPendente, loaded.Status)

		n, err := tx.Sequences().Next(ctx, "PED")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "rolled back sequence draws are discarded")
		return nil
	}))

	events := store.PublishedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "wms.fulfillment.pedido.created", events[0].EventType())
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rota := domain.NewRota("ROT-1", "")
	_, err := rota.AdicionarParada("P1", domain.Endereco{})
	require.NoError(t, err)

	require.NoError(t, store.WithinTransaction(ctx, "save", func(ctx context.Context, tx domain.Tx) error {
		return tx.Rotas().Save(ctx, rota)
	}))

	rota.Paradas[0].Status = domain.ParadaEntregue

	require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
		loaded, err := tx.Rotas().FindByID(ctx, rota.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ParadaPendente, loaded.Paradas[0].Status)
		assert.Empty(t, loaded.DomainEvents())

		disponiveis, err := tx.Rotas().FindDisponiveis(ctx)
		require.NoError(t, err)
		assert.Len(t, disponiveis, 1)
		return nil
	}))
}

func TestStore_CancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithinTransaction(ctx, "noop", func(ctx context.Context, tx domain.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExcecaoRepo_SaveResolutionKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	e := domain.NewExcecao(domain.NovaExcecao{Numero: "EXC-1", Tipo: domain.ExcecaoNoShow, Titulo: "original"})

	require.NoError(t, store.WithinTransaction(ctx, "create", func(ctx context.Context, tx domain.Tx) error {
		return tx.Excecoes().Create(ctx, e)
	}))

	require.NoError(t, store.WithinTransaction(ctx, "resolve", func(ctx context.Context, tx domain.Tx) error {
		loaded, err := tx.Excecoes().FindByID(ctx, e.ID)
		require.NoError(t, err)
		loaded.Titulo = "tampered"
		require.NoError(t, loaded.IniciarAnalise("ana"))
		return tx.Excecoes().SaveResolution(ctx, loaded)
	}))

	require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
		loaded, err := tx.Excecoes().FindByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", loaded.Titulo)
		assert.Equal(t, domain.ExcecaoEmAnalise, loaded.Status)
		assert.Equal(t, "ana", loaded.Responsavel)
		assert.Len(t, loaded.Historico, 2)
		return nil
	}))
}
