package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	sharedmongo "github.com/wms-platform/fulfillment-service/pkg/mongodb"
	testhelpers "github.com/wms-platform/fulfillment-service/pkg/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	testhelpers.SkipIfShort(t)
	ctx := testhelpers.CreateTestContext(t, 2*time.Minute)

	container, err := testhelpers.NewMongoDBContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	cfg := sharedmongo.DefaultConfig()
	cfg.URI = container.URI
	cfg.Database = "fulfillment_test"
	client, err := sharedmongo.NewClient(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	store := NewStore(client, cloudevents.NewEventFactory(cloudevents.SourceFulfillment))
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestStore_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("commit writes aggregate and outbox", func(t *testing.T) {
		p := domain.NewPedido("PED-INT-1", "cliente", domain.Endereco{Cidade: "Campinas", UF: "SP"})
		require.NoError(t, store.WithinTransaction(ctx, "create", func(ctx context.Context, tx domain.Tx) error {
			return tx.Pedidos().Save(ctx, p)
		}))

		var loaded *domain.Pedido
		require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
			var err error
			loaded, err = tx.Pedidos().FindByID(ctx, p.ID)
			return err
		}))
		require.NotNil(t, loaded)
		assert.Equal(t, "PED-INT-1", loaded.Codigo)
		assert.Equal(t, "Campinas", loaded.Destino.Cidade)

		events, err := store.Outbox().FindByAggregateID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "wms.fulfillment.pedido.created", events[0].EventType)
		assert.Equal(t, cloudevents.TopicFor("pedido"), events[0].Topic)
	})

	t.Run("error rolls back every write", func(t *testing.T) {
		p := domain.NewPedido("PED-INT-2", "", domain.Endereco{})
		boom := errors.New("boom")
		err := store.WithinTransaction(ctx, "create", func(ctx context.Context, tx domain.Tx) error {
			if err := tx.Pedidos().Save(ctx, p); err != nil {
				return err
			}
			if _, err := tx.Sequences().Next(ctx, "rollback"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
			loaded, err := tx.Pedidos().FindByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Nil(t, loaded)

			n, err := tx.Sequences().Next(ctx, "rollback")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			return nil
		}))

		events, err := store.Outbox().FindByAggregateID(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("conference finders skip deleted orders", func(t *testing.T) {
		validado := domain.NewPedido("PED-INT-3", "", domain.Endereco{})
		validado.ConferenciaID = "conf-1"
		require.NoError(t, validado.TransitionTo(domain.PedidoValidado))
		pendente := domain.NewPedido("PED-INT-4", "", domain.Endereco{})
		pendente.ConferenciaID = "conf-1"
		removido := domain.NewPedido("PED-INT-5", "", domain.Endereco{})
		removido.ConferenciaID = "conf-1"
		removido.DeletedAt = &removido.CreatedAt

		require.NoError(t, store.WithinTransaction(ctx, "seed", func(ctx context.Context, tx domain.Tx) error {
			for _, p := range []*domain.Pedido{validado, pendente, removido} {
				if err := tx.Pedidos().Save(ctx, p); err != nil {
					return err
				}
			}
			return nil
		}))

		require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
			total, err := tx.Pedidos().CountByConferencia(ctx, "conf-1")
			require.NoError(t, err)
			assert.Equal(t, 2, total)

			validados, err := tx.Pedidos().FindByConferenciaAndStatus(ctx, "conf-1", domain.PedidoValidado)
			require.NoError(t, err)
			require.Len(t, validados, 1)
			assert.Equal(t, validado.ID, validados[0].ID)

			gone, err := tx.Pedidos().FindByID(ctx, removido.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
			return nil
		}))
	})

	t.Run("exception resolution keeps filed fields", func(t *testing.T) {
		e := domain.NewExcecao(domain.NovaExcecao{
			Numero:            "EXC-INT-1",
			Tipo:              domain.ExcecaoDivergenciaQuantidade,
			Severidade:        domain.SeveridadeMedia,
			Titulo:            "Divergência",
			Vinculos:          domain.VinculosExcecao{PedidoID: "p-1", ConferenciaID: "conf-9"},
			Quantidade:        2,
			ImpactoFinanceiro: decimal.RequireFromString("50.00"),
		})
		require.NoError(t, store.WithinTransaction(ctx, "create", func(ctx context.Context, tx domain.Tx) error {
			return tx.Excecoes().Create(ctx, e)
		}))

		require.NoError(t, store.WithinTransaction(ctx, "analyse", func(ctx context.Context, tx domain.Tx) error {
			loaded, err := tx.Excecoes().FindByID(ctx, e.ID)
			require.NoError(t, err)
			require.NoError(t, loaded.IniciarAnalise("analista"))
			loaded.Quantidade = 99
			return tx.Excecoes().SaveResolution(ctx, loaded)
		}))

		require.NoError(t, store.WithinTransaction(ctx, "read", func(ctx context.Context, tx domain.Tx) error {
			byConf, err := tx.Excecoes().FindByConferencia(ctx, "conf-9")
			require.NoError(t, err)
			require.Len(t, byConf, 1)
			assert.Equal(t, domain.ExcecaoEmAnalise, byConf[0].Status)
			assert.Equal(t, 2, byConf[0].Quantidade)
			assert.Equal(t, "50.00", byConf[0].ImpactoFinanceiro.StringFixed(2))
			assert.Len(t, byConf[0].Historico, 2)
			return nil
		}))
	})

	t.Run("lock for update on missing manifest", func(t *testing.T) {
		require.NoError(t, store.WithinTransaction(ctx, "lock", func(ctx context.Context, tx domain.Tx) error {
			rec, err := tx.Recebimentos().LockForUpdate(ctx, "missing", "token")
			require.NoError(t, err)
			assert.Nil(t, rec)
			return nil
		}))
	})
}
