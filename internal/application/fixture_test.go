package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/memory"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

type fixture struct {
	store          *memory.Store
	observer       *Observer
	pedidos        *PedidoService
	conferencias   *ConferenciaService
	transportes    *TransporteService
	rotas          *RotaService
	separacoes     *SeparacaoService
	excecoes       *ExcecaoService
	recebimentos   *RecebimentoService
	transferencias *TransferenciaService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, NewRecorder(DefaultUnitPenalty), nil)
}

func newFixtureWith(t *testing.T, recorder ExceptionRecorder, locker domain.Locker) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := logging.NewNop()
	observer := NewObserver(logger, nil)
	ledger := NewLedger()
	routes := NewRouteStops()

	return &fixture{
		store:          store,
		observer:       observer,
		pedidos:        NewPedidoService(store, ledger, observer),
		conferencias:   NewConferenciaService(store, ledger, recorder, routes, observer),
		transportes:    NewTransporteService(store, ledger, recorder, routes, observer),
		rotas:          NewRotaService(store, ledger, routes, observer),
		separacoes:     NewSeparacaoService(store, ledger, observer),
		excecoes:       NewExcecaoService(store, observer),
		recebimentos:   NewRecebimentoService(store, ledger, locker, time.Second, observer, logger),
		transferencias: NewTransferenciaService(store, observer),
	}
}

func (f *fixture) novoPedido(t *testing.T, destino EnderecoDTO) *PedidoDTO {
	t.Helper()
	p, err := f.pedidos.CriarPedido(context.Background(), CriarPedidoCommand{ClienteID: "CLI-1", Destino: destino})
	require.NoError(t, err)
	return p
}

func (f *fixture) novosPedidos(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.novoPedido(t, EnderecoDTO{UF: "SP", Cidade: "Sao Paulo", Bairro: fmt.Sprintf("B%02d", i)}).ID
	}
	return ids
}

// conferenciaInbound opens an INBOUND conference without shipment and links
// n fresh orders to it.
func (f *fixture) conferenciaInbound(t *testing.T, n int) (*ConferenciaDTO, []string) {
	t.Helper()
	ctx := context.Background()
	conf, err := f.conferencias.CriarConferencia(ctx, CriarConferenciaCommand{Tipo: domain.TipoInbound})
	require.NoError(t, err)
	ids := f.novosPedidos(t, n)
	_, err = f.pedidos.AssociarEmLote(ctx, ids, domain.RelacaoConferencia, conf.ID)
	require.NoError(t, err)
	return conf, ids
}

// conferenciaOutbound creates a shipment, optionally with a driver, and an
// OUTBOUND conference on it with n linked orders.
func (f *fixture) conferenciaOutbound(t *testing.T, n int, comMotorista bool) (*TransporteDTO, *ConferenciaDTO, []string) {
	t.Helper()
	ctx := context.Background()
	cmd := CriarTransporteCommand{Tipo: domain.TipoOutbound, Origem: "CD-SP", Destino: "Zona Sul"}
	if comMotorista {
		m, err := f.transportes.CriarMotorista(ctx, CriarMotoristaCommand{Nome: "Joana", CNH: "123"})
		require.NoError(t, err)
		cmd.MotoristaID = m.ID
	}
	transporte, err := f.transportes.CriarTransporte(ctx, cmd)
	require.NoError(t, err)
	conf, err := f.conferencias.CriarConferencia(ctx, CriarConferenciaCommand{Tipo: domain.TipoOutbound, TransporteID: transporte.ID})
	require.NoError(t, err)
	ids := f.novosPedidos(t, n)
	_, err = f.pedidos.AssociarEmLote(ctx, ids, domain.RelacaoConferencia, conf.ID)
	require.NoError(t, err)
	return transporte, conf, ids
}

func (f *fixture) validar(t *testing.T, conferenciaID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := f.conferencias.ValidarPedido(context.Background(), conferenciaID, id)
		require.NoError(t, err)
	}
}

func (f *fixture) pedido(t *testing.T, id string) *PedidoDTO {
	t.Helper()
	p, err := f.pedidos.Obter(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) excecoesDe(t *testing.T, match func(*domain.Excecao) bool) []*domain.Excecao {
	t.Helper()
	var found []*domain.Excecao
	published := f.store.PublishedEvents()
	require.NoError(t, f.store.WithinTransaction(context.Background(), "test.read", func(ctx context.Context, tx domain.Tx) error {
		for _, event := range published {
			registrada, ok := event.(*domain.ExcecaoRegistradaEvent)
			if !ok {
				continue
			}
			e, err := tx.Excecoes().FindByID(ctx, registrada.ExcecaoID)
			if err != nil {
				return err
			}
			if e != nil && match(e) {
				found = append(found, e)
			}
		}
		return nil
	}))
	return found
}

func ofTipo(tipo domain.TipoExcecao) func(*domain.Excecao) bool {
	return func(e *domain.Excecao) bool { return e.Tipo == tipo }
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, tx domain.Tx, r RegistroExcecao) (*domain.Excecao, error) {
	args := m.Called(ctx, tx, r)
	e, _ := args.Get(0).(*domain.Excecao)
	return e, args.Error(1)
}

func (m *mockRecorder) DivergenceImpact(diff int) decimal.Decimal {
	return m.Called(diff).Get(0).(decimal.Decimal)
}

func (m *mockRecorder) UnitPenalty() decimal.Decimal {
	return m.Called().Get(0).(decimal.Decimal)
}

type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return nil, domain.ErrLockNotObtained
}
