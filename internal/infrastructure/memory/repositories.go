package memory

import (
	"context"
	"sort"
	"time"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

func copyPedido(p *domain.Pedido) *domain.Pedido {
	c := *p
	c.ClearDomainEvents()
	return &c
}

func copyConferencia(v *domain.Conferencia) *domain.Conferencia {
	c := *v
	c.ClearDomainEvents()
	return &c
}

func copyTransporte(v *domain.Transporte) *domain.Transporte {
	c := *v
	c.ClearDomainEvents()
	return &c
}

func copyRota(v *domain.Rota) *domain.Rota {
	c := *v
	c.Paradas = append([]domain.Parada(nil), v.Paradas...)
	c.ClearDomainEvents()
	return &c
}

func copySeparacao(v *domain.Separacao) *domain.Separacao {
	c := *v
	c.ClearDomainEvents()
	return &c
}

func copyColeta(v *domain.Coleta) *domain.Coleta {
	c := *v
	c.ClearDomainEvents()
	return &c
}

func copyExcecao(v *domain.Excecao) *domain.Excecao {
	c := *v
	c.Historico = append([]domain.HistoricoExcecao(nil), v.Historico...)
	c.ClearDomainEvents()
	return &c
}

func copyRecebimento(v *domain.Recebimento) *domain.Recebimento {
	c := *v
	c.ClearDomainEvents()
	return &c
}

func copyTransferencia(v *domain.Transferencia) *domain.Transferencia {
	c := *v
	c.ClearDomainEvents()
	return &c
}

// Pedidos

type pedidoRepo struct{ st *state }

func (r pedidoRepo) Save(ctx context.Context, p *domain.Pedido) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.pedidos[p.ID] = copyPedido(p)
	r.st.drain(p)
	return nil
}

func (r pedidoRepo) FindByID(ctx context.Context, id string) (*domain.Pedido, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := r.st.pedidos[id]
	if !ok || p.IsDeleted() {
		return nil, nil
	}
	return copyPedido(p), nil
}

func (r pedidoRepo) filter(ctx context.Context, match func(*domain.Pedido) bool) ([]*domain.Pedido, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.Pedido
	for _, p := range r.st.pedidos {
		if !p.IsDeleted() && match(p) {
			out = append(out, copyPedido(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Codigo < out[j].Codigo
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r pedidoRepo) FindByConferencia(ctx context.Context, conferenciaID string) ([]*domain.Pedido, error) {
	return r.filter(ctx, func(p *domain.Pedido) bool { return p.ConferenciaID == conferenciaID })
}

func (r pedidoRepo) FindByConferenciaAndStatus(ctx context.Context, conferenciaID string, status domain.PedidoStatus) ([]*domain.Pedido, error) {
	return r.filter(ctx, func(p *domain.Pedido) bool {
		return p.ConferenciaID == conferenciaID && p.Status == status
	})
}

func (r pedidoRepo) FindByTransporte(ctx context.Context, transporteID string) ([]*domain.Pedido, error) {
	return r.filter(ctx, func(p *domain.Pedido) bool { return p.TransporteID == transporteID })
}

func (r pedidoRepo) FindByRecebimento(ctx context.Context, recebimentoID string) ([]*domain.Pedido, error) {
	return r.filter(ctx, func(p *domain.Pedido) bool { return p.RecebimentoID == recebimentoID })
}

func (r pedidoRepo) CountByConferencia(ctx context.Context, conferenciaID string) (int, error) {
	found, err := r.FindByConferencia(ctx, conferenciaID)
	return len(found), err
}

func (r pedidoRepo) CountByConferenciaAndStatus(ctx context.Context, conferenciaID string, status domain.PedidoStatus) (int, error) {
	found, err := r.FindByConferenciaAndStatus(ctx, conferenciaID, status)
	return len(found), err
}

// Rastreamentos

type rastreamentoRepo struct{ st *state }

func (r rastreamentoRepo) Append(ctx context.Context, ev *domain.EventoRastreamento) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := *ev
	r.st.rastreamentos = append(r.st.rastreamentos, &c)
	return nil
}

func (r rastreamentoRepo) FindByPedido(ctx context.Context, pedidoID string) ([]*domain.EventoRastreamento, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.EventoRastreamento
	for _, ev := range r.st.rastreamentos {
		if ev.PedidoID == pedidoID {
			c := *ev
			out = append(out, &c)
		}
	}
	return out, nil
}

// Conferencias

type conferenciaRepo struct{ st *state }

func (r conferenciaRepo) Save(ctx context.Context, c *domain.Conferencia) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.conferencias[c.ID] = copyConferencia(c)
	r.st.drain(c)
	return nil
}

func (r conferenciaRepo) FindByID(ctx context.Context, id string) (*domain.Conferencia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := r.st.conferencias[id]
	if !ok {
		return nil, nil
	}
	return copyConferencia(c), nil
}

// Transportes

type transporteRepo struct{ st *state }

func (r transporteRepo) Save(ctx context.Context, t *domain.Transporte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.transportes[t.ID] = copyTransporte(t)
	r.st.drain(t)
	return nil
}

func (r transporteRepo) FindByID(ctx context.Context, id string) (*domain.Transporte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := r.st.transportes[id]
	if !ok {
		return nil, nil
	}
	return copyTransporte(t), nil
}

// Motoristas

type motoristaRepo struct{ st *state }

func (r motoristaRepo) Save(ctx context.Context, m *domain.Motorista) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := *m
	r.st.motoristas[m.ID] = &c
	return nil
}

func (r motoristaRepo) FindByID(ctx context.Context, id string) (*domain.Motorista, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok := r.st.motoristas[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

// Rotas

type rotaRepo struct{ st *state }

func (r rotaRepo) Save(ctx context.Context, rota *domain.Rota) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.rotas[rota.ID] = copyRota(rota)
	r.st.drain(rota)
	return nil
}

func (r rotaRepo) FindByID(ctx context.Context, id string) (*domain.Rota, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rota, ok := r.st.rotas[id]
	if !ok {
		return nil, nil
	}
	return copyRota(rota), nil
}

func (r rotaRepo) FindDisponiveis(ctx context.Context) ([]*domain.Rota, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.Rota
	for _, rota := range r.st.rotas {
		if rota.IsDisponivel() {
			out = append(out, copyRota(rota))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out, nil
}

// Separacoes

type separacaoRepo struct{ st *state }

func (r separacaoRepo) Save(ctx context.Context, s *domain.Separacao) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.separacoes[s.ID] = copySeparacao(s)
	r.st.drain(s)
	return nil
}

func (r separacaoRepo) FindByID(ctx context.Context, id string) (*domain.Separacao, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := r.st.separacoes[id]
	if !ok {
		return nil, nil
	}
	return copySeparacao(s), nil
}

func (r separacaoRepo) FindAtivaByPedido(ctx context.Context, pedidoID string) (*domain.Separacao, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, s := range r.st.separacoes {
		if s.PedidoID == pedidoID && s.IsAtiva() {
			return copySeparacao(s), nil
		}
	}
	return nil, nil
}

// Coletas

type coletaRepo struct{ st *state }

func (r coletaRepo) Save(ctx context.Context, c *domain.Coleta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.coletas[c.ID] = copyColeta(c)
	r.st.drain(c)
	return nil
}

func (r coletaRepo) FindByID(ctx context.Context, id string) (*domain.Coleta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := r.st.coletas[id]
	if !ok {
		return nil, nil
	}
	return copyColeta(c), nil
}

func (r coletaRepo) FindBySeparacao(ctx context.Context, separacaoID string) ([]*domain.Coleta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.Coleta
	for _, c := range r.st.coletas {
		if c.SeparacaoID == separacaoID {
			out = append(out, copyColeta(c))
		}
	}
	return out, nil
}

// Excecoes

type excecaoRepo struct{ st *state }

func (r excecaoRepo) Create(ctx context.Context, e *domain.Excecao) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.excecoes[e.ID] = copyExcecao(e)
	r.st.drain(e)
	return nil
}

// SaveResolution copies only the resolution fields onto the stored record
func (r excecaoRepo) SaveResolution(ctx context.Context, e *domain.Excecao) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, ok := r.st.excecoes[e.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "excecao", ID: e.ID}
	}
	updated := copyExcecao(stored)
	updated.Status = e.Status
	updated.Responsavel = e.Responsavel
	updated.Resolucao = e.Resolucao
	updated.Historico = append([]domain.HistoricoExcecao(nil), e.Historico...)
	updated.UpdatedAt = e.UpdatedAt
	r.st.excecoes[e.ID] = updated
	r.st.drain(e)
	return nil
}

func (r excecaoRepo) FindByID(ctx context.Context, id string) (*domain.Excecao, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.st.excecoes[id]
	if !ok {
		return nil, nil
	}
	return copyExcecao(e), nil
}

func (r excecaoRepo) filter(ctx context.Context, match func(*domain.Excecao) bool) ([]*domain.Excecao, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.Excecao
	for _, e := range r.st.excecoes {
		if match(e) {
			out = append(out, copyExcecao(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out, nil
}

func (r excecaoRepo) FindByPedido(ctx context.Context, pedidoID string) ([]*domain.Excecao, error) {
	return r.filter(ctx, func(e *domain.Excecao) bool { return e.Vinculos.PedidoID == pedidoID })
}

func (r excecaoRepo) FindByConferencia(ctx context.Context, conferenciaID string) ([]*domain.Excecao, error) {
	return r.filter(ctx, func(e *domain.Excecao) bool { return e.Vinculos.ConferenciaID == conferenciaID })
}

// Estoques

type estoqueRepo struct{ st *state }

func (r estoqueRepo) Create(ctx context.Context, e *domain.EntradaEstoque) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := *e
	r.st.estoques = append(r.st.estoques, &c)
	return nil
}

func (r estoqueRepo) FindByPedido(ctx context.Context, pedidoID string) ([]*domain.EntradaEstoque, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.EntradaEstoque
	for _, e := range r.st.estoques {
		if e.PedidoID == pedidoID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// Recebimentos

type recebimentoRepo struct{ st *state }

func (r recebimentoRepo) Save(ctx context.Context, rec *domain.Recebimento) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.recebimentos[rec.ID] = copyRecebimento(rec)
	r.st.drain(rec)
	return nil
}

func (r recebimentoRepo) FindByID(ctx context.Context, id string) (*domain.Recebimento, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := r.st.recebimentos[id]
	if !ok {
		return nil, nil
	}
	return copyRecebimento(rec), nil
}

// LockForUpdate stamps the lock token. Transactions are already serialized
// by the store mutex, so the stamp only mirrors the persisted variant.
func (r recebimentoRepo) LockForUpdate(ctx context.Context, id, token string) (*domain.Recebimento, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := r.st.recebimentos[id]
	if !ok {
		return nil, nil
	}
	locked := copyRecebimento(rec)
	now := time.Now().UTC()
	locked.LockToken = token
	locked.LockedAt = &now
	r.st.recebimentos[id] = copyRecebimento(locked)
	return locked, nil
}

// Transferencias

type transferenciaRepo struct{ st *state }

func (r transferenciaRepo) Save(ctx context.Context, t *domain.Transferencia) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.transferencias[t.ID] = copyTransferencia(t)
	r.st.drain(t)
	return nil
}

func (r transferenciaRepo) FindByID(ctx context.Context, id string) (*domain.Transferencia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := r.st.transferencias[id]
	if !ok {
		return nil, nil
	}
	return copyTransferencia(t), nil
}
