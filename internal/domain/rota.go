package domain

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RotaStatus represents the status of a delivery route
type RotaStatus string

const (
	RotaCriada      RotaStatus = "CRIADA"
	RotaEmAndamento RotaStatus = "EM_ANDAMENTO"
	RotaFinalizada  RotaStatus = "FINALIZADA"
	RotaCancelada   RotaStatus = "CANCELADA"
)

var rotaTransitions = map[RotaStatus][]RotaStatus{
	RotaCriada:      {RotaEmAndamento, RotaCancelada},
	RotaEmAndamento: {RotaFinalizada, RotaCancelada},
	RotaFinalizada:  {},
	RotaCancelada:   {},
}

// IsValid reports whether s is a known route status
func (s RotaStatus) IsValid() bool {
	_, ok := rotaTransitions[s]
	return ok
}

// CanTransitionTo checks if the route can move from s to target
func (s RotaStatus) CanTransitionTo(target RotaStatus) bool {
	for _, allowed := range rotaTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges
func (s RotaStatus) IsTerminal() bool {
	return len(rotaTransitions[s]) == 0
}

// ParadaStatus represents the status of a route stop
type ParadaStatus string

const (
	ParadaPendente    ParadaStatus = "PENDENTE"
	ParadaEmAndamento ParadaStatus = "EM_ANDAMENTO"
	ParadaEntregue    ParadaStatus = "ENTREGUE"
	ParadaFalha       ParadaStatus = "FALHA"
	ParadaCancelada   ParadaStatus = "CANCELADA"
)

var paradaTransitions = map[ParadaStatus][]ParadaStatus{
	ParadaPendente:    {ParadaEmAndamento, ParadaEntregue, ParadaFalha, ParadaCancelada},
	ParadaEmAndamento: {ParadaEntregue, ParadaFalha, ParadaCancelada},
	ParadaEntregue:    {},
	ParadaFalha:       {},
	ParadaCancelada:   {},
}

// IsValid reports whether s is a known stop status
func (s ParadaStatus) IsValid() bool {
	_, ok := paradaTransitions[s]
	return ok
}

// CanTransitionTo checks if the stop can move from s to target
func (s ParadaStatus) CanTransitionTo(target ParadaStatus) bool {
	for _, allowed := range paradaTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsOpen reports whether the stop still awaits an outcome
func (s ParadaStatus) IsOpen() bool {
	return s == ParadaPendente || s == ParadaEmAndamento
}

// Parada is a single delivery stop embedded in its route
type Parada struct {
	ID           string       `bson:"id"`
	PedidoID     string       `bson:"pedidoId,omitempty"`
	OrdemEntrega int          `bson:"ordemEntrega"`
	Destino      Endereco     `bson:"destino"`
	Status       ParadaStatus `bson:"status"`
	DataEntrega  *time.Time   `bson:"dataEntrega,omitempty"`
	Observacao   string       `bson:"observacao,omitempty"`
	CreatedAt    time.Time    `bson:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt"`
}

// Rota is the aggregate root for a driver route and its ordered stops
type Rota struct {
	events           `bson:"-"`
	ID               string     `bson:"_id"`
	Codigo           string     `bson:"codigo"`
	Status           RotaStatus `bson:"status"`
	TransporteID     string     `bson:"transporteId,omitempty"`
	Paradas          []Parada   `bson:"paradas"`
	DistanciaTotalKm float64    `bson:"distanciaTotalKm"`
	DataInicio       *time.Time `bson:"dataInicio,omitempty"`
	DataFim          *time.Time `bson:"dataFim,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt"`
}

// NewRota creates an empty route in CRIADA
func NewRota(codigo, transporteID string) *Rota {
	now := time.Now().UTC()
	r := &Rota{
		ID:           uuid.NewString(),
		Codigo:       codigo,
		Status:       RotaCriada,
		TransporteID: transporteID,
		Paradas:      []Parada{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.addEvent(&RotaCriadaEvent{RotaID: r.ID, Codigo: codigo, TransporteID: transporteID, Status: string(r.Status), CreatedAt: now})
	return r
}

// NewRotaRecebimento creates the already finished single-stop route that
// records an inbound receiving movement at local.
func NewRotaRecebimento(codigo, transporteID, local string) *Rota {
	now := time.Now().UTC()
	r := &Rota{
		ID:           uuid.NewString(),
		Codigo:       codigo,
		Status:       RotaFinalizada,
		TransporteID: transporteID,
		Paradas: []Parada{{
			ID:           uuid.NewString(),
			OrdemEntrega: 1,
			Destino:      Endereco{Logradouro: local},
			Status:       ParadaEntregue,
			DataEntrega:  &now,
			Observacao:   "recebimento",
			CreatedAt:    now,
			UpdatedAt:    now,
		}},
		DataInicio: &now,
		DataFim:    &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.addEvent(&RotaCriadaEvent{RotaID: r.ID, Codigo: codigo, TransporteID: transporteID, Status: string(r.Status), CreatedAt: now})
	return r
}

// IsTerminal reports whether the route is closed
func (r *Rota) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// IsDisponivel reports whether the route can still be attached to a shipment
func (r *Rota) IsDisponivel() bool {
	return r.TransporteID == "" && !r.IsTerminal()
}

// VincularTransporte records the owning shipment
func (r *Rota) VincularTransporte(transporteID string) error {
	if r.IsTerminal() {
		return ErrRotaEncerrada
	}
	if r.TransporteID != "" && r.TransporteID != transporteID {
		return ErrRotaJaAtribuida
	}
	r.TransporteID = transporteID
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Parada returns the stop with id, or nil
func (r *Rota) Parada(id string) *Parada {
	for i := range r.Paradas {
		if r.Paradas[i].ID == id {
			return &r.Paradas[i]
		}
	}
	return nil
}

// ParadaDoPedido returns the stop serving pedidoID, or nil
func (r *Rota) ParadaDoPedido(pedidoID string) *Parada {
	for i := range r.Paradas {
		if r.Paradas[i].PedidoID == pedidoID {
			return &r.Paradas[i]
		}
	}
	return nil
}

// MaxOrdem returns the highest delivery order on the route, 0 when empty
func (r *Rota) MaxOrdem() int {
	highest := 0
	for _, p := range r.Paradas {
		if p.OrdemEntrega > highest {
			highest = p.OrdemEntrega
		}
	}
	return highest
}

// CheckNovaParada reports whether a stop for pedidoID can be appended
func (r *Rota) CheckNovaParada(pedidoID string) error {
	if r.IsTerminal() {
		return ErrRotaEncerrada
	}
	if pedidoID != "" && r.ParadaDoPedido(pedidoID) != nil {
		return ErrParadaDuplicada
	}
	return nil
}

// AdicionarParada appends a stop after the current highest delivery order
func (r *Rota) AdicionarParada(pedidoID string, destino Endereco) (*Parada, error) {
	if err := r.CheckNovaParada(pedidoID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r.Paradas = append(r.Paradas, Parada{
		ID:           uuid.NewString(),
		PedidoID:     pedidoID,
		OrdemEntrega: r.MaxOrdem() + 1,
		Destino:      destino,
		Status:       ParadaPendente,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	r.DistanciaTotalKm = r.calcularDistancia()
	r.UpdatedAt = now

	parada := &r.Paradas[len(r.Paradas)-1]
	r.addEvent(&ParadaAdicionadaEvent{RotaID: r.ID, ParadaID: parada.ID, PedidoID: pedidoID, OrdemEntrega: parada.OrdemEntrega, AddedAt: now})
	return parada, nil
}

// AtualizarStatus moves the route along its graph. FINALIZADA requires every
// stop to be delivered.
func (r *Rota) AtualizarStatus(target RotaStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{Entity: "rota", From: string(r.Status), To: string(target)}
	}
	if target == RotaFinalizada {
		for _, p := range r.Paradas {
			if p.Status != ParadaEntregue {
				return ErrRotaComParadasPendentes
			}
		}
	}
	r.moveTo(target)
	return nil
}

// Finalizar closes the route on behalf of its shipment. Open stops are
// delivered; stops that already failed or were cancelled keep their status.
func (r *Rota) Finalizar() error {
	if !r.Status.CanTransitionTo(RotaFinalizada) {
		return &InvalidTransitionError{Entity: "rota", From: string(r.Status), To: string(RotaFinalizada)}
	}
	r.FecharParadasAbertas(ParadaEntregue)
	r.moveTo(RotaFinalizada)
	return nil
}

func (r *Rota) moveTo(target RotaStatus) {
	now := time.Now().UTC()
	from := r.Status
	r.Status = target
	switch target {
	case RotaEmAndamento:
		r.DataInicio = &now
	case RotaFinalizada, RotaCancelada:
		r.DataFim = &now
	}
	r.UpdatedAt = now
	r.addEvent(&RotaStatusAlteradoEvent{RotaID: r.ID, From: string(from), To: string(target), ChangedAt: now})
}

// FecharParadasAbertas moves every open stop to target and returns the
// stops it touched.
func (r *Rota) FecharParadasAbertas(target ParadaStatus) []Parada {
	var closed []Parada
	for i := range r.Paradas {
		if !r.Paradas[i].Status.IsOpen() {
			continue
		}
		r.setParadaStatus(&r.Paradas[i], target)
		closed = append(closed, r.Paradas[i])
	}
	return closed
}

// AtualizarStatusParada moves one stop along the stop graph
func (r *Rota) AtualizarStatusParada(paradaID string, target ParadaStatus, observacao string) (*Parada, error) {
	parada := r.Parada(paradaID)
	if parada == nil {
		return nil, &NotFoundError{Entity: "parada", ID: paradaID}
	}
	if r.IsTerminal() {
		return nil, ErrRotaEncerrada
	}
	if !parada.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{Entity: "parada", From: string(parada.Status), To: string(target)}
	}
	if observacao != "" {
		parada.Observacao = observacao
	}
	r.setParadaStatus(parada, target)
	return parada, nil
}

func (r *Rota) setParadaStatus(p *Parada, target ParadaStatus) {
	now := time.Now().UTC()
	from := p.Status
	p.Status = target
	if target == ParadaEntregue {
		p.DataEntrega = &now
	}
	p.UpdatedAt = now
	r.UpdatedAt = now
	r.addEvent(&ParadaStatusAlteradoEvent{
		RotaID:    r.ID,
		ParadaID:  p.ID,
		PedidoID:  p.PedidoID,
		From:      string(from),
		To:        string(target),
		ChangedAt: now,
	})
}

// Otimizar re-sequences the route. Stops that already left PENDENTE keep
// their relative order at the front; pending stops follow, sorted by
// locality key. Delivery order is renumbered 1..n.
func (r *Rota) Otimizar() error {
	if r.IsTerminal() {
		return ErrRotaEncerrada
	}

	sort.SliceStable(r.Paradas, func(i, j int) bool {
		return r.Paradas[i].OrdemEntrega < r.Paradas[j].OrdemEntrega
	})
	var fixed, pending []Parada
	for _, p := range r.Paradas {
		if p.Status == ParadaPendente {
			pending = append(pending, p)
		} else {
			fixed = append(fixed, p)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Destino.LocalityKey() < pending[j].Destino.LocalityKey()
	})

	r.Paradas = append(fixed, pending...)
	for i := range r.Paradas {
		r.Paradas[i].OrdemEntrega = i + 1
	}
	r.DistanciaTotalKm = r.calcularDistancia()

	now := time.Now().UTC()
	r.UpdatedAt = now
	r.addEvent(&RotaOtimizadaEvent{RotaID: r.ID, TotalParadas: len(r.Paradas), DistanciaTotalKm: r.DistanciaTotalKm, OptimizedAt: now})
	return nil
}

// calcularDistancia sums the great-circle distance between consecutive
// geocoded stops in delivery order.
func (r *Rota) calcularDistancia() float64 {
	ordered := make([]Parada, len(r.Paradas))
	copy(ordered, r.Paradas)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrdemEntrega < ordered[j].OrdemEntrega
	})

	total := 0.0
	var prev *Endereco
	for i := range ordered {
		dest := ordered[i].Destino
		if !dest.HasCoordinates() {
			continue
		}
		if prev != nil {
			total += Haversine(*prev, dest)
		}
		prev = &ordered[i].Destino
	}
	return math.Round(total*1000) / 1000
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two addresses in km
func Haversine(a, b Endereco) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
