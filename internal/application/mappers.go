package application

import "github.com/wms-platform/fulfillment-service/internal/domain"

// optional maps an empty link to JSON null
func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// ToEnderecoDTO converts a domain Endereco to EnderecoDTO
func ToEnderecoDTO(e domain.Endereco) EnderecoDTO {
	return EnderecoDTO{
		Logradouro: e.Logradouro,
		Bairro:     e.Bairro,
		Cidade:     e.Cidade,
		UF:         e.UF,
		CEP:        e.CEP,
		Latitude:   e.Latitude,
		Longitude:  e.Longitude,
	}
}

// ToEndereco converts an EnderecoDTO to a domain Endereco
func ToEndereco(dto EnderecoDTO) domain.Endereco {
	return domain.Endereco{
		Logradouro: dto.Logradouro,
		Bairro:     dto.Bairro,
		Cidade:     dto.Cidade,
		UF:         dto.UF,
		CEP:        dto.CEP,
		Latitude:   dto.Latitude,
		Longitude:  dto.Longitude,
	}
}

// ToPedidoDTO converts a domain Pedido to PedidoDTO
func ToPedidoDTO(p *domain.Pedido) *PedidoDTO {
	if p == nil {
		return nil
	}
	return &PedidoDTO{
		ID:              p.ID,
		Codigo:          p.Codigo,
		ClienteID:       p.ClienteID,
		Destino:         ToEnderecoDTO(p.Destino),
		Status:          string(p.Status),
		RecebimentoID:   optional(p.RecebimentoID),
		TransferenciaID: optional(p.TransferenciaID),
		ConferenciaID:   optional(p.ConferenciaID),
		TransporteID:    optional(p.TransporteID),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToPedidoDTOs converts a slice of orders
func ToPedidoDTOs(pedidos []*domain.Pedido) []PedidoDTO {
	out := make([]PedidoDTO, 0, len(pedidos))
	for _, p := range pedidos {
		out = append(out, *ToPedidoDTO(p))
	}
	return out
}

// ToEventoRastreamentoDTOs converts tracking rows
func ToEventoRastreamentoDTOs(eventos []*domain.EventoRastreamento) []EventoRastreamentoDTO {
	out := make([]EventoRastreamentoDTO, 0, len(eventos))
	for _, ev := range eventos {
		out = append(out, EventoRastreamentoDTO{
			ID:         ev.ID,
			PedidoID:   ev.PedidoID,
			Status:     string(ev.Status),
			Evento:     ev.Evento,
			Local:      ev.Local,
			Observacao: ev.Observacao,
			Data:       ev.Data,
		})
	}
	return out
}

// ToConferenciaDTO converts a domain Conferencia to ConferenciaDTO
func ToConferenciaDTO(c *domain.Conferencia) *ConferenciaDTO {
	if c == nil {
		return nil
	}
	return &ConferenciaDTO{
		ID:                  c.ID,
		Codigo:              c.Codigo,
		Tipo:                string(c.Tipo),
		Status:              string(c.Status),
		TransporteID:        optional(c.TransporteID),
		RecebimentoID:       optional(c.RecebimentoID),
		TotalPedidos:        c.TotalPedidos,
		PedidosEscaneados:   c.PedidosEscaneados,
		PercentualValidacao: c.PercentualValidacao,
		PossuiDivergencia:   c.PossuiDivergencia,
		Observacoes:         c.Observacoes,
		ConcluidoPor:        c.ConcluidoPor,
		DataInicio:          c.DataInicio,
		DataConclusao:       c.DataConclusao,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToTransporteDTO converts a domain Transporte to TransporteDTO
func ToTransporteDTO(t *domain.Transporte) *TransporteDTO {
	if t == nil {
		return nil
	}
	return &TransporteDTO{
		ID:            t.ID,
		Codigo:        t.Codigo,
		Tipo:          string(t.Tipo),
		Status:        string(t.Status),
		Origem:        t.Origem,
		Destino:       t.Destino,
		RotaID:        optional(t.RotaID),
		ConferenciaID: optional(t.ConferenciaID),
		MotoristaID:   optional(t.MotoristaID),
		DataInicio:    t.DataInicio,
		DataConclusao: t.DataConclusao,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ToMotoristaDTO converts a domain Motorista to MotoristaDTO
func ToMotoristaDTO(m *domain.Motorista) *MotoristaDTO {
	return &MotoristaDTO{ID: m.ID, Nome: m.Nome, CNH: m.CNH, Ativo: m.Ativo, CreatedAt: m.CreatedAt}
}

// ToRotaDTO converts a domain Rota to RotaDTO
func ToRotaDTO(r *domain.Rota) *RotaDTO {
	if r == nil {
		return nil
	}
	paradas := make([]ParadaDTO, 0, len(r.Paradas))
	for _, p := range r.Paradas {
		paradas = append(paradas, ToParadaDTO(p))
	}
	return &RotaDTO{
		ID:               r.ID,
		Codigo:           r.Codigo,
		Status:           string(r.Status),
		TransporteID:     optional(r.TransporteID),
		Paradas:          paradas,
		DistanciaTotalKm: r.DistanciaTotalKm,
		DataInicio:       r.DataInicio,
		DataFim:          r.DataFim,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ToRotaDTOs converts a slice of routes
func ToRotaDTOs(rotas []*domain.Rota) []RotaDTO {
	out := make([]RotaDTO, 0, len(rotas))
	for _, r := range rotas {
		out = append(out, *ToRotaDTO(r))
	}
	return out
}

// ToParadaDTO converts a domain Parada to ParadaDTO
func ToParadaDTO(p domain.Parada) ParadaDTO {
	return ParadaDTO{
		ID:           p.ID,
		PedidoID:     optional(p.PedidoID),
		OrdemEntrega: p.OrdemEntrega,
		Destino:      ToEnderecoDTO(p.Destino),
		Status:       string(p.Status),
		DataEntrega:  p.DataEntrega,
		Observacao:   p.Observacao,
	}
}

// ToSeparacaoDTO converts a domain Separacao to SeparacaoDTO
func ToSeparacaoDTO(s *domain.Separacao) *SeparacaoDTO {
	return &SeparacaoDTO{
		ID:            s.ID,
		PedidoID:      s.PedidoID,
		Status:        string(s.Status),
		Responsavel:   s.Responsavel,
		DataSeparacao: s.DataSeparacao,
		CreatedAt:     s.CreatedAt,
	}
}

// ToColetaDTO converts a domain Coleta to ColetaDTO
func ToColetaDTO(c *domain.Coleta) *ColetaDTO {
	return &ColetaDTO{
		ID:          c.ID,
		PedidoID:    c.PedidoID,
		SeparacaoID: c.SeparacaoID,
		Status:      string(c.Status),
		DataColeta:  c.DataColeta,
		CreatedAt:   c.CreatedAt,
	}
}

// ToExcecaoDTO converts a domain Excecao to ExcecaoDTO
func ToExcecaoDTO(e *domain.Excecao) *ExcecaoDTO {
	if e == nil {
		return nil
	}
	historico := make([]HistoricoExcecaoDTO, 0, len(e.Historico))
	for _, h := range e.Historico {
		historico = append(historico, HistoricoExcecaoDTO{
			Data:           h.Data,
			Acao:           h.Acao,
			Usuario:        h.Usuario,
			Descricao:      h.Descricao,
			StatusAnterior: string(h.StatusAnterior),
			StatusNovo:     string(h.StatusNovo),
		})
	}
	return &ExcecaoDTO{
		ID:                e.ID,
		Numero:            e.Numero,
		Tipo:              string(e.Tipo),
		Severidade:        string(e.Severidade),
		Status:            string(e.Status),
		Titulo:            e.Titulo,
		Descricao:         e.Descricao,
		ImpactoFinanceiro: e.ImpactoFinanceiro.StringFixed(2),
		Quantidade:        e.Quantidade,
		PedidoID:          optional(e.Vinculos.PedidoID),
		TransporteID:      optional(e.Vinculos.TransporteID),
		RecebimentoID:     optional(e.Vinculos.RecebimentoID),
		ConferenciaID:     optional(e.Vinculos.ConferenciaID),
		Responsavel:       e.Responsavel,
		Resolucao:         e.Resolucao,
		Historico:         historico,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// ToExcecaoDTOs converts a slice of exceptions
func ToExcecaoDTOs(excecoes []*domain.Excecao) []ExcecaoDTO {
	out := make([]ExcecaoDTO, 0, len(excecoes))
	for _, e := range excecoes {
		out = append(out, *ToExcecaoDTO(e))
	}
	return out
}

// ToRecebimentoDTO converts a domain Recebimento to RecebimentoDTO
func ToRecebimentoDTO(r *domain.Recebimento) *RecebimentoDTO {
	return &RecebimentoDTO{
		ID:            r.ID,
		Codigo:        r.Codigo,
		Fornecedor:    r.Fornecedor,
		Origem:        r.Origem,
		Status:        string(r.Status),
		TransporteID:  optional(r.TransporteID),
		ConferenciaID: optional(r.ConferenciaID),
		DataConclusao: r.DataConclusao,
		CreatedAt:     r.CreatedAt,
	}
}

// ToTransferenciaDTO converts a domain Transferencia to TransferenciaDTO
func ToTransferenciaDTO(t *domain.Transferencia) *TransferenciaDTO {
	return &TransferenciaDTO{
		ID:         t.ID,
		Codigo:     t.Codigo,
		Origem:     t.Origem,
		Destino:    t.Destino,
		Status:     string(t.Status),
		Observacao: t.Observacao,
		CreatedAt:  t.CreatedAt,
	}
}
