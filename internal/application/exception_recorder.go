package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// DefaultUnitPenalty is the financial impact charged per missing order when
// EXCEPTION_UNIT_PENALTY is not configured.
var DefaultUnitPenalty = decimal.RequireFromString("25.00")

// RegistroExcecao describes an exception about to be filed
type RegistroExcecao struct {
	Tipo              domain.TipoExcecao
	Severidade        domain.Severidade
	Titulo            string
	Descricao         string
	Vinculos          domain.VinculosExcecao
	Quantidade        int
	ImpactoFinanceiro decimal.Decimal
}

// ExceptionRecorder files operational exceptions inside the caller's
// transaction. A failed write aborts the caller, which rolls back every
// exception it filed earlier in the same call.
type ExceptionRecorder interface {
	Record(ctx context.Context, tx domain.Tx, r RegistroExcecao) (*domain.Excecao, error)
	DivergenceImpact(diff int) decimal.Decimal
	UnitPenalty() decimal.Decimal
}

// Recorder is the ExceptionRecorder backed by the transaction's repositories
type Recorder struct {
	unitPenalty decimal.Decimal
}

// NewRecorder creates a Recorder charging unitPenalty per missing unit
func NewRecorder(unitPenalty decimal.Decimal) *Recorder {
	if unitPenalty.IsNegative() {
		unitPenalty = decimal.Zero
	}
	return &Recorder{unitPenalty: unitPenalty}
}

// Record draws the next EXC number and inserts the exception as ABERTA
func (r *Recorder) Record(ctx context.Context, tx domain.Tx, reg RegistroExcecao) (*domain.Excecao, error) {
	numero, err := nextCodigo(ctx, tx, prefixExcecao)
	if err != nil {
		return nil, err
	}

	excecao := domain.NewExcecao(domain.NovaExcecao{
		Numero:            numero,
		Tipo:              reg.Tipo,
		Severidade:        reg.Severidade,
		Titulo:            reg.Titulo,
		Descricao:         reg.Descricao,
		Vinculos:          reg.Vinculos,
		Quantidade:        reg.Quantidade,
		ImpactoFinanceiro: reg.ImpactoFinanceiro,
	})
	if err := tx.Excecoes().Create(ctx, excecao); err != nil {
		return nil, fmt.Errorf("record excecao %s: %w", numero, err)
	}
	outcomeFrom(ctx).excecao(excecao)
	return excecao, nil
}

// DivergenceImpact returns |diff| x unitPenalty
func (r *Recorder) DivergenceImpact(diff int) decimal.Decimal {
	if diff < 0 {
		diff = -diff
	}
	return r.unitPenalty.Mul(decimal.NewFromInt(int64(diff)))
}

// UnitPenalty returns the configured per-unit penalty
func (r *Recorder) UnitPenalty() decimal.Decimal {
	return r.unitPenalty
}

// divergenceSeverity ranks a quantity divergence: more than half of the
// expected orders missing is ALTA.
func divergenceSeverity(diff, total int) domain.Severidade {
	if diff < 0 {
		diff = -diff
	}
	if total > 0 && diff*2 > total {
		return domain.SeveridadeAlta
	}
	return domain.SeveridadeMedia
}
