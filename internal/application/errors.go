package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// toAppError maps whatever escaped a unit of work onto the API taxonomy.
// Domain conflicts and transitions keep their cause so errors.Is still
// matches the domain sentinels.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	var conflictErr *domain.ConflictError
	if stderrors.As(err, &conflictErr) {
		return errors.ErrConflict(conflictErr.Message).Wrap(err)
	}
	var transitionErr *domain.InvalidTransitionError
	if stderrors.As(err, &transitionErr) {
		return errors.ErrInvalidTransition(transitionErr.Entity, transitionErr.From, transitionErr.To).Wrap(err)
	}
	var notFoundErr *domain.NotFoundError
	if stderrors.As(err, &notFoundErr) {
		return errors.ErrNotFoundWithID(notFoundErr.Entity, notFoundErr.ID).Wrap(err)
	}
	return errors.ErrTransactionFailure(err)
}

func notFound(entity, id string) error {
	return errors.ErrNotFoundWithID(entity, id)
}

// nextCodigo draws the next human-readable code for prefix inside tx,
// formatted PREFIX-YYYYMMDD-NNNNNN.
func nextCodigo(ctx context.Context, tx domain.Tx, prefix string) (string, error) {
	n, err := tx.Sequences().Next(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, time.Now().UTC().Format("20060102"), n), nil
}

// Code prefixes
const (
	prefixPedido        = "PED"
	prefixConferencia   = "CONF"
	prefixTransporte    = "TRP"
	prefixRota          = "ROT"
	prefixExcecao       = "EXC"
	prefixRecebimento   = "REC"
	prefixTransferencia = "TRF"
)
