package domain

import "fmt"

// ConflictError reports an operation that clashes with the current state of
// an entity: already linked, already validated, closed.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is lets errors.Is match two ConflictErrors carrying the same message, so
// sentinels survive re-creation in tests.
func (e *ConflictError) Is(target error) bool {
	t, ok := target.(*ConflictError)
	return ok && t.Message == e.Message
}

func conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports a status change that is not in the entity's
// transition table.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition from %s to %s", e.Entity, e.From, e.To)
}

// NotFoundError reports a referenced entity missing from the store. Only the
// aggregates themselves raise it, for nested members such as route stops.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Conflict sentinels
var (
	ErrPedidoJaValidado        = &ConflictError{Message: "pedido already validated in this conference"}
	ErrPedidoJaInvalidado      = &ConflictError{Message: "pedido already invalidated in this conference"}
	ErrPedidoNaoVinculado      = &ConflictError{Message: "pedido is not linked to this conference"}
	ErrPedidoVinculado         = &ConflictError{Message: "pedido still has active links"}
	ErrPedidoRemovido          = &ConflictError{Message: "pedido has been removed"}
	ErrConferenciaConcluida    = &ConflictError{Message: "conferencia already concluded"}
	ErrConferenciaSemPedidos   = &ConflictError{Message: "conferencia has no linked pedidos"}
	ErrConferenciaSemTransp    = &ConflictError{Message: "outbound conferencia has no transporte"}
	ErrConferenciaVinculada    = &ConflictError{Message: "conferencia already belongs to another transporte"}
	ErrTransporteEncerrado     = &ConflictError{Message: "transporte is in a terminal status"}
	ErrTransporteSemMotorista  = &ConflictError{Message: "transporte has no motorista assigned"}
	ErrTransporteSemRota       = &ConflictError{Message: "transporte has no rota"}
	ErrTransporteJaPossuiRota  = &ConflictError{Message: "transporte already has a rota"}
	ErrTransporteJaPossuiConf  = &ConflictError{Message: "transporte already has a conferencia"}
	ErrMotoristaInativo        = &ConflictError{Message: "motorista is not active"}
	ErrRotaEncerrada           = &ConflictError{Message: "rota is in a terminal status"}
	ErrRotaJaAtribuida         = &ConflictError{Message: "rota already belongs to another transporte"}
	ErrRotaComParadasPendentes = &ConflictError{Message: "rota has paradas that are not delivered"}
	ErrParadaDuplicada         = &ConflictError{Message: "pedido already has a parada on this rota"}
	ErrSeparacaoConcluida      = &ConflictError{Message: "separacao already completed"}
	ErrSeparacaoExistente      = &ConflictError{Message: "pedido already has an active separacao"}
	ErrColetaRealizada         = &ConflictError{Message: "coleta already completed"}
	ErrRecebimentoEncerrado    = &ConflictError{Message: "recebimento is not pending"}
	ErrRecebimentoSemPedidos   = &ConflictError{Message: "recebimento has no linked pedidos"}
	ErrTransferenciaEncerrada  = &ConflictError{Message: "transferencia is closed"}
	ErrLockNotObtained         = &ConflictError{Message: "operation already in progress for this resource"}
)
