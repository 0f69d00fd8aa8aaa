package shared

import "strings"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so a NewDomainError("NOT_FOUND", ...)
// with a specific message still satisfies errors.Is(err, ErrNotFound).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Registro não encontrado.")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Registro já existe.")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Dados inválidos.")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "O registro foi alterado por outro processo.")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Acesso não autorizado.")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Acesso negado.")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operação não permitida na situação atual.")
	ErrExternalService     = NewDomainError("EXTERNAL_SERVICE_ERROR", "Falha na comunicação com serviço externo.")
)

// FieldError is a validation failure attached to a field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field failure found while validating an
// entity. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Errors []FieldError
}

// Error joins the field messages
func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, " ")
}

// Is implements errors.Is
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add records a failure
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Merge appends failures of another validation error, if err is one
func (e *ValidationError) Merge(err error) {
	if err == nil {
		return
	}
	if ve, ok := err.(*ValidationError); ok {
		e.Errors = append(e.Errors, ve.Errors...)
		return
	}
	e.Add("", err.Error())
}

// Err returns nil when no failure was recorded
func (e *ValidationError) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// RequiredMessage is the message for missing mandatory fields
const RequiredMessage = "Este campo é obrigatório."
