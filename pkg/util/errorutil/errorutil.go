package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned to API clients.
const (
	CodeMalformedInput          = "MALFORMED_INPUT"
	CodeDecryptionFailure       = "DECRYPTION_FAILURE"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeNoToken                 = "NO_TOKEN"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeExpiredToken            = "EXPIRED_TOKEN"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeNotFound                = "NOT_FOUND"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeConflict                = "CONFLICT"
	CodeInternal                = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewMalformedInput(message string, details map[string]any) error {
	if message == "" {
		message = "Dados de entrada inválidos"
	}
	return NewDomainError(CodeMalformedInput, message, http.StatusBadRequest, details)
}

func NewDecryptionFailure(err error) error {
	return &DomainError{
		Code:       CodeDecryptionFailure,
		Message:    "Falha ao descriptografar os dados",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewInvalidCredentials is shared by the unknown-email and wrong-password paths.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Email ou senha incorretos", http.StatusUnauthorized, nil)
}

func NewNoToken() error {
	return NewDomainError(CodeNoToken, "Token de acesso não fornecido", http.StatusUnauthorized, nil)
}

func NewInvalidToken() error {
	return NewDomainError(CodeInvalidToken, "Token inválido ou expirado", http.StatusUnauthorized, nil)
}

func NewExpiredToken() error {
	return NewDomainError(CodeExpiredToken, "Sessão expirada", http.StatusUnauthorized, nil)
}

func NewInsufficientPermissions() error {
	return NewDomainError(CodeInsufficientPermissions, "Permissões insuficientes", http.StatusForbidden, nil)
}

func NewMethodNotAllowed() error {
	return NewDomainError(CodeMethodNotAllowed, "Método não permitido", http.StatusMethodNotAllowed, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s não encontrado", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Erro interno do servidor",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Erro interno do servidor",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func fromFiberError(err *fiber.Error) *DomainError {
	switch err.Code {
	case http.StatusBadRequest:
		return NewDomainError(CodeMalformedInput, err.Message, err.Code, nil)
	case http.StatusNotFound:
		return NewDomainError(CodeNotFound, err.Message, err.Code, nil)
	case http.StatusMethodNotAllowed:
		return NewMethodNotAllowed().(*DomainError)
	case http.StatusUnauthorized:
		return NewDomainError(CodeInvalidToken, err.Message, err.Code, nil)
	case http.StatusForbidden:
		return NewInsufficientPermissions().(*DomainError)
	}
	if err.Code >= http.StatusInternalServerError {
		return NewInternalError(err).(*DomainError)
	}
	return NewDomainError(CodeMalformedInput, err.Message, err.Code, nil)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err maps to the given error code.
func HasCode(err error, code string) bool {
	de := ToDomainError(err)
	return de != nil && de.Code == code
}
