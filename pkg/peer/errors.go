package peer

import (
	"errors"
	"fmt"
)

// ErrorCategory — категория ошибки контроллера сессии.
type ErrorCategory string

const (
	// CategoryCommand — engine явно сообщил о неуспехе команды.
	// Payload engine передаётся вызывающему без изменений, повторов нет.
	CategoryCommand ErrorCategory = "COMMAND"

	// CategoryValidation — синхронная ошибка валидации на месте вызова.
	CategoryValidation ErrorCategory = "VALIDATION"

	// CategoryState — операция несовместима с текущим состоянием сессии.
	CategoryState ErrorCategory = "STATE"
)

// Error — структурированная ошибка контроллера с контекстом сессии.
type Error struct {
	Code      string
	Category  ErrorCategory
	Message   string
	Command   string
	SessionID uint64
	Cause     error
}

func (e *Error) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("[%s:%s] %s (session=%d, command=%s)", e.Category, e.Code, e.Message, e.SessionID, e.Command)
	}
	return fmt.Sprintf("[%s:%s] %s (session=%d)", e.Category, e.Code, e.Message, e.SessionID)
}

// Unwrap открывает исходную ошибку для errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Sentinel-ошибки пакета.
var (
	// ErrEngineRequired — сессия не может быть создана без engine.
	ErrEngineRequired = errors.New("engine is required")

	// ErrSessionClosed — команда выдана после закрытия сессии.
	ErrSessionClosed = errors.New("session is closed")

	// ErrDataChannelID — явный идентификатор data channel вне диапазона 0..65534.
	ErrDataChannelID = errors.New("invalid data channel id")

	// ErrDataChannelUnavailable — engine вернул пустой дескриптор канала.
	ErrDataChannelUnavailable = errors.New("engine returned no data channel descriptor")

	// ErrTransceiverNotFound — engine сослался на transceiver, отсутствующий
	// в применённом снапшоте.
	ErrTransceiverNotFound = errors.New("transceiver not found after merge")
)

// newCommandError оборачивает неуспех команды engine. Cause сохраняется
// verbatim и достаётся через errors.Unwrap.
func newCommandError(sessionID uint64, command string, cause error) *Error {
	return &Error{
		Code:      "ENGINE_FAILURE",
		Category:  CategoryCommand,
		Message:   fmt.Sprintf("команда %s отклонена engine", command),
		Command:   command,
		SessionID: sessionID,
		Cause:     cause,
	}
}

// newStateError сообщает о вызове команды на закрытой сессии.
func newStateError(sessionID uint64, command string) *Error {
	return &Error{
		Code:      "SESSION_CLOSED",
		Category:  CategoryState,
		Message:   fmt.Sprintf("команда %s на закрытой сессии", command),
		Command:   command,
		SessionID: sessionID,
		Cause:     ErrSessionClosed,
	}
}

// newValidationError сообщает о синхронной ошибке валидации аргументов.
func newValidationError(sessionID uint64, command string, cause error) *Error {
	return &Error{
		Code:      "INVALID_ARGUMENT",
		Category:  CategoryValidation,
		Message:   fmt.Sprintf("невалидные аргументы команды %s", command),
		Command:   command,
		SessionID: sessionID,
		Cause:     cause,
	}
}
