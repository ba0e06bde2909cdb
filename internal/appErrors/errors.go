package appErrors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// AppError - основная структура ошибки приложения
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so errors.Is works on
// copies produced by WithDetails/WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Конструктор
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// С цепочкой ошибок
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails returns a copy; the predefined errors below are shared values.
func (e *AppError) WithDetails(details interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

func (e *AppError) WithError(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// Is - обертка над стандартной функцией errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - обертка над стандартной функцией errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// CodeOf returns the code of the first AppError in the chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Предопределенные ошибки
var (
	// Пользователи
	ErrUserNotFound       = New(CodeUserNotFound, "User not found")
	ErrEmailAlreadyExists = New(CodeEmailAlreadyExists, "Email already registered")

	// Планы и кредиты
	ErrPlanNotFound        = New(CodePlanNotFound, "User has no active plan")
	ErrInvalidPlan         = New(CodeInvalidPlan, "Invalid plan")
	ErrInsufficientCredits = New(CodeInsufficientCredits, "Insufficient credits")
	ErrDailyLimitReached   = New(CodeDailyLimitReached, "Daily calculation limit reached")

	// Администрирование
	ErrConfirmationDeclined = New(CodeConfirmationDeclined, "Operation cancelled")
	ErrOperationInProgress  = New(CodeOperationInProgress, "Another administrative operation is running")

	// Валидация
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed")
)

// Функции-помощники для создания ошибок с деталями
func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func NotFound(resource string) *AppError {
	return New(CodeUserNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal error")
}

func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "Database operation failed")
}

func ConfigError(err error) *AppError {
	return Wrap(err, CodeConfigInvalid, "Invalid configuration")
}
