package domain

import "errors"

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err  error
	Code string // машиночитаемый код для HTTP-ответа
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error, code string) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err, Code: code}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

// BusinessCode возвращает код бизнес-ошибки или пустую строку
func BusinessCode(err error) string {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr.Code
	}
	return ""
}

// Сентинельные ошибки бизнес-правил, маппятся на HTTP-коды в apierror
var (
	ErrInsufficientEnergy = errors.New("insufficient energy balance")
	ErrJobAlreadyRunning  = errors.New("a job is already running for this archive and report type")
	ErrReportExists       = errors.New("report already exists for this archive and report type")
	ErrNotFound           = errors.New("not found")
	ErrJobTerminal        = errors.New("job is already in a terminal state")
	ErrCodeNotUsable      = errors.New("redemption code is exhausted or expired")

	// ErrDuplicateIdempotencyKey платёжная сессия уже обработана
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)
