package serrors

import "errors"

// BaseError is a coded error that can be localized through LocaleKey.
type BaseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	LocaleKey string `json:"-"`
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) Is(target error) bool {
	var other *BaseError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// AsBaseError returns the first BaseError in err's chain, or nil.
func AsBaseError(err error) *BaseError {
	var be *BaseError
	if errors.As(err, &be) {
		return be
	}
	return nil
}

// CodeOf returns the code of the first BaseError in err's chain.
func CodeOf(err error) string {
	if be := AsBaseError(err); be != nil {
		return be.Code
	}
	return ""
}
