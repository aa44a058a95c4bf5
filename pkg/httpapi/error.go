package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/iota-uz/intake/pkg/serrors"
)

// ErrorEnvelope is the body of every JSON error answered by the intake API.
type ErrorEnvelope struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	LocaleKey string            `json:"locale_key,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Translate resolves a locale key into a message.
type Translate func(key string) string

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// WriteError answers with an uncoded error such as a routing failure.
func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteCodedError answers with the first serrors.BaseError in err's chain, or with fallback
// when the chain carries none. With t set the message is the translated locale key.
func WriteCodedError(w http.ResponseWriter, status int, err error, fallback *serrors.BaseError, t Translate) error {
	be := serrors.AsBaseError(err)
	if be == nil {
		be = fallback
	}
	if be == nil {
		return WriteError(w, status, "INTERNAL_SERVER_ERROR", http.StatusText(status), nil)
	}
	env := &ErrorEnvelope{
		Code:      be.Code,
		Message:   be.Message,
		LocaleKey: be.LocaleKey,
	}
	if t != nil && be.LocaleKey != "" {
		env.Message = t(be.LocaleKey)
	}
	return WriteJSON(w, status, env)
}
