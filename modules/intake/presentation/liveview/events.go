package liveview

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

type EventType string

const (
	EventHello        EventType = "hello"
	EventSaving       EventType = "saving"
	EventSectionError EventType = "section_error"
	EventFieldSaved   EventType = "field_saved"
	EventNext         EventType = "next"
	EventRetry        EventType = "retry"
)

// Event is a message from the browser. Only the fields relevant to Type are set.
type Event struct {
	Type            EventType `json:"type"`
	SectionID       string    `json:"section_id,omitempty"`
	InProgress      bool      `json:"in_progress,omitempty"`
	Message         string    `json:"message,omitempty"`
	UserID          string    `json:"user_id,omitempty"`
	Reloaded        bool      `json:"reloaded,omitempty"`
	PreselectClinic string    `json:"preselect_clinic,omitempty"`
}

var ErrMalformedEvent = errors.New("liveview: malformed event")

func DecodeEvent(raw []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, errors.Wrap(ErrMalformedEvent, err.Error())
	}
	switch e.Type {
	case EventHello, EventNext, EventRetry:
	case EventSaving, EventSectionError, EventFieldSaved:
		if e.SectionID == "" {
			return Event{}, errors.Wrapf(ErrMalformedEvent, "%s without section_id", e.Type)
		}
	default:
		return Event{}, errors.Wrapf(ErrMalformedEvent, "unknown type %q", e.Type)
	}
	return e, nil
}
