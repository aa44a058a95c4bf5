package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
)

type SectionStatus struct {
	ID       string   `json:"id"`
	Display  string   `json:"display"`
	Fields   []string `json:"fields"`
	Complete bool     `json:"complete"`
}

// Status is a one-shot snapshot of where a user stands on a page, without driving the UI.
type Status struct {
	UserID       string          `json:"user_id"`
	Sections     []SectionStatus `json:"sections"`
	StillNeeded  []string        `json:"still_needed"`
	AcceptOnNext []string        `json:"accept_on_next,omitempty"`
	// Next is the section the wizard would open, empty when every section is complete.
	Next     string `json:"next,omitempty"`
	Complete bool   `json:"complete"`
	// Fallback is set when still_needed was unavailable and REQUIRED_CORE_DATA was used.
	Fallback bool `json:"fallback,omitempty"`
}

// Evaluate resolves the user and the fields they still owe the same way Initialize does,
// and reports the completeness of each section of page.
func Evaluate(ctx context.Context, api PortalAPI, page section.Page) (*Status, error) {
	userID := page.UserID
	if userID == "" {
		id, err := api.CurrentUserID(ctx)
		if err != nil && !errors.Is(err, ErrUserIDRequired) {
			return nil, errors.Wrap(err, "resolve current user")
		}
		userID = id
	}
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	st := &Status{UserID: userID}
	var needed requiredfields.Set
	items, err := api.StillNeeded(ctx, userID)
	if err == nil {
		needed = requiredfields.New(items)
	} else {
		fields, ferr := api.RequiredCoreData(ctx)
		if ferr != nil {
			return nil, errors.Wrap(ErrConfigUnavailable, ferr.Error())
		}
		needed = requiredfields.FromFields(fields)
		st.Fallback = true
	}
	st.StillNeeded = needed.Fields()
	for _, it := range needed.AcceptOnNext() {
		st.AcceptOnNext = append(st.AcceptOnNext, it.Field)
	}

	registry := section.NewRegistry()
	for _, d := range page.Sections {
		if err := registry.Add(d.Section()); err != nil {
			continue
		}
	}
	st.Complete = true
	for _, s := range registry.All() {
		complete := s.Complete(needed)
		st.Sections = append(st.Sections, SectionStatus{
			ID:       s.ID(),
			Display:  s.Display(),
			Fields:   s.Fields(),
			Complete: complete,
		})
		if !complete {
			st.Complete = false
		}
	}
	if next, ok := registry.FirstIncomplete(needed); ok {
		st.Next = next.ID()
	}
	return st, nil
}
