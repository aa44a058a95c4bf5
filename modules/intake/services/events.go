package services

import "time"

type SectionOpenedEvent struct {
	UserID    string
	SectionID string
}

type SaveConfirmedEvent struct {
	UserID    string
	SectionID string
	Elapsed   time.Duration
	Remaining int
	Complete  bool
}

type SaveUnresolvedEvent struct {
	UserID    string
	SectionID string
	Elapsed   time.Duration
}

type HaltedEvent struct {
	UserID    string
	SectionID string
	Reason    string
}

type FinishedEvent struct {
	UserID string
	// Reloaded is true when the page was sent straight to a reload instead of the
	// completion UI.
	Reloaded bool
}
