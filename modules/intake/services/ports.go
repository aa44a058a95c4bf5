package services

import (
	"context"
	"encoding/json"

	"github.com/iota-uz/intake/modules/intake/domain/directive"
	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
)

// PortalAPI is the slice of the portal REST API the controller depends on.
type PortalAPI interface {
	CurrentUserID(ctx context.Context) (string, error)
	// StillNeeded returns ErrStillNeededMissing when the response carries no still_needed list.
	StillNeeded(ctx context.Context, userID string) ([]requiredfields.Item, error)
	RequiredCoreData(ctx context.Context) ([]string, error)
}

type RoleSource interface {
	UserRoles(ctx context.Context, userID string) ([]string, error)
}

// SectionLoader fetches the initial data a section renders with.
type SectionLoader interface {
	Supports(sectionID string) bool
	LoadSection(ctx context.Context, userID, sectionID string) (json.RawMessage, error)
}

type OrgLookup interface {
	TopLevelOrg(ctx context.Context, orgID string) (string, error)
}

type Translator interface {
	T(messageID string) string
}

// View is the rendered page as seen by the controller. Implementations must be safe for
// concurrent use: poll ticks query it from timer goroutines.
type View interface {
	SavingInProgress(sectionID string) bool
	SectionHasError(sectionID string) bool
	Render(d directive.Directive)
}
