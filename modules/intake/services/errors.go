package services

import "github.com/iota-uz/intake/pkg/serrors"

var (
	ErrUserIDRequired     = serrors.NewError("INTAKE_USER_ID_REQUIRED", "user id is required", "Intake.Errors.UserIDRequired")
	ErrStillNeededMissing = serrors.NewError("INTAKE_STILL_NEEDED_MISSING", "still needed list missing from response", "Intake.Errors.ConfigUnavailable")
	ErrConfigUnavailable  = serrors.NewError("INTAKE_CONFIG_UNAVAILABLE", "required core data could not be determined", "Intake.Errors.ConfigUnavailable")
	ErrSaveUnconfirmed    = serrors.NewError("INTAKE_SAVE_UNCONFIRMED", "save was not confirmed before the ceiling", "Intake.Errors.SaveUnconfirmed")
	ErrSectionInvalid     = serrors.NewError("INTAKE_SECTION_INVALID", "section reported a validation error", "Intake.Errors.SectionInvalid")
	ErrUnknownSection     = serrors.NewError("INTAKE_UNKNOWN_SECTION", "unknown section", "Intake.Errors.UnknownSection")
	ErrNotInitialized     = serrors.NewError("INTAKE_NOT_INITIALIZED", "controller is not initialized", "")
	ErrMissingPorts       = serrors.NewError("INTAKE_MISSING_PORTS", "controller needs a portal API and a view", "")
)
