package services

const (
	msgTryAgain          = "Intake.TryAgain"
	msgUserIDRequired    = "Intake.Errors.UserIDRequired"
	msgConfigUnavailable = "Intake.Errors.ConfigUnavailable"
	msgTermsReminder     = "Intake.Terms.Reminder"
)

var englishMessages = map[string]string{
	msgTryAgain:          "Try Again",
	msgUserIDRequired:    "User id is required",
	msgConfigUnavailable: "Unable to load the required information. Please try again.",
	msgTermsReminder:     "You must agree to the terms and conditions by checking the provided checkboxes.",
}

// englishTranslator is used when no translator is wired.
type englishTranslator struct{}

func (englishTranslator) T(id string) string {
	if s, ok := englishMessages[id]; ok {
		return s
	}
	return id
}
