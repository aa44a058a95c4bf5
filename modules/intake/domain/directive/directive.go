// Package directive defines the side effects the intake controller asks the page to
// perform. Directives are plain values; rendering them is up to the view.
package directive

import "encoding/json"

type Kind string

const (
	KindOpenSection       Kind = "open_section"
	KindBuildProgress     Kind = "build_progress"
	KindRemoveProgress    Kind = "remove_progress"
	KindSetProgress       Kind = "set_progress"
	KindSavingIndicator   Kind = "saving_indicator"
	KindStopContinue      Kind = "stop_continue"
	KindContinueToNext    Kind = "continue_to_next"
	KindShowCompletion    Kind = "show_completion"
	KindShowRetry         Kind = "show_retry"
	KindShowError         Kind = "show_error"
	KindReload            Kind = "reload"
	KindAlert             Kind = "alert"
	KindMarkTermsRequired Kind = "mark_terms_required"
	KindAcceptOnNext      Kind = "accept_on_next"
	KindRevealNext        Kind = "reveal_next"
	KindClickAgreement    Kind = "click_agreement"
	KindShowTerms         Kind = "show_terms"
	KindPreselectClinic   Kind = "preselect_clinic"
	KindSectionData       Kind = "section_data"
	KindBindFields        Kind = "bind_fields"
	KindShowForm          Kind = "show_form"
)

type Directive interface {
	Kind() Kind
}

// OpenSection makes a section visible and marks it as the one being driven.
type OpenSection struct {
	SectionID string `json:"section_id"`
}

type ProgressItem struct {
	SectionID string `json:"section_id"`
	Display   string `json:"display"`
	Active    bool   `json:"active"`
}

type BuildProgress struct {
	Items []ProgressItem `json:"items"`
}

type RemoveProgress struct{}

type SetProgress struct {
	SectionID string `json:"section_id"`
	Active    bool   `json:"active"`
}

type SavingIndicator struct {
	SectionID string `json:"section_id"`
	Visible   bool   `json:"visible"`
}

// StopContinue disables the next and complete controls while a section is incomplete.
type StopContinue struct {
	SectionID string `json:"section_id"`
}

type ContinueToNext struct {
	SectionID string `json:"section_id"`
}

type ShowCompletion struct{}

// ShowRetry shows the manual "try again" affordance; activating it reloads the page.
type ShowRetry struct {
	SectionID string `json:"section_id"`
	Label     string `json:"label"`
}

type ShowError struct {
	Message string `json:"message"`
}

type Reload struct{}

type Alert struct {
	Message string `json:"message"`
}

// MarkTermsRequired flags consent checkboxes as required and records their collection method.
type MarkTermsRequired struct {
	Field            string `json:"field"`
	CollectionMethod string `json:"collection_method,omitempty"`
}

// AcceptOnNext pre-marks the listed consent items as agreed and hides the completion UI.
type AcceptOnNext struct {
	Fields []string `json:"fields"`
}

type RevealNext struct{}

type ClickAgreement struct {
	Field string `json:"field"`
}

type ShowTerms struct {
	FullSize bool `json:"full_size"`
	// Reminder is set when the user reloaded the page without agreeing.
	Reminder          string `json:"reminder,omitempty"`
	DisableNavigation bool   `json:"disable_navigation"`
}

type PreselectClinic struct {
	ClinicID     string `json:"clinic_id"`
	ConsentOrgID string `json:"consent_org_id,omitempty"`
}

type SectionData struct {
	SectionID string          `json:"section_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type BindFields struct {
	SectionIDs []string `json:"section_ids"`
}

type ShowForm struct {
	FullSize bool `json:"full_size"`
}

func (OpenSection) Kind() Kind       { return KindOpenSection }
func (BuildProgress) Kind() Kind     { return KindBuildProgress }
func (RemoveProgress) Kind() Kind    { return KindRemoveProgress }
func (SetProgress) Kind() Kind       { return KindSetProgress }
func (SavingIndicator) Kind() Kind   { return KindSavingIndicator }
func (StopContinue) Kind() Kind      { return KindStopContinue }
func (ContinueToNext) Kind() Kind    { return KindContinueToNext }
func (ShowCompletion) Kind() Kind    { return KindShowCompletion }
func (ShowRetry) Kind() Kind         { return KindShowRetry }
func (ShowError) Kind() Kind         { return KindShowError }
func (Reload) Kind() Kind            { return KindReload }
func (Alert) Kind() Kind             { return KindAlert }
func (MarkTermsRequired) Kind() Kind { return KindMarkTermsRequired }
func (AcceptOnNext) Kind() Kind      { return KindAcceptOnNext }
func (RevealNext) Kind() Kind        { return KindRevealNext }
func (ClickAgreement) Kind() Kind    { return KindClickAgreement }
func (ShowTerms) Kind() Kind         { return KindShowTerms }
func (PreselectClinic) Kind() Kind   { return KindPreselectClinic }
func (SectionData) Kind() Kind       { return KindSectionData }
func (BindFields) Kind() Kind        { return KindBindFields }
func (ShowForm) Kind() Kind          { return KindShowForm }

type envelope struct {
	Type    Kind      `json:"type"`
	Payload Directive `json:"payload"`
}

// Marshal encodes d as {"type": ..., "payload": {...}} for the live channel.
func Marshal(d Directive) ([]byte, error) {
	return json.Marshal(envelope{Type: d.Kind(), Payload: d})
}
