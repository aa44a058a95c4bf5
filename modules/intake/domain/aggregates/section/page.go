package section

// Descriptor is what a rendered section container exposes.
type Descriptor struct {
	ID      string `json:"id" validate:"required"`
	Config  string `json:"config"`
	Display string `json:"display" validate:"required"`
}

func (d Descriptor) Section() Section {
	return New(d.ID, d.Config, d.Display)
}

// Page is the part of the rendered wizard the controller reads once at initialization.
type Page struct {
	// UserID is the pre-rendered user id, empty when the page did not know it.
	UserID          string
	PreselectClinic string
	Sections        []Descriptor
	// TermsItems lists the core data types of the consent checkboxes on the page.
	TermsItems      []string
	HasCompletionUI bool
}

func (p Page) HasTermsItem(field string) bool {
	for _, t := range p.TermsItems {
		if t == field {
			return true
		}
	}
	return false
}

func (p Page) HasSection(id string) bool {
	for _, d := range p.Sections {
		if d.ID == id {
			return true
		}
	}
	return false
}
