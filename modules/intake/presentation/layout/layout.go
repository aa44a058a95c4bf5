// Package layout loads the description of the intake wizard page: which sections it
// shows, in what order, and which consent checkboxes the terms section carries.
package layout

import (
	"os"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/pkg/constants"
)

type Section struct {
	ID      string `yaml:"id" validate:"required"`
	Display string `yaml:"display" validate:"required"`
	Config  string `yaml:"config"`
}

type Layout struct {
	Version      int       `yaml:"version" validate:"eq=1"`
	Title        string    `yaml:"title"`
	CompletionUI bool      `yaml:"completion_ui"`
	TermsItems   []string  `yaml:"terms_items"`
	Sections     []Section `yaml:"sections" validate:"required,min=1,dive"`
}

func Load(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read layout %s", path)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, errors.Wrap(err, "decode layout")
	}
	if err := constants.Validate.Struct(&l); err != nil {
		return nil, errors.Wrap(err, "invalid layout")
	}
	seen := make(map[string]struct{}, len(l.Sections))
	for i := range l.Sections {
		s := &l.Sections[i]
		s.ID = strings.TrimSpace(s.ID)
		if _, dup := seen[s.ID]; dup {
			return nil, errors.Errorf("layout: duplicate section %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return &l, nil
}

// Descriptors returns the sections with display names passed through translate.
func (l *Layout) Descriptors(translate func(string) string) []section.Descriptor {
	out := make([]section.Descriptor, 0, len(l.Sections))
	for _, s := range l.Sections {
		display := s.Display
		if translate != nil {
			display = translate(s.Display)
		}
		out = append(out, section.Descriptor{ID: s.ID, Config: s.Config, Display: display})
	}
	return out
}

// Page is the wizard page this layout renders for a user.
func (l *Layout) Page(userID, preselectClinic string, translate func(string) string) section.Page {
	return section.Page{
		UserID:          userID,
		PreselectClinic: preselectClinic,
		Sections:        l.Descriptors(translate),
		TermsItems:      append([]string(nil), l.TermsItems...),
		HasCompletionUI: l.CompletionUI,
	}
}
