package section

import (
	"strings"

	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateLoading    State = "loading"
	StateIncomplete State = "incomplete"
	StateComplete   State = "complete"
)

// Section is one page region covering a comma separated list of core data fields.
type Section struct {
	id      string
	config  string
	fields  []string
	display string
	loaded  bool
	loading bool
}

func New(id, config, display string) Section {
	return Section{
		id:      strings.TrimSpace(id),
		config:  config,
		fields:  splitConfig(config),
		display: strings.TrimSpace(display),
	}
}

func (s Section) ID() string       { return s.id }
func (s Section) Config() string   { return s.config }
func (s Section) Display() string  { return s.display }
func (s Section) Loaded() bool     { return s.loaded }
func (s Section) Loading() bool    { return s.loading }
func (s Section) Fields() []string { return append([]string(nil), s.fields...) }

// Complete reports whether none of the section's fields is still needed. A section
// without configured fields is always complete.
func (s Section) Complete(needed requiredfields.Set) bool {
	return !needed.ContainsAny(s.fields)
}

func (s Section) State(needed requiredfields.Set) State {
	switch {
	case s.loading:
		return StateLoading
	case !s.loaded:
		return StateNotStarted
	case s.Complete(needed):
		return StateComplete
	default:
		return StateIncomplete
	}
}

func splitConfig(config string) []string {
	parts := strings.Split(config, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
