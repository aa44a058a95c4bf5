package section

import (
	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
	"github.com/iota-uz/intake/pkg/serrors"
)

var (
	ErrDuplicateSection = serrors.NewError("SECTION_DUPLICATE", "section already registered", "Intake.Errors.DuplicateSection")
	ErrUnknownSection   = serrors.NewError("SECTION_UNKNOWN", "unknown section", "Intake.Errors.UnknownSection")
)

// Registry keeps sections in registration order. It is not safe for concurrent use;
// the owning controller serializes access.
type Registry struct {
	order []string
	byID  map[string]*Section
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Section{}}
}

func (r *Registry) Add(s Section) error {
	if s.id == "" {
		return ErrUnknownSection
	}
	if _, ok := r.byID[s.id]; ok {
		return ErrDuplicateSection
	}
	r.order = append(r.order, s.id)
	cp := s
	r.byID[s.id] = &cp
	return nil
}

func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) Get(id string) (Section, bool) {
	s, ok := r.byID[id]
	if !ok {
		return Section{}, false
	}
	return *s, true
}

// All returns the sections in registration order.
func (r *Registry) All() []Section {
	out := make([]Section, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) MarkLoading(id string) error {
	s, ok := r.byID[id]
	if !ok {
		return ErrUnknownSection
	}
	s.loading = true
	return nil
}

func (r *Registry) MarkLoaded(id string) error {
	s, ok := r.byID[id]
	if !ok {
		return ErrUnknownSection
	}
	s.loading = false
	s.loaded = true
	return nil
}

// IsComplete is false for unknown ids.
func (r *Registry) IsComplete(id string, needed requiredfields.Set) bool {
	s, ok := r.byID[id]
	if !ok {
		return false
	}
	return s.Complete(needed)
}

// FirstIncomplete returns the lowest-index section that is not complete.
func (r *Registry) FirstIncomplete(needed requiredfields.Set) (Section, bool) {
	for _, id := range r.order {
		if s := r.byID[id]; !s.Complete(needed) {
			return *s, true
		}
	}
	return Section{}, false
}
