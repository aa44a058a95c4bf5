// Package requiredfields models the server-reported list of core data fields a user
// still has to provide.
package requiredfields

import "strings"

// AcceptOnNext is the collection method under which consent is implied by proceeding.
const AcceptOnNext = "ACCEPT_ON_NEXT"

type Item struct {
	Field            string `json:"field"`
	CollectionMethod string `json:"collection_method,omitempty"`
}

func (i Item) IsAcceptOnNext() bool {
	return strings.EqualFold(strings.TrimSpace(i.CollectionMethod), AcceptOnNext)
}

// Set is an immutable, ordered view of still-needed items. The zero value is an empty,
// unconfigured set.
type Set struct {
	items      []Item
	index      map[string]struct{}
	configured bool
}

func New(items []Item) Set {
	s := Set{
		items:      make([]Item, 0, len(items)),
		index:      make(map[string]struct{}, len(items)),
		configured: true,
	}
	for _, it := range items {
		it.Field = strings.TrimSpace(it.Field)
		if it.Field == "" {
			continue
		}
		s.items = append(s.items, it)
		s.index[it.Field] = struct{}{}
	}
	return s
}

func FromFields(fields []string) Set {
	items := make([]Item, 0, len(fields))
	for _, f := range fields {
		items = append(items, Item{Field: f})
	}
	return New(items)
}

// Configured reports whether the set came from the server at all, as opposed to the zero
// value held before the first fetch.
func (s Set) Configured() bool { return s.configured }
func (s Set) Len() int         { return len(s.items) }
func (s Set) IsEmpty() bool    { return len(s.items) == 0 }

func (s Set) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s Set) Fields() []string {
	out := make([]string, len(s.items))
	for i, it := range s.items {
		out[i] = it.Field
	}
	return out
}

func (s Set) Contains(field string) bool {
	_, ok := s.index[strings.TrimSpace(field)]
	return ok
}

// ContainsAny reports whether any of fields is still needed. An empty set never
// contains anything.
func (s Set) ContainsAny(fields []string) bool {
	for _, f := range fields {
		if s.Contains(f) {
			return true
		}
	}
	return false
}

func (s Set) AcceptOnNext() []Item {
	var out []Item
	for _, it := range s.items {
		if it.IsAcceptOnNext() {
			out = append(out, it)
		}
	}
	return out
}
