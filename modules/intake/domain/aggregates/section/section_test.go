package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
)

func TestSection_CompleteIffNoFieldStillNeeded(t *testing.T) {
	needed := requiredfields.FromFields([]string{"name", "birthdate"})

	cases := []struct {
		config string
		want   bool
	}{
		{"terms_of_use", true},
		{"name,birthdate", false},
		{"name", false},
		{"birthdate, roles", false},
		{"roles,clinical", true},
		{"", true},
		{" , ", true},
	}
	for _, tc := range cases {
		t.Run(tc.config, func(t *testing.T) {
			s := New("s", tc.config, "S")
			require.Equal(t, tc.want, s.Complete(needed))
			for _, f := range s.Fields() {
				if needed.Contains(f) {
					require.False(t, s.Complete(needed))
				}
			}
		})
	}
}

func TestSection_EmptySetCompletesEverything(t *testing.T) {
	s := New("demographicsContainer", "name,birthdate", "Demographics")
	require.True(t, s.Complete(requiredfields.Set{}))
	require.True(t, s.Complete(requiredfields.New(nil)))
}

func TestSection_State(t *testing.T) {
	needed := requiredfields.FromFields([]string{"name"})
	reg := NewRegistry()
	require.NoError(t, reg.Add(New("demo", "name", "Demographics")))
	require.NoError(t, reg.Add(New("terms", "terms_of_use", "Terms")))

	s, _ := reg.Get("demo")
	require.Equal(t, StateNotStarted, s.State(needed))

	require.NoError(t, reg.MarkLoading("demo"))
	s, _ = reg.Get("demo")
	require.Equal(t, StateLoading, s.State(needed))

	require.NoError(t, reg.MarkLoaded("demo"))
	s, _ = reg.Get("demo")
	require.Equal(t, StateIncomplete, s.State(needed))

	require.NoError(t, reg.MarkLoaded("terms"))
	s, _ = reg.Get("terms")
	require.Equal(t, StateComplete, s.State(needed))
}

func TestRegistry_OrderAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(New("topTerms", "website_terms_of_use", "Terms")))
	require.NoError(t, reg.Add(New("demographicsContainer", "name,birthdate", "Demographics")))
	require.NoError(t, reg.Add(New("orgsContainer", "org", "Clinics")))
	require.ErrorIs(t, reg.Add(New("orgsContainer", "org", "Clinics")), ErrDuplicateSection)
	require.ErrorIs(t, reg.Add(New(" ", "", "Blank")), ErrUnknownSection)
	require.ErrorIs(t, reg.MarkLoaded("missing"), ErrUnknownSection)

	require.Equal(t, []string{"topTerms", "demographicsContainer", "orgsContainer"}, reg.IDs())
	require.Equal(t, 3, reg.Len())
	require.False(t, reg.IsComplete("missing", requiredfields.Set{}))
}

func TestRegistry_FirstIncompleteIsLowestIndex(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(New("topTerms", "website_terms_of_use", "Terms")))
	require.NoError(t, reg.Add(New("demographicsContainer", "name,birthdate", "Demographics")))
	require.NoError(t, reg.Add(New("clinicalContainer", "clinical,procedure", "Clinical")))
	require.NoError(t, reg.Add(New("orgsContainer", "org", "Clinics")))

	// the later section finishing its load first must not change the pick
	require.NoError(t, reg.MarkLoaded("orgsContainer"))

	s, ok := reg.FirstIncomplete(requiredfields.FromFields([]string{"org", "procedure"}))
	require.True(t, ok)
	require.Equal(t, "clinicalContainer", s.ID())

	s, ok = reg.FirstIncomplete(requiredfields.FromFields([]string{"org", "birthdate", "website_terms_of_use"}))
	require.True(t, ok)
	require.Equal(t, "topTerms", s.ID())

	_, ok = reg.FirstIncomplete(requiredfields.FromFields([]string{"unrelated"}))
	require.False(t, ok)
}

func TestPage_Lookups(t *testing.T) {
	p := Page{
		Sections:   []Descriptor{{ID: "topTerms", Display: "Terms"}},
		TermsItems: []string{"website_terms_of_use"},
	}
	require.True(t, p.HasSection("topTerms"))
	require.False(t, p.HasSection("orgsContainer"))
	require.True(t, p.HasTermsItem("website_terms_of_use"))
	require.False(t, p.HasTermsItem("privacy_policy"))
}
