package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	l, err := Parse([]byte(`
version: 1
completion_ui: true
terms_items: [website_terms_of_use]
sections:
  - id: " topTerms "
    display: Intake.Sections.Terms
    config: website_terms_of_use
  - id: demographicsContainer
    display: About you
    config: name,dob
`))
	require.NoError(t, err)
	require.Len(t, l.Sections, 2)
	require.Equal(t, "topTerms", l.Sections[0].ID)

	page := l.Page("42", "", strings.ToUpper)
	require.Equal(t, "42", page.UserID)
	require.True(t, page.HasCompletionUI)
	require.Equal(t, "INTAKE.SECTIONS.TERMS", page.Sections[0].Display)
	require.True(t, page.HasTermsItem("website_terms_of_use"))
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"version":   "version: 2\nsections: [{id: a, display: A}]",
		"empty":     "version: 1\nsections: []",
		"display":   "version: 1\nsections: [{id: a}]",
		"duplicate": "version: 1\nsections: [{id: a, display: A}, {id: a, display: B}]",
		"yaml":      "version: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestLoad_RepositoryLayout(t *testing.T) {
	path := filepath.Join("..", "..", "..", "..", "config", "intake", "layout.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("repository layout not present")
	}
	l, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "topTerms", l.Sections[0].ID)
	require.Len(t, l.Sections, 4)
}
