package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/modules/intake/infrastructure/markup"
)

func TestIntakePage_RoundTripsThroughDiscovery(t *testing.T) {
	props := &IntakePageProps{
		Lang:            "en",
		Title:           "Complete <your> registration",
		UserID:          "42",
		PreselectClinic: "1001",
		TermsSection:    "topTerms",
		Sections: []SectionProps{
			{ID: "topTerms", Config: "website_terms_of_use", Display: "Terms"},
			{ID: "demographicsContainer", Config: "name,dob", Display: `About "you"`},
		},
		TermsItems:   []TermsItemProps{{Field: "website_terms_of_use", Label: "I agree"}},
		CompletionUI: true,
		ScriptURL:    "/intake/assets/intake-abc.js",
	}
	var buf bytes.Buffer
	require.NoError(t, IntakePage(props).Render(context.Background(), &buf))
	require.NotContains(t, buf.String(), "<your>")

	page, err := markup.DiscoverPage(&buf)
	require.NoError(t, err)
	require.Equal(t, "42", page.UserID)
	require.Equal(t, "1001", page.PreselectClinic)
	require.Equal(t, []section.Descriptor{
		{ID: "topTerms", Config: "website_terms_of_use", Display: "Terms"},
		{ID: "demographicsContainer", Config: "name,dob", Display: `About "you"`},
	}, page.Sections)
	require.Equal(t, []string{"website_terms_of_use"}, page.TermsItems)
	require.True(t, page.HasCompletionUI)
}

func TestIntakePage_InactiveCompletion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, IntakePage(&IntakePageProps{
		Sections: []SectionProps{{ID: "orgsContainer", Display: "Clinic"}},
	}).Render(context.Background(), &buf))

	page, err := markup.DiscoverPage(&buf)
	require.NoError(t, err)
	require.False(t, page.HasCompletionUI)
	require.Empty(t, page.UserID)
}

func TestIntakePage_TermsItemsCanBeMarkedAgreed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, IntakePage(&IntakePageProps{
		TermsSection: "topTerms",
		Sections:     []SectionProps{{ID: "topTerms", Config: "privacy_policy", Display: "Terms"}},
		TermsItems: []TermsItemProps{
			{Field: "privacy_policy", Label: "Privacy"},
			{Field: "website_terms_of_use", Label: "Terms of use"},
		},
	}).Render(context.Background(), &buf))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find("#topTerms #termsText").Length())
	for _, field := range []string{"privacy_policy", "website_terms_of_use"} {
		label := doc.Find("#termsCheckbox [data-core-data-type='" + field + "']").Closest("label.terms-label")
		require.Equal(t, 1, label.Length(), field)
	}
}
