// Package markup reads the intake wizard description out of a rendered portal page.
package markup

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
)

const (
	sectionSelector    = "#mainDiv .section-container"
	termsItemSelector  = "#termsCheckbox [data-type='terms'][data-core-data-type]"
	completionSelector = "div.reg-complete-container"
	userIDSelector     = "#iq_userId"
	clinicSelector     = "#preselectClinic"
)

// DiscoverPage parses html and returns the wizard page it describes. Containers without
// an id are ignored; validation of the rest is left to the controller.
func DiscoverPage(r io.Reader) (section.Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return section.Page{}, errors.Wrap(err, "parse intake page")
	}
	return FromDocument(doc), nil
}

func FromDocument(doc *goquery.Document) section.Page {
	page := section.Page{
		UserID:          inputValue(doc, userIDSelector),
		PreselectClinic: inputValue(doc, clinicSelector),
	}

	doc.Find(sectionSelector).Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("id", ""))
		if id == "" {
			return
		}
		page.Sections = append(page.Sections, section.Descriptor{
			ID:      id,
			Config:  s.AttrOr("data-config", ""),
			Display: s.AttrOr("data-display", ""),
		})
	})

	seen := map[string]struct{}{}
	doc.Find(termsItemSelector).Each(func(_ int, s *goquery.Selection) {
		field := strings.TrimSpace(s.AttrOr("data-core-data-type", ""))
		if field == "" {
			return
		}
		if _, dup := seen[field]; dup {
			return
		}
		seen[field] = struct{}{}
		page.TermsItems = append(page.TermsItems, field)
	})

	doc.Find(completionSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !s.HasClass("inactive") {
			page.HasCompletionUI = true
			return false
		}
		return true
	})
	return page
}

func inputValue(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("value", ""))
}
