// Package pages renders the intake wizard shell. Section bodies are filled in by the
// portal's own forms; this markup only carries what the live controller needs.
package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

type SectionProps struct {
	ID      string
	Config  string
	Display string
}

type TermsItemProps struct {
	Field string
	Label string
}

type IntakePageProps struct {
	Lang            string
	Title           string
	UserID          string
	PreselectClinic string
	Sections        []SectionProps
	TermsSection    string
	TermsItems      []TermsItemProps
	CompletionUI    bool
	LiveURL         string
	ScriptURL       string

	NextLabel     string
	SavingLabel   string
	CompleteTitle string
	ContinueLabel string
}

func attr(name, value string) string {
	return " " + name + `="` + templ.EscapeString(value) + `"`
}

func IntakePage(p *IntakePageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html")
		b.WriteString(attr("lang", p.Lang))
		b.WriteString(`><head><meta charset="utf-8"><title>`)
		b.WriteString(templ.EscapeString(p.Title))
		b.WriteString("</title></head><body>")

		b.WriteString(`<input type="hidden" id="iq_userId"` + attr("value", p.UserID) + ">")
		b.WriteString(`<input type="hidden" id="preselectClinic"` + attr("value", p.PreselectClinic) + ">")

		b.WriteString(`<main id="aboutForm"` + attr("data-live-url", p.LiveURL) + ">")
		b.WriteString(`<h1>` + templ.EscapeString(p.Title) + `</h1>`)
		b.WriteString(`<ol id="progressbar" class="progressbar"></ol>`)
		b.WriteString(`<div id="mainDiv">`)
		for _, s := range p.Sections {
			b.WriteString(`<section class="section-container"`)
			b.WriteString(attr("id", s.ID))
			b.WriteString(attr("data-config", s.Config))
			b.WriteString(attr("data-display", s.Display))
			b.WriteString(` hidden><h2>` + templ.EscapeString(s.Display) + `</h2>`)
			if s.ID == p.TermsSection && len(p.TermsItems) > 0 {
				b.WriteString(`<div id="termsText" class="terms-text"></div>`)
				b.WriteString(`<div id="termsCheckbox">`)
				for _, item := range p.TermsItems {
					b.WriteString(`<label class="terms-label"><input type="checkbox" data-type="terms"`)
					b.WriteString(attr("data-core-data-type", item.Field))
					b.WriteString("> " + templ.EscapeString(item.Label) + "</label>")
				}
				b.WriteString(`</div>`)
			}
			b.WriteString(`<div class="section-body"></div>`)
			b.WriteString(`<div class="save-indicator" hidden>` + templ.EscapeString(p.SavingLabel) + `</div>`)
			b.WriteString(`</section>`)
		}
		b.WriteString(`</div>`)

		b.WriteString(`<div class="intake-error" role="alert" hidden></div>`)
		b.WriteString(`<button type="button" id="next" disabled hidden>` + templ.EscapeString(p.NextLabel) + `</button>`)
		completeClass := "reg-complete-container"
		if !p.CompletionUI {
			completeClass += " inactive"
		}
		b.WriteString(`<div` + attr("class", completeClass) + ` hidden><h2>` + templ.EscapeString(p.CompleteTitle) + `</h2>`)
		b.WriteString(`<button type="button" id="continue">` + templ.EscapeString(p.ContinueLabel) + `</button></div>`)
		b.WriteString(`</main>`)

		if p.ScriptURL != "" {
			b.WriteString(`<script` + attr("src", p.ScriptURL) + ` defer></script>`)
		}
		b.WriteString("</body></html>")

		_, err := io.WriteString(w, b.String())
		return err
	})
}
