package intl

import (
	"context"
	"errors"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var ErrNoLocalizer = errors.New("localizer not found")

type localizerKey struct{}
type localeKey struct{}

func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, l)
}

func UseLocalizer(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	return l, ok && l != nil
}

func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

func UseLocale(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(localeKey{}).(language.Tag)
	return tag, ok
}

// MustT localizes messageID with the localizer in ctx and panics without one.
func MustT(ctx context.Context, messageID string) string {
	l, ok := UseLocalizer(ctx)
	if !ok {
		panic(ErrNoLocalizer)
	}
	return l.MustLocalize(&i18n.LocalizeConfig{MessageID: messageID})
}

// Translator localizes message ids and falls back to the id itself for unknown messages.
type Translator struct {
	localizer *i18n.Localizer
}

func NewTranslator(bundle *i18n.Bundle, langs ...string) *Translator {
	return &Translator{localizer: i18n.NewLocalizer(bundle, langs...)}
}

func TranslatorFor(l *i18n.Localizer) *Translator {
	return &Translator{localizer: l}
}

func (t *Translator) T(messageID string) string {
	if t == nil || t.localizer == nil {
		return messageID
	}
	s, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil || s == "" {
		return messageID
	}
	return s
}

// Match picks the supported language closest to the candidates, English when nothing
// matches.
func Match(supported []language.Tag, candidates ...language.Tag) language.Tag {
	if len(supported) == 0 {
		return language.English
	}
	if len(candidates) == 0 {
		candidates = []language.Tag{language.English}
	}
	_, idx, _ := language.NewMatcher(supported).Match(candidates...)
	return supported[idx]
}

func Tags(codes []string) []language.Tag {
	langs := GetSupportedLanguages(codes)
	tags := make([]language.Tag, 0, len(langs))
	for _, l := range langs {
		tags = append(tags, l.Tag)
	}
	return tags
}
