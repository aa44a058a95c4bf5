package application

import (
	"embed"
	"testing"

	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/locales
var testLocales embed.FS

type keyedController struct{ key string }

func (c keyedController) Register(*mux.Router) {}
func (c keyedController) Key() string          { return c.key }

type greeter struct{ name string }

func TestApplication_ControllersOrderedAndDeduplicated(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterControllers(
		keyedController{key: "/intake"},
		keyedController{key: "/debug/prometheus"},
		keyedController{key: "/intake"},
	)
	controllers := app.Controllers()
	require.Len(t, controllers, 2)
	require.Equal(t, "/debug/prometheus", controllers[0].Key())
	require.Equal(t, "/intake", controllers[1].Key())
	require.Equal(t, []string{"en", "zh"}, app.GetSupportedLanguages())
	require.NotNil(t, app.EventPublisher())
}

func TestApplication_Services(t *testing.T) {
	app := New(&ApplicationOptions{})
	g := &greeter{name: "intake"}
	app.RegisterServices(g)

	got := app.Service((*greeter)(nil)).(*greeter)
	require.Same(t, g, got)
	require.Panics(t, func() { app.Service((*keyedController)(nil)) })
}

func TestApplication_LocaleFiles(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterLocaleFiles(&testLocales)

	en := i18n.NewLocalizer(app.Bundle(), "en")
	zh := i18n.NewLocalizer(app.Bundle(), "zh")
	require.Equal(t, "Hello", en.MustLocalize(&i18n.LocalizeConfig{MessageID: "Greeting.Hello"}))
	require.Equal(t, "你好", zh.MustLocalize(&i18n.LocalizeConfig{MessageID: "Greeting.Hello"}))
}
