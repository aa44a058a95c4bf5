package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
	"github.com/iota-uz/intake/modules/intake/infrastructure/markup"
	"github.com/iota-uz/intake/modules/intake/presentation/layout"
	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/application"
	"github.com/iota-uz/intake/pkg/httpapi"
)

const testLayout = `
version: 1
title: Intake.Title
completion_ui: true
terms_items: [website_terms_of_use]
sections:
  - id: topTerms
    display: Intake.Sections.Terms
    config: website_terms_of_use
  - id: demographicsContainer
    display: Intake.Sections.Demographics
    config: name,dob
`

type stubAPI struct {
	needed []string
}

func (s *stubAPI) CurrentUserID(context.Context) (string, error) { return "", nil }

func (s *stubAPI) StillNeeded(context.Context, string) ([]requiredfields.Item, error) {
	items := make([]requiredfields.Item, 0, len(s.needed))
	for _, f := range s.needed {
		items = append(items, requiredfields.Item{Field: f})
	}
	return items, nil
}

func (s *stubAPI) RequiredCoreData(context.Context) ([]string, error) { return nil, nil }

func newRouter(t *testing.T, api services.PortalAPI) *mux.Router {
	t.Helper()
	bundle := i18n.NewBundle(language.English)
	bundle.MustAddMessages(language.English,
		&i18n.Message{ID: "Intake.Title", Other: "Complete your registration"},
		&i18n.Message{ID: "Intake.Sections.Terms", Other: "Terms of use"},
		&i18n.Message{ID: "Intake.Sections.Demographics", Other: "About you"},
		&i18n.Message{ID: "Intake.TermsItems.website_terms_of_use", Other: "I agree to the terms"},
		&i18n.Message{ID: "Intake.Errors.UserIDRequired", Other: "User id is required"},
	)
	app := application.New(&application.ApplicationOptions{Bundle: bundle})
	l, err := layout.Parse([]byte(testLayout))
	require.NoError(t, err)

	assets := hashfs.NewFS(fstest.MapFS{"intake.js": {Data: []byte("console.log('intake')")}})
	r := mux.NewRouter()
	NewIntakeController(IntakeControllerConfig{
		App:          app,
		Layout:       l,
		Assets:       assets,
		UserIDHeader: "X-Portal-User",
		TermsSection: "topTerms",
		Live: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		API: func(*http.Request) services.PortalAPI { return api },
	}).Register(r)
	return r
}

func TestIntakeController_PageIsDiscoverable(t *testing.T) {
	r := newRouter(t, &stubAPI{})
	req := httptest.NewRequest(http.MethodGet, "/intake?preselect_clinic=1001", nil)
	req.Header.Set("X-Portal-User", "42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "I agree to the terms")

	page, err := markup.DiscoverPage(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	require.Equal(t, "42", page.UserID)
	require.Equal(t, "1001", page.PreselectClinic)
	require.Len(t, page.Sections, 2)
	require.Equal(t, "About you", page.Sections[1].Display)
	require.Equal(t, []string{"website_terms_of_use"}, page.TermsItems)
	require.True(t, page.HasCompletionUI)
}

func TestIntakeController_ServesHashedScript(t *testing.T) {
	r := newRouter(t, &stubAPI{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	start := strings.Index(body, `src="/intake/assets/`)
	require.GreaterOrEqual(t, start, 0)
	src := body[start+len(`src="`):]
	src = src[:strings.Index(src, `"`)]
	require.NotEqual(t, "/intake/assets/intake.js", src)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, src, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "console.log('intake')", string(got))
}

func TestIntakeController_LiveRoute(t *testing.T) {
	r := newRouter(t, &stubAPI{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake/live", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestIntakeController_Sections(t *testing.T) {
	r := newRouter(t, &stubAPI{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake/api/sections", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sectionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Complete your registration", resp.Title)
	require.Len(t, resp.Sections, 2)
	require.Equal(t, "topTerms", resp.Sections[0].ID)
	require.Equal(t, "Terms of use", resp.Sections[0].Display)
}

func TestIntakeController_Status(t *testing.T) {
	r := newRouter(t, &stubAPI{needed: []string{"dob"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake/api/status?user_id=42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st services.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, "42", st.UserID)
	require.Equal(t, "demographicsContainer", st.Next)
	require.False(t, st.Complete)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake/api/status", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "INTAKE_USER_ID_REQUIRED", env.Code)
	require.Equal(t, "User id is required", env.Message)
	require.Equal(t, "Intake.Errors.UserIDRequired", env.LocaleKey)
}
