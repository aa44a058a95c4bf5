package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/iota-uz/intake/pkg/composables"
	"github.com/iota-uz/intake/pkg/configuration"
	"github.com/iota-uz/intake/pkg/intl"
	"github.com/iota-uz/intake/pkg/routing"
)

func testClassifier() *routing.Classifier {
	return routing.NewClassifier([]routing.AllowlistRule{
		{Prefix: "/intake/api", Class: routing.RouteClassInternalAPI},
		{Prefix: "/debug/prometheus", Class: routing.RouteClassOps},
	})
}

func TestWithLogger_RequestIDAndContextLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts := DefaultLoggerOptions()
	opts.Classifier = testClassifier()

	var sawLogger bool
	h := WithLogger(logger, opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = composables.UseLogger(r.Context()).Data["request-id"] == "req-1"
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/intake", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, sawLogger)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	last := hook.LastEntry()
	require.Equal(t, "request completed", last.Message)
	require.Equal(t, http.StatusAccepted, last.Data["status-code"])
}

func TestWithLogger_PanicOnAPIRouteAnswersJSON(t *testing.T) {
	logger, hook := test.NewNullLogger()
	opts := DefaultLoggerOptions()
	opts.Classifier = testClassifier()
	h := WithLogger(logger, opts)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake/api/sections", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/intake", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Internal Server Error")

	var panics int
	for _, e := range hook.AllEntries() {
		if e.Message == "panic recovered in request handler" {
			panics++
		}
	}
	require.Equal(t, 2, panics)
}

func TestWithLogger_RequestBodyStillReadable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	}))
	req := httptest.NewRequest(http.MethodPost, "/intake/api/x", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, `{"a":1}`, rec.Body.String())
}

type fakeApp struct{ bundle *i18n.Bundle }

func (a fakeApp) Bundle() *i18n.Bundle            { return a.bundle }
func (a fakeApp) GetSupportedLanguages() []string { return []string{"en", "zh"} }

func TestProvideLocalizer(t *testing.T) {
	bundle := i18n.NewBundle(language.English)
	bundle.MustAddMessages(language.English, &i18n.Message{ID: "Intake.Next", Other: "Next"})
	bundle.MustAddMessages(language.Chinese, &i18n.Message{ID: "Intake.Next", Other: "下一步"})

	var got string
	var tag language.Tag
	h := ProvideLocalizer(fakeApp{bundle: bundle})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = intl.MustT(r.Context(), "Intake.Next")
		tag, _ = intl.UseLocale(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/intake", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "下一步", got)
	require.Equal(t, language.Chinese, tag)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/intake?lang=en", nil))
	require.Equal(t, "Next", got)
}

func TestOpsGuard(t *testing.T) {
	conf := &configuration.Configuration{
		GoAppEnvironment: configuration.Production,
		RealIPHeader:     "X-Real-IP",
		OpsGuard: configuration.OpsGuardOptions{
			Enabled: true,
			CIDRs:   "10.0.0.0/8",
			Token:   "secret",
		},
	}
	h := OpsGuard(conf, testClassifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"non ops route", "/intake", nil, http.StatusOK},
		{"ops without credentials", "/debug/prometheus", nil, http.StatusNotFound},
		{"ops from trusted network", "/debug/prometheus", map[string]string{"X-Real-IP": "10.1.2.3"}, http.StatusOK},
		{"ops with bearer token", "/debug/prometheus", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"ops with wrong token", "/debug/prometheus", map[string]string{"X-Ops-Token": "nope"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.RemoteAddr = "203.0.113.9:4000"
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}

	conf.GoAppEnvironment = "development"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCors(t *testing.T) {
	h := Cors("http://portal.example")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/intake", nil)
	req.Header.Set("Origin", "http://portal.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "http://portal.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
