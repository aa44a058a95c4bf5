package controllers

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/benbjohnson/hashfs"
	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/modules/intake/presentation/layout"
	"github.com/iota-uz/intake/modules/intake/presentation/templates/pages"
	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/application"
	"github.com/iota-uz/intake/pkg/composables"
	"github.com/iota-uz/intake/pkg/httpapi"
	"github.com/iota-uz/intake/pkg/intl"
	"github.com/iota-uz/intake/pkg/middleware"
	"github.com/iota-uz/intake/pkg/serrors"
)

const scriptName = "intake.js"

var errLayoutUnavailable = serrors.NewError("INTAKE_LAYOUT_UNAVAILABLE", "intake layout is not loaded", "Intake.Errors.LayoutUnavailable")

type IntakeControllerConfig struct {
	BasePath     string
	App          application.Application
	Layout       *layout.Layout
	Live         http.Handler
	Assets       *hashfs.FS
	UserIDHeader string
	TermsSection string
	// API builds a portal client for one request, forwarding the caller's session.
	API func(r *http.Request) services.PortalAPI
}

type IntakeController struct {
	basePath     string
	app          application.Application
	layout       *layout.Layout
	live         http.Handler
	assets       *hashfs.FS
	userIDHeader string
	termsSection string
	api          func(r *http.Request) services.PortalAPI
}

func NewIntakeController(cfg IntakeControllerConfig) application.Controller {
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath == "" {
		basePath = "/intake"
	}
	return &IntakeController{
		basePath:     basePath,
		app:          cfg.App,
		layout:       cfg.Layout,
		live:         cfg.Live,
		assets:       cfg.Assets,
		userIDHeader: cfg.UserIDHeader,
		termsSection: cfg.TermsSection,
		api:          cfg.API,
	}
}

func (c *IntakeController) Key() string {
	return c.basePath
}

func (c *IntakeController) Register(r *mux.Router) {
	if c.assets != nil {
		prefix := c.basePath + "/assets/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, hashfs.FileServer(c.assets))).Methods(http.MethodGet)
	}
	if c.live != nil {
		r.Handle(c.basePath+"/live", c.live).Methods(http.MethodGet)
	}

	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideLocalizer(c.app))
	router.HandleFunc("", c.Page).Methods(http.MethodGet)
	router.HandleFunc("/api/sections", c.Sections).Methods(http.MethodGet)
	router.HandleFunc("/api/status", c.Status).Methods(http.MethodGet)
}

func (c *IntakeController) translator(r *http.Request) *intl.Translator {
	if l, ok := intl.UseLocalizer(r.Context()); ok {
		return intl.TranslatorFor(l)
	}
	return nil
}

// userID prefers an explicit query parameter over the auth proxy header.
func (c *IntakeController) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("user_id")); id != "" {
		return id
	}
	if c.userIDHeader != "" {
		return strings.TrimSpace(r.Header.Get(c.userIDHeader))
	}
	return ""
}

func (c *IntakeController) Page(w http.ResponseWriter, r *http.Request) {
	tr := c.translator(r)
	if c.layout == nil {
		http.Error(w, tr.T("Intake.Errors.LayoutUnavailable"), http.StatusServiceUnavailable)
		return
	}
	props := &pages.IntakePageProps{
		Lang:            "en",
		Title:           tr.T(c.layout.Title),
		UserID:          c.userID(r),
		PreselectClinic: strings.TrimSpace(r.URL.Query().Get("preselect_clinic")),
		TermsSection:    c.termsSection,
		CompletionUI:    c.layout.CompletionUI,
		LiveURL:         c.basePath + "/live",
		NextLabel:       tr.T("Intake.Next"),
		SavingLabel:     tr.T("Intake.Saving"),
		CompleteTitle:   tr.T("Intake.Complete.Title"),
		ContinueLabel:   tr.T("Intake.Complete.Continue"),
	}
	if tag, ok := intl.UseLocale(r.Context()); ok {
		props.Lang = tag.String()
	}
	for _, d := range c.layout.Descriptors(tr.T) {
		props.Sections = append(props.Sections, pages.SectionProps{ID: d.ID, Config: d.Config, Display: d.Display})
	}
	for _, field := range c.layout.TermsItems {
		label := tr.T("Intake.TermsItems." + field)
		if strings.HasPrefix(label, "Intake.TermsItems.") {
			label = field
		}
		props.TermsItems = append(props.TermsItems, pages.TermsItemProps{Field: field, Label: label})
	}
	if c.assets != nil {
		props.ScriptURL = c.basePath + "/assets/" + c.assets.HashName(scriptName)
	}
	templ.Handler(pages.IntakePage(props)).ServeHTTP(w, r)
}

type sectionsResponse struct {
	Title        string               `json:"title"`
	CompletionUI bool                 `json:"completion_ui"`
	TermsItems   []string             `json:"terms_items"`
	Sections     []section.Descriptor `json:"sections"`
}

func (c *IntakeController) Sections(w http.ResponseWriter, r *http.Request) {
	tr := c.translator(r)
	if c.layout == nil {
		_ = httpapi.WriteCodedError(w, http.StatusServiceUnavailable, errLayoutUnavailable, nil, tr.T)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &sectionsResponse{
		Title:        tr.T(c.layout.Title),
		CompletionUI: c.layout.CompletionUI,
		TermsItems:   c.layout.TermsItems,
		Sections:     c.layout.Descriptors(tr.T),
	})
}

func (c *IntakeController) Status(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context())
	tr := c.translator(r)
	if c.layout == nil || c.api == nil {
		_ = httpapi.WriteCodedError(w, http.StatusServiceUnavailable, errLayoutUnavailable, nil, tr.T)
		return
	}
	page := c.layout.Page(c.userID(r), "", tr.T)
	st, err := services.Evaluate(r.Context(), c.api(r), page)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrUserIDRequired) {
			status = http.StatusBadRequest
		}
		logger.WithError(err).Warn("intake: status evaluation failed")
		_ = httpapi.WriteCodedError(w, status, err, services.ErrConfigUnavailable, tr.T)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, st)
}
