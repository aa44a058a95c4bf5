package intake

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/benbjohnson/hashfs"
	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/intake/modules/intake/infrastructure/portalapi"
	"github.com/iota-uz/intake/modules/intake/infrastructure/rolecache"
	"github.com/iota-uz/intake/modules/intake/infrastructure/telemetry"
	"github.com/iota-uz/intake/modules/intake/presentation/controllers"
	"github.com/iota-uz/intake/modules/intake/presentation/layout"
	"github.com/iota-uz/intake/modules/intake/presentation/liveview"
	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/application"
	"github.com/iota-uz/intake/pkg/configuration"
	"github.com/iota-uz/intake/pkg/intl"
	"github.com/iota-uz/intake/pkg/scheduler"
)

//go:embed presentation/locales/*.json presentation/locales/*.toml
var LocaleFiles embed.FS

//go:embed presentation/assets/*
var assetFiles embed.FS

type ModuleOptions struct {
	// Config defaults to configuration.Use().
	Config *configuration.Configuration
	// Registerer receives the intake metrics; defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// HTTPClient overrides the portal API transport, mostly for tests.
	HTTPClient *http.Client
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{opts: opts}
}

type Module struct {
	opts *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	conf := m.opts.Config
	if conf == nil {
		conf = configuration.Use()
	}
	logger := app.Logger()

	l, err := layout.Load(conf.Intake.LayoutPath)
	if err != nil {
		return errors.Wrap(err, "intake: load layout")
	}

	client, err := portalapi.New(portalapi.Options{
		BaseURL:         conf.PortalAPI.URL,
		Timeout:         conf.PortalAPI.Timeout,
		RequestIDHeader: conf.RequestIDHeader,
		HTTPClient:      m.opts.HTTPClient,
		Logger:          logger.WithField("component", "intake.portalapi"),
	})
	if err != nil {
		return errors.Wrap(err, "intake: portal api client")
	}

	store, err := newRoleStore(conf.RoleCache)
	if err != nil {
		return err
	}

	sub, err := fs.Sub(assetFiles, "presentation/assets")
	if err != nil {
		return errors.Wrap(err, "intake: assets")
	}
	assets := hashfs.NewFS(sub)

	bus := app.EventPublisher()
	registerer := m.opts.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	telemetry.NewMetrics(registerer).Subscribe(bus)
	telemetry.NewAudit(logger).Subscribe(bus)

	ids := portalapi.SectionIDs{
		Terms:        conf.Intake.TermsSection,
		Demographics: "demographicsContainer",
		Clinical:     "clinicalContainer",
		Orgs:         conf.Intake.OrgsSection,
	}
	deps := func(r *http.Request) services.Deps {
		api := client.WithForwardedHeaders(r.Header)
		return services.Deps{
			API:       api,
			Roles:     rolecache.New(api, store, logger.WithField("component", "intake.rolecache")),
			Loader:    portalapi.NewSectionLoader(api, ids),
			Orgs:      api,
			Scheduler: scheduler.NewReal(),
			Bus:       bus,
		}
	}

	manager := liveview.NewManager(liveview.Config{
		Layout:    l,
		Bundle:    app.Bundle(),
		Languages: intl.Tags(app.GetSupportedLanguages()),
		Deps:      deps,
		Options: services.Options{
			Timings:      timings(conf.Intake),
			TermsSection: conf.Intake.TermsSection,
			OrgsSection:  conf.Intake.OrgsSection,
		},
		UserIDHeader: conf.UserIDHeader,
		CheckOrigin:  originChecker(conf),
		Logger:       logger,
	})

	app.RegisterServices(client, manager)
	app.RegisterHashFsAssets(assets)
	app.RegisterControllers(
		controllers.NewIntakeController(controllers.IntakeControllerConfig{
			BasePath:     "/intake",
			App:          app,
			Layout:       l,
			Live:         manager,
			Assets:       assets,
			UserIDHeader: conf.UserIDHeader,
			TermsSection: conf.Intake.TermsSection,
			API: func(r *http.Request) services.PortalAPI {
				return client.WithForwardedHeaders(r.Header)
			},
		}),
	)
	app.RegisterLocaleFiles(&LocaleFiles)
	return nil
}

func (m *Module) Name() string {
	return "intake"
}

func timings(o configuration.IntakeOptions) services.Timings {
	return services.Timings{
		PollInterval:      o.PollInterval,
		PollMinElapsed:    o.PollMinElapsed,
		PollCeiling:       o.PollCeiling,
		BootstrapInterval: o.BootstrapInterval,
		BootstrapCeiling:  o.BootstrapCeiling,
		BootstrapSettle:   o.BootstrapSettle,
		NextReloadDelay:   o.NextReloadDelay,
		RevealNextDelay:   o.RevealNextDelay,
	}
}

func newRoleStore(o configuration.RoleCacheOptions) (rolecache.Store, error) {
	if o.Backend != "redis" {
		return rolecache.NewInmemStore(clockwork.NewRealClock(), o.TTL), nil
	}
	var redisOpts *redis.Options
	if strings.Contains(o.RedisURL, "://") {
		parsed, err := redis.ParseURL(o.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "intake: parse REDIS_URL")
		}
		redisOpts = parsed
	} else {
		redisOpts = &redis.Options{Addr: o.RedisURL}
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "intake: redis ping")
	}
	return rolecache.NewRedisStore(client, o.TTL), nil
}

// originChecker accepts the configured origin and the CORS origins; any origin is fine
// outside production.
func originChecker(conf *configuration.Configuration) func(r *http.Request) bool {
	if conf.GoAppEnvironment != configuration.Production {
		return func(*http.Request) bool { return true }
	}
	allowed := map[string]struct{}{strings.TrimRight(conf.Origin, "/"): {}}
	for _, o := range conf.Cors.AllowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.TrimRight(origin, "/")]
		return ok
	}
}
