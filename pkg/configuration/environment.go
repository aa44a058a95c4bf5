package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files found in the working directory. When none exist there,
// the nearest parent holding a go.mod is tried instead so that package tests pick up the
// repository's .env files.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root := moduleRoot(); root != "" {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := wd; ; {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type PortalAPIOptions struct {
	URL     string        `env:"PORTAL_API_URL" envDefault:"http://localhost:5000"`
	Timeout time.Duration `env:"PORTAL_API_TIMEOUT" envDefault:"15s"`
}

// IntakeOptions holds the wizard timings. The defaults reproduce the tuned UI feel of the
// portal; none of them is a hard contract.
type IntakeOptions struct {
	PollInterval      time.Duration `env:"INTAKE_POLL_INTERVAL" envDefault:"150ms"`
	PollMinElapsed    time.Duration `env:"INTAKE_POLL_MIN_ELAPSED" envDefault:"500ms"`
	PollCeiling       time.Duration `env:"INTAKE_POLL_CEILING" envDefault:"10s"`
	BootstrapInterval time.Duration `env:"INTAKE_BOOTSTRAP_INTERVAL" envDefault:"100ms"`
	BootstrapCeiling  time.Duration `env:"INTAKE_BOOTSTRAP_CEILING" envDefault:"5s"`
	BootstrapSettle   time.Duration `env:"INTAKE_BOOTSTRAP_SETTLE" envDefault:"300ms"`
	NextReloadDelay   time.Duration `env:"INTAKE_NEXT_RELOAD_DELAY" envDefault:"150ms"`
	RevealNextDelay   time.Duration `env:"INTAKE_REVEAL_NEXT_DELAY" envDefault:"1s"`

	LayoutPath   string `env:"INTAKE_LAYOUT_PATH" envDefault:"config/intake/layout.yaml"`
	TermsSection string `env:"INTAKE_TERMS_SECTION" envDefault:"topTerms"`
	OrgsSection  string `env:"INTAKE_ORGS_SECTION" envDefault:"orgsContainer"`
}

func (o *IntakeOptions) Validate() error {
	durations := map[string]time.Duration{
		"INTAKE_POLL_INTERVAL":      o.PollInterval,
		"INTAKE_POLL_CEILING":       o.PollCeiling,
		"INTAKE_BOOTSTRAP_INTERVAL": o.BootstrapInterval,
		"INTAKE_BOOTSTRAP_CEILING":  o.BootstrapCeiling,
	}
	for name, d := range durations {
		if d <= 0 {
			return errors.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if o.PollMinElapsed < 0 {
		return errors.Errorf("INTAKE_POLL_MIN_ELAPSED must not be negative, got %s", o.PollMinElapsed)
	}
	if o.PollMinElapsed > o.PollCeiling {
		return errors.Errorf("INTAKE_POLL_MIN_ELAPSED (%s) exceeds INTAKE_POLL_CEILING (%s)", o.PollMinElapsed, o.PollCeiling)
	}
	return nil
}

type RoleCacheOptions struct {
	Backend  string        `env:"ROLE_CACHE_BACKEND" envDefault:"memory"` // memory or redis
	TTL      time.Duration `env:"ROLE_CACHE_TTL" envDefault:"5m"`
	RedisURL string        `env:"REDIS_URL" envDefault:"localhost:6379"`
}

func (r *RoleCacheOptions) Validate() error {
	r.Backend = strings.ToLower(strings.TrimSpace(r.Backend))
	switch r.Backend {
	case "memory", "redis":
	default:
		return errors.Errorf("invalid ROLE_CACHE_BACKEND=%q (expected memory|redis)", r.Backend)
	}
	if r.Backend == "redis" && r.RedisURL == "" {
		return errors.New("REDIS_URL is required when ROLE_CACHE_BACKEND is 'redis'")
	}
	if r.TTL < 0 {
		return errors.Errorf("ROLE_CACHE_TTL must not be negative, got %s", r.TTL)
	}
	return nil
}

type LogOptions struct {
	Level string `env:"LOG_LEVEL" envDefault:"error"`
	Path  string `env:"LOG_PATH" envDefault:"./logs/app.log"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"intake"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// OpsGuardOptions restricts ops routes (metrics) in production to trusted networks or a
// bearer token.
type OpsGuardOptions struct {
	Enabled bool   `env:"OPS_GUARD_ENABLED" envDefault:"true"`
	CIDRs   string `env:"OPS_GUARD_CIDRS" envDefault:""`
	Token   string `env:"OPS_GUARD_TOKEN" envDefault:""`
}

type CorsOptions struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,ws://localhost:3000"`
}

type Configuration struct {
	PortalAPI     PortalAPIOptions
	Intake        IntakeOptions
	RoleCache     RoleCacheOptions
	Log           LogOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	OpsGuard      OpsGuardOptions
	Cors          CorsOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	// Incoming requests carrying this header keep their id, otherwise a uuidv4 is generated.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	// Header set by the portal's auth proxy with the signed-in user's id.
	UserIDHeader string `env:"USER_ID_HEADER" envDefault:"X-Portal-User"`

	logFile interface{ Close() error }
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.Log.Level {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

// Parse reads the environment into a fresh Configuration without touching log files.
// Commands that only need option values use it instead of Use.
func Parse() (*Configuration, error) {
	c := &Configuration{}
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, err
	}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	return c, nil
}

func (c *Configuration) validate() error {
	if err := c.Intake.Validate(); err != nil {
		return errors.Wrap(err, "intake configuration error")
	}
	if err := c.RoleCache.Validate(); err != nil {
		return errors.Wrap(err, "role cache configuration error")
	}
	if strings.TrimSpace(c.PortalAPI.URL) == "" {
		return errors.New("PORTAL_API_URL must not be empty")
	}
	return nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.Path)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	if os.Getenv("ORIGIN") == "" && c.GoAppEnvironment == "development" {
		c.Origin = fmt.Sprintf("%s://localhost:%d", c.Scheme(), c.ServerPort)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
