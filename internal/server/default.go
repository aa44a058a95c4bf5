package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/pkg/application"
	"github.com/iota-uz/intake/pkg/configuration"
	"github.com/iota-uz/intake/pkg/httpapi"
	"github.com/iota-uz/intake/pkg/middleware"
	"github.com/iota-uz/intake/pkg/routing"
	"github.com/iota-uz/intake/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Entrypoint    string
	// AllowlistPath defaults to routing.DefaultAllowlistPath().
	AllowlistPath string
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	path := options.AllowlistPath
	if path == "" {
		path = routing.DefaultAllowlistPath()
	}
	rules, err := routing.LoadAllowlist(path, options.Entrypoint)
	if err != nil {
		return nil, err
	}
	classifier := routing.NewClassifier(rules)

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader
	loggerOpts.Classifier = classifier

	// Core middleware stack with tracing capabilities
	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts), // creates the root span for each request

		middleware.TracedMiddleware("opsGuard"),
		middleware.OpsGuard(conf, classifier),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.Cors.AllowedOrigins...),
	}
	app.RegisterMiddleware(middlewares...)

	return server.NewHTTPServer(
		app,
		NotFound(classifier),
		MethodNotAllowed(classifier),
	), nil
}

// NotFound answers JSON on api routes and plain text elsewhere.
func NotFound(classifier *routing.Classifier) http.Handler {
	return errorHandler(classifier, http.StatusNotFound, "NOT_FOUND")
}

func MethodNotAllowed(classifier *routing.Classifier) http.Handler {
	return errorHandler(classifier, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func errorHandler(classifier *routing.Classifier, status int, code string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if classifier.ClassifyPath(r.URL.Path).IsJSON() {
			_ = httpapi.WriteError(w, status, code, http.StatusText(status), map[string]string{"path": r.URL.Path})
			return
		}
		http.Error(w, http.StatusText(status), status)
	})
}
