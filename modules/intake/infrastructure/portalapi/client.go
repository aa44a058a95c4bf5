// Package portalapi is the HTTP client for the portal REST API the intake wizard reads.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/intake/pkg/logging"
)

const tracerName = "github.com/iota-uz/intake/modules/intake/infrastructure/portalapi"

// forwardedHeaders are copied from the browser request so the portal sees the same session.
var forwardedHeaders = []string{"Cookie", "Authorization", "Accept-Language"}

// APIError is returned for non-2xx responses and for 2xx bodies carrying an "error" field.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("portal api %s: status=%d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("portal api %s: %s", e.Path, e.Message)
}

type Options struct {
	BaseURL         string
	Timeout         time.Duration
	RequestIDHeader string
	HTTPClient      *http.Client
	Logger          *logrus.Entry
}

type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	requestIDHeader string
	headers         http.Header
	log             *logrus.Entry
	tracer          trace.Tracer
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid portal api url: %q", raw)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL:         u,
		httpClient:      httpClient,
		requestIDHeader: opts.RequestIDHeader,
		headers:         http.Header{},
		log:             log,
		tracer:          otel.Tracer(tracerName),
	}, nil
}

// WithForwardedHeaders returns a copy of the client that sends the session headers in h
// along with every request.
func (c *Client) WithForwardedHeaders(h http.Header) *Client {
	cp := *c
	cp.headers = http.Header{}
	for _, name := range forwardedHeaders {
		if v := h.Values(name); len(v) > 0 {
			cp.headers[http.CanonicalHeaderKey(name)] = append([]string(nil), v...)
		}
	}
	return &cp
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	ctx, span := c.tracer.Start(ctx, "portalapi "+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	err := c.do(ctx, method, path, reqBody, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("portalapi: request failed")
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return errors.Wrap(err, "json marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	for name, values := range c.headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "http read")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Path: path, Message: errorMessage(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "json unmarshal response")
	}
	return nil
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != nil {
			return fmt.Sprint(env.Error)
		}
	}
	return strings.TrimSpace(string(body))
}

// id accepts both numeric and string JSON ids.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*i = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*i = id(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = id(n.String())
	return nil
}

func pathf(format, segment string) string {
	return fmt.Sprintf(format, url.PathEscape(segment))
}

// Ping checks that the portal answers its healthcheck.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthcheck", nil, nil)
}
