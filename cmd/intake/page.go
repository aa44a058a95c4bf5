package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/modules/intake/infrastructure/markup"
	"github.com/iota-uz/intake/modules/intake/infrastructure/portalapi"
	"github.com/iota-uz/intake/modules/intake/presentation/layout"
)

// pageOptions selects where the wizard page comes from: a layout file or a rendered page
// (file path or URL).
type pageOptions struct {
	Layout string
	Page   string
	User   string
}

func (o *pageOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Layout, "layout", "config/intake/layout.yaml", "layout file")
	cmd.Flags().StringVar(&o.Page, "page", "", "rendered wizard page (file or http url); overrides --layout")
	cmd.Flags().StringVar(&o.User, "user", "", "user id; defaults to the page's or the portal's current user")
}

func (o *pageOptions) load(ctx context.Context) (section.Page, error) {
	var page section.Page
	switch {
	case strings.TrimSpace(o.Page) != "":
		p, err := discover(ctx, o.Page)
		if err != nil {
			return section.Page{}, err
		}
		page = p
	default:
		l, err := layout.Load(o.Layout)
		if err != nil {
			return section.Page{}, err
		}
		page = l.Page("", "", nil)
	}
	if u := strings.TrimSpace(o.User); u != "" {
		page.UserID = u
	}
	return page, nil
}

func discover(ctx context.Context, src string) (section.Page, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return section.Page{}, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return section.Page{}, errors.Wrap(err, "fetch page")
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode/100 != 2 {
			return section.Page{}, errors.Errorf("fetch page: status=%d", resp.StatusCode)
		}
		return markup.DiscoverPage(resp.Body)
	}
	f, err := os.Open(src)
	if err != nil {
		return section.Page{}, err
	}
	defer func() { _ = f.Close() }()
	return markup.DiscoverPage(f)
}

type portalOptions struct {
	BaseURL string
	Cookie  string
}

func (o *portalOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.BaseURL, "base-url", "http://localhost:5000", "portal API base URL")
	cmd.Flags().StringVar(&o.Cookie, "cookie", "", "session cookie forwarded to the portal")
}

func (o *portalOptions) client() (*portalapi.Client, error) {
	c, err := portalapi.New(portalapi.Options{BaseURL: o.BaseURL, RequestIDHeader: "X-Request-ID"})
	if err != nil {
		return nil, err
	}
	if o.Cookie != "" {
		c = c.WithForwardedHeaders(http.Header{"Cookie": []string{o.Cookie}})
	}
	return c, nil
}
