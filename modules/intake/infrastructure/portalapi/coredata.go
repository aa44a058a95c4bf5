package portalapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
	"github.com/iota-uz/intake/modules/intake/services"
)

func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	var out struct {
		ID id `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return "", err
	}
	return string(out.ID), nil
}

func (c *Client) StillNeeded(ctx context.Context, userID string) ([]requiredfields.Item, error) {
	path := pathf("/api/coredata/user/%s/still_needed", userID)
	var out struct {
		StillNeeded *[]requiredfields.Item `json:"still_needed"`
		Error       json.RawMessage        `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if hasError(out.Error) {
		return nil, &APIError{Path: path, Message: string(out.Error)}
	}
	if out.StillNeeded == nil {
		return nil, services.ErrStillNeededMissing
	}
	return *out.StillNeeded, nil
}

func (c *Client) RequiredCoreData(ctx context.Context) ([]string, error) {
	const path = "/api/settings/REQUIRED_CORE_DATA"
	var out struct {
		Fields []string        `json:"REQUIRED_CORE_DATA"`
		Error  json.RawMessage `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if hasError(out.Error) {
		return nil, &APIError{Path: path, Message: string(out.Error)}
	}
	return out.Fields, nil
}

func (c *Client) UserRoles(ctx context.Context, userID string) ([]string, error) {
	path := pathf("/api/user/%s/roles", userID)
	var out struct {
		Roles *[]struct {
			Name string `json:"name"`
		} `json:"roles"`
		Error json.RawMessage `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if hasError(out.Error) {
		return nil, &APIError{Path: path, Message: string(out.Error)}
	}
	if out.Roles == nil {
		return nil, &APIError{Path: path, Message: "roles missing from response"}
	}
	names := make([]string, 0, len(*out.Roles))
	for _, r := range *out.Roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func hasError(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", `""`:
		return false
	}
	return true
}
