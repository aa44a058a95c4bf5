package portalapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
)

const maxOrgDepth = 16

// SectionLoader fetches the initial data of the sections that have one. Section ids are
// configurable, so the mapping is built from them.
type SectionLoader struct {
	client  *Client
	loaders map[string]func(ctx context.Context, userID string) (json.RawMessage, error)
}

type SectionIDs struct {
	Terms        string
	Demographics string
	Clinical     string
	Orgs         string
}

func DefaultSectionIDs() SectionIDs {
	return SectionIDs{
		Terms:        "topTerms",
		Demographics: "demographicsContainer",
		Clinical:     "clinicalContainer",
		Orgs:         "orgsContainer",
	}
}

func NewSectionLoader(client *Client, ids SectionIDs) *SectionLoader {
	l := &SectionLoader{client: client, loaders: map[string]func(context.Context, string) (json.RawMessage, error){}}
	add := func(id string, fn func(context.Context, string) (json.RawMessage, error)) {
		if id != "" {
			l.loaders[id] = fn
		}
	}
	add(ids.Terms, client.Terms)
	add(ids.Demographics, client.Demographics)
	add(ids.Orgs, client.Demographics)
	add(ids.Clinical, client.Clinical)
	return l
}

func (l *SectionLoader) Supports(sectionID string) bool {
	_, ok := l.loaders[sectionID]
	return ok
}

func (l *SectionLoader) LoadSection(ctx context.Context, userID, sectionID string) (json.RawMessage, error) {
	fn, ok := l.loaders[sectionID]
	if !ok {
		return nil, errors.Errorf("no loader for section %q", sectionID)
	}
	return fn(ctx, userID)
}

func (c *Client) raw(ctx context.Context, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Terms(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.raw(ctx, pathf("/api/user/%s/tou", userID))
}

func (c *Client) Demographics(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.raw(ctx, pathf("/api/demographics/%s", userID))
}

// Clinical loads treatment procedures first and clinical observations after, combined
// into one payload.
func (c *Client) Clinical(ctx context.Context, userID string) (json.RawMessage, error) {
	procedure, err := c.raw(ctx, pathf("/api/patient/%s/procedure", userID))
	if err != nil {
		return nil, errors.Wrap(err, "procedure")
	}
	clinical, err := c.raw(ctx, pathf("/api/patient/%s/clinical", userID))
	if err != nil {
		return nil, errors.Wrap(err, "clinical")
	}
	out, err := json.Marshal(struct {
		Procedure json.RawMessage `json:"procedure"`
		Clinical  json.RawMessage `json:"clinical"`
	}{procedure, clinical})
	if err != nil {
		return nil, errors.Wrap(err, "combine clinical payload")
	}
	return out, nil
}

// TopLevelOrg follows partOf references up to the organization without a parent.
func (c *Client) TopLevelOrg(ctx context.Context, orgID string) (string, error) {
	current := strings.TrimSpace(orgID)
	if current == "" {
		return "", errors.New("empty organization id")
	}
	for depth := 0; depth < maxOrgDepth; depth++ {
		var out struct {
			PartOf *struct {
				Reference string `json:"reference"`
			} `json:"partOf"`
		}
		if err := c.doJSON(ctx, http.MethodGet, pathf("/api/organization/%s", current), nil, &out); err != nil {
			return "", err
		}
		if out.PartOf == nil || strings.TrimSpace(out.PartOf.Reference) == "" {
			return current, nil
		}
		parent := referenceID(out.PartOf.Reference)
		if parent == "" || parent == current {
			return current, nil
		}
		current = parent
	}
	return "", errors.Errorf("organization %s: hierarchy deeper than %d levels", orgID, maxOrgDepth)
}

func referenceID(ref string) string {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
