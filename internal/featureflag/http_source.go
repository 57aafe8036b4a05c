package featureflag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxTemplateBytes = 1 << 20

// The fetch response carries string values only; the caller decides how to
// interpret them.
const templateSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "state": {"enum": ["UPDATE", "NO_CHANGE", "NO_TEMPLATE", "EMPTY_CONFIG"]},
    "entries": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  },
  "required": ["state"]
}`

var compiledTemplateSchema = jsonschema.MustCompileString("remote-config.schema.json", templateSchema)

type template struct {
	State   string            `json:"state"`
	Entries map[string]string `json:"entries"`
}

// HTTPSource fetches a remote config template over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrThrottled
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("fetch %s: status %d: %w", s.url, resp.StatusCode, ErrPermissionDenied)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes))
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return decodeTemplate(body)
}

func decodeTemplate(body []byte) (map[string]string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := compiledTemplateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	var t template
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if t.Entries == nil {
		t.Entries = map[string]string{}
	}
	return t.Entries, nil
}
