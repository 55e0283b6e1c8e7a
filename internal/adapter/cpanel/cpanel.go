// Package cpanel provisions hosting accounts through a WHM-style JSON API.
package cpanel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neomorfeo/proviq/internal/domain"
)

// Config holds the WHM endpoint and API token credentials.
type Config struct {
	BaseURL  string
	Username string
	Token    string
}

// Handler implements domain.ProviderHandler against a WHM server. Remote
// accounts are addressed by the component id, passed as the account's
// external reference, so no remote handle has to survive locally between
// operations. Failures talking to the panel are reported as unsuccessful
// results; an error only comes back when a 200 response cannot be decoded.
type Handler struct {
	cfg    Config
	client *http.Client
}

// Compile-time check: Handler implements domain.ProviderHandler.
var _ domain.ProviderHandler = (*Handler)(nil)

// New creates a handler for the given WHM endpoint. A nil client gets a
// default with pooled connections and a request timeout.
func New(cfg Config, client *http.Client) *Handler {
	if client == nil {
		client = defaultClient()
	}
	return &Handler{cfg: cfg, client: client}
}

func defaultClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// whmResponse is the WHM JSON API envelope. result 1 means the function
// succeeded; on refusal, reason says why.
type whmResponse struct {
	Metadata struct {
		Result int    `json:"result"`
		Reason string `json:"reason"`
	} `json:"metadata"`
	Data struct {
		Username string `json:"username"`
		Server   string `json:"server"`
	} `json:"data"`
}

func (r whmResponse) ok() bool { return r.Metadata.Result == 1 }

// Provision creates the hosting account. The account username assigned by
// WHM becomes the remote id; the server it landed on is kept as data.
func (h *Handler) Provision(ctx context.Context, req domain.ProvisionRequest) (domain.ProviderResult, error) {
	params := url.Values{}
	params.Set("externalref", req.ComponentID)
	for _, key := range []string{"domain", "plan", "username"} {
		if v, ok := req.Config[key].(string); ok && v != "" {
			params.Set(key, v)
		}
	}

	resp, err := h.call(ctx, "createacct", params)
	if err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.refused != "" {
		return domain.ProviderResult{Success: false, Message: resp.refused}, nil
	}
	if !resp.envelope.ok() {
		return domain.ProviderResult{Success: false, Message: resp.envelope.Metadata.Reason}, nil
	}

	result := domain.ProviderResult{
		Success:  true,
		RemoteID: resp.envelope.Data.Username,
		Message:  resp.envelope.Metadata.Reason,
	}
	if resp.envelope.Data.Server != "" {
		result.Data = map[string]any{"server": resp.envelope.Data.Server}
	}
	return result, nil
}

// Suspend suspends the account. An account that is already suspended counts
// as success, so redelivered events settle instead of failing.
func (h *Handler) Suspend(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	return h.toggle(ctx, "suspendacct", componentID, "already suspended")
}

// Unsuspend lifts a suspension. An account that is not suspended counts as success.
func (h *Handler) Unsuspend(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	return h.toggle(ctx, "unsuspendacct", componentID, "not suspended")
}

// Terminate removes the account. An account that no longer exists counts as success.
func (h *Handler) Terminate(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	return h.toggle(ctx, "removeacct", componentID, "does not exist")
}

// toggle runs one of the single-account functions, treating refusals whose
// reason contains alreadyDone as idempotent success.
func (h *Handler) toggle(ctx context.Context, function, componentID, alreadyDone string) (domain.ProviderResult, error) {
	params := url.Values{}
	params.Set("externalref", componentID)

	resp, err := h.call(ctx, function, params)
	if err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.refused != "" {
		return domain.ProviderResult{Success: false, Message: resp.refused}, nil
	}
	if !resp.envelope.ok() {
		if strings.Contains(strings.ToLower(resp.envelope.Metadata.Reason), alreadyDone) {
			return domain.ProviderResult{Success: true, Message: resp.envelope.Metadata.Reason}, nil
		}
		return domain.ProviderResult{Success: false, Message: resp.envelope.Metadata.Reason}, nil
	}
	return domain.ProviderResult{Success: true, Message: resp.envelope.Metadata.Reason}, nil
}

// callResult carries either the decoded envelope or, when the panel could
// not be reached or answered non-200, the refusal message.
type callResult struct {
	envelope whmResponse
	refused  string
}

// call executes one WHM JSON API function.
func (h *Handler) call(ctx context.Context, function string, params url.Values) (callResult, error) {
	params.Set("api.version", "1")
	endpoint := strings.TrimRight(h.cfg.BaseURL, "/") + "/json-api/" + function + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return callResult{refused: fmt.Sprintf("building %s request: %v", function, err)}, nil
	}
	req.Header.Set("Authorization", "whm "+h.cfg.Username+":"+h.cfg.Token)

	resp, err := h.client.Do(req)
	if err != nil {
		return callResult{refused: fmt.Sprintf("calling %s: %v", function, err)}, nil
	}
	defer resp.Body.Close()

	// Read the body to completion so the connection can be reused.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return callResult{refused: fmt.Sprintf("reading %s response: %v", function, err)}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return callResult{refused: fmt.Sprintf("%s returned HTTP %d: %s", function, resp.StatusCode, strings.TrimSpace(string(body)))}, nil
	}

	var out whmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return callResult{}, fmt.Errorf("decoding %s response: %w", function, err)
	}
	return callResult{envelope: out}, nil
}
