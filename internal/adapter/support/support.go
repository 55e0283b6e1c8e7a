// Package support provisions helpdesk accounts through a helpdesk admin API.
package support

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

	"github.com/neomorfeo/proviq/internal/domain"
)

// Config holds the helpdesk endpoint and API token.
type Config struct {
	BaseURL string
	Token   string
}

// Handler implements domain.ProviderHandler against a helpdesk. Each
// subscribed component maps to one helpdesk company, addressed by the
// component id as external reference. Suspension toggles the company's
// status, which the helpdesk applies idempotently.
type Handler struct {
	cfg    Config
	client *http.Client
}

// Compile-time check: Handler implements domain.ProviderHandler.
var _ domain.ProviderHandler = (*Handler)(nil)

// New creates a handler for the given helpdesk endpoint. A nil client gets
// a default with pooled connections and a request timeout.
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

// Provision creates the helpdesk company on the plan named in the component
// config. The helpdesk's account id becomes the remote id.
func (h *Handler) Provision(ctx context.Context, req domain.ProvisionRequest) (domain.ProviderResult, error) {
	payload := map[string]any{"external_ref": req.ComponentID}
	if v, ok := req.Config["company_name"]; ok {
		payload["name"] = v
	}
	if v, ok := req.Config["plan"]; ok {
		payload["plan"] = v
	}

	status, body, err := h.do(ctx, http.MethodPost, "/api/v1/companies", payload)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return domain.ProviderResult{Success: false, Message: refusal("creating company", status, body)}, nil
	}

	var created struct {
		ID   string `json:"id"`
		Plan string `json:"plan"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return domain.ProviderResult{}, fmt.Errorf("decoding company response: %w", err)
	}

	result := domain.ProviderResult{
		Success:  true,
		RemoteID: created.ID,
		Message:  "company created",
	}
	if created.Plan != "" {
		result.Data = map[string]any{"plan": created.Plan}
	}
	return result, nil
}

// Suspend marks the company suspended, locking its agents out.
func (h *Handler) Suspend(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	return h.setStatus(ctx, componentID, "suspended")
}

// Unsuspend marks the company active again.
func (h *Handler) Unsuspend(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	return h.setStatus(ctx, componentID, "active")
}

// Terminate deletes the company. A company the helpdesk no longer knows
// counts as success.
func (h *Handler) Terminate(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	status, body, err := h.do(ctx, http.MethodDelete, "/api/v1/companies/"+url.PathEscape(componentID), nil)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.ProviderResult{Success: true, Message: "company deleted"}, nil
	case http.StatusNotFound:
		return domain.ProviderResult{Success: true, Message: "company already gone"}, nil
	default:
		return domain.ProviderResult{Success: false, Message: refusal("deleting company", status, body)}, nil
	}
}

// setStatus puts the company into the given status. The helpdesk treats the
// update as idempotent, so repeating it reports success.
func (h *Handler) setStatus(ctx context.Context, componentID, companyStatus string) (domain.ProviderResult, error) {
	payload := map[string]any{"status": companyStatus}
	status, body, err := h.do(ctx, http.MethodPut, "/api/v1/companies/"+url.PathEscape(componentID)+"/status", payload)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.ProviderResult{Success: true, Message: "company status set to " + companyStatus}, nil
	default:
		return domain.ProviderResult{Success: false, Message: refusal("setting company status", status, body)}, nil
	}
}

func refusal(action string, status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Sprintf("%s returned HTTP %d", action, status)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", action, status, msg)
}

// do executes one helpdesk request and hands back the raw status and body.
func (h *Handler) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding %s %s payload: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(h.cfg.BaseURL, "/")+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	return resp.StatusCode, body, nil
}
