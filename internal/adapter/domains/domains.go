// Package domains provisions domain registrations through a registrar API.
package domains

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

// Config holds the registrar endpoint and API key.
type Config struct {
	BaseURL string
	APIKey  string
}

// Handler implements domain.ProviderHandler against a registrar. Registrations
// are addressed by the component id as external reference. Suspension maps to
// a registry hold on the domain; unsuspension removes the hold.
type Handler struct {
	cfg    Config
	client *http.Client
}

// Compile-time check: Handler implements domain.ProviderHandler.
var _ domain.ProviderHandler = (*Handler)(nil)

// New creates a handler for the given registrar endpoint. A nil client gets
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

// Provision registers the domain named in the component config. The
// registrar's order id becomes the remote id.
func (h *Handler) Provision(ctx context.Context, req domain.ProvisionRequest) (domain.ProviderResult, error) {
	payload := map[string]any{"external_ref": req.ComponentID}
	if v, ok := req.Config["domain"]; ok {
		payload["domain"] = v
	}
	if v, ok := req.Config["years"]; ok {
		payload["years"] = v
	}

	status, body, err := h.do(ctx, http.MethodPost, "/v1/registrations", payload)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return domain.ProviderResult{Success: false, Message: refusal("registering domain", status, body)}, nil
	}

	var registered struct {
		OrderID string `json:"order_id"`
		Domain  string `json:"domain"`
	}
	if err := json.Unmarshal(body, &registered); err != nil {
		return domain.ProviderResult{}, fmt.Errorf("decoding registration response: %w", err)
	}

	result := domain.ProviderResult{
		Success:  true,
		RemoteID: registered.OrderID,
		Message:  "domain registered",
	}
	if registered.Domain != "" {
		result.Data = map[string]any{"domain": registered.Domain}
	}
	return result, nil
}

// Suspend places a hold on the registration. A registration already on hold
// answers 409 and counts as success.
func (h *Handler) Suspend(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	status, body, err := h.do(ctx, http.MethodPost, "/v1/registrations/"+url.PathEscape(componentID)+"/hold", nil)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.ProviderResult{Success: true, Message: "domain placed on hold"}, nil
	case http.StatusConflict:
		return domain.ProviderResult{Success: true, Message: "domain already on hold"}, nil
	default:
		return domain.ProviderResult{Success: false, Message: refusal("placing hold", status, body)}, nil
	}
}

// Unsuspend removes the hold. A registration with no hold answers 404 and
// counts as success.
func (h *Handler) Unsuspend(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	status, body, err := h.do(ctx, http.MethodDelete, "/v1/registrations/"+url.PathEscape(componentID)+"/hold", nil)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.ProviderResult{Success: true, Message: "hold removed"}, nil
	case http.StatusNotFound:
		return domain.ProviderResult{Success: true, Message: "domain was not on hold"}, nil
	default:
		return domain.ProviderResult{Success: false, Message: refusal("removing hold", status, body)}, nil
	}
}

// Terminate deletes the registration. A registration the registrar no longer
// knows counts as success.
func (h *Handler) Terminate(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	status, body, err := h.do(ctx, http.MethodDelete, "/v1/registrations/"+url.PathEscape(componentID), nil)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.ProviderResult{Success: true, Message: "registration deleted"}, nil
	case http.StatusNotFound:
		return domain.ProviderResult{Success: true, Message: "registration already gone"}, nil
	default:
		return domain.ProviderResult{Success: false, Message: refusal("deleting registration", status, body)}, nil
	}
}

func refusal(action string, status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Sprintf("%s returned HTTP %d", action, status)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", action, status, msg)
}

// do executes one registrar request and hands back the raw status and body.
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
	req.Header.Set("X-Api-Key", h.cfg.APIKey)
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
