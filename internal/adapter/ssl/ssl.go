// Package ssl provisions TLS certificates through a certificate authority API.
package ssl

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

// Config holds the certificate authority endpoint and API token.
type Config struct {
	BaseURL string
	Token   string
}

// Handler implements domain.ProviderHandler against a certificate authority.
// Certificates cannot be suspended, so suspend and unsuspend succeed without
// calling out. Issued certificates are addressed by the component id, which
// the CA keeps as the order's external reference.
type Handler struct {
	cfg    Config
	client *http.Client
}

// Compile-time check: Handler implements domain.ProviderHandler.
var _ domain.ProviderHandler = (*Handler)(nil)

// New creates a handler for the given CA endpoint. A nil client gets a
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

// Provision submits a certificate order. The component config is forwarded
// as the order payload, so common name, validity and friends stay between
// the catalog and the CA. The CA's certificate id becomes the remote id.
func (h *Handler) Provision(ctx context.Context, req domain.ProvisionRequest) (domain.ProviderResult, error) {
	payload := make(map[string]any, len(req.Config)+1)
	for k, v := range req.Config {
		payload[k] = v
	}
	payload["external_ref"] = req.ComponentID

	status, body, err := h.do(ctx, http.MethodPost, "/v1/certificates", payload)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return domain.ProviderResult{Success: false, Message: refusal("issuing certificate", status, body)}, nil
	}

	var issued struct {
		CertificateID string `json:"certificate_id"`
		ExpiresAt     string `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &issued); err != nil {
		return domain.ProviderResult{}, fmt.Errorf("decoding issue response: %w", err)
	}

	result := domain.ProviderResult{
		Success:  true,
		RemoteID: issued.CertificateID,
		Message:  "certificate issued",
	}
	if issued.ExpiresAt != "" {
		result.Data = map[string]any{"expires_at": issued.ExpiresAt}
	}
	return result, nil
}

// Suspend succeeds without touching the CA. A suspended subscription keeps
// its certificate; there is nothing to turn off.
func (h *Handler) Suspend(_ context.Context, _ string) (domain.ProviderResult, error) {
	return domain.ProviderResult{Success: true, Message: "certificates are not suspendable, left as issued"}, nil
}

// Unsuspend succeeds without touching the CA, mirroring Suspend.
func (h *Handler) Unsuspend(_ context.Context, _ string) (domain.ProviderResult, error) {
	return domain.ProviderResult{Success: true, Message: "certificate already active"}, nil
}

// Terminate revokes the certificate. A certificate the CA no longer knows,
// or one already revoked, counts as success.
func (h *Handler) Terminate(ctx context.Context, componentID string) (domain.ProviderResult, error) {
	status, body, err := h.do(ctx, http.MethodDelete, "/v1/certificates/"+url.PathEscape(componentID), nil)
	if err != nil {
		return domain.ProviderResult{Success: false, Message: err.Error()}, nil
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.ProviderResult{Success: true, Message: "certificate revoked"}, nil
	case http.StatusNotFound, http.StatusGone:
		return domain.ProviderResult{Success: true, Message: "certificate already revoked or unknown"}, nil
	default:
		return domain.ProviderResult{Success: false, Message: refusal("revoking certificate", status, body)}, nil
	}
}

func refusal(action string, status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Sprintf("%s returned HTTP %d", action, status)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", action, status, msg)
}

// do executes one CA request and hands back the raw status and body.
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
