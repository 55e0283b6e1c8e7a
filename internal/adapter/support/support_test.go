package support_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neomorfeo/proviq/internal/adapter/support"
	"github.com/neomorfeo/proviq/internal/domain"
)

func newHandler(t *testing.T, server *httptest.Server) *support.Handler {
	t.Helper()
	return support.New(support.Config{BaseURL: server.URL, Token: "hd-token"}, server.Client())
}

func TestProvision_CreatesCompany(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/companies" {
			t.Errorf("got %s %s, want POST /api/v1/companies", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hd-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer hd-token")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"hd-4411","plan":"premium"}`)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Provision(context.Background(), domain.ProvisionRequest{
		ComponentID: "comp-1",
		Config:      map[string]any{"company_name": "Acme Inc", "plan": "premium"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.RemoteID != "hd-4411" {
		t.Errorf("RemoteID = %q, want %q", result.RemoteID, "hd-4411")
	}
	if result.Data["plan"] != "premium" {
		t.Errorf("Data[plan] = %v", result.Data["plan"])
	}

	if gotPayload["external_ref"] != "comp-1" {
		t.Errorf("payload external_ref = %v", gotPayload["external_ref"])
	}
	if gotPayload["name"] != "Acme Inc" {
		t.Errorf("payload name = %v", gotPayload["name"])
	}
	if gotPayload["plan"] != "premium" {
		t.Errorf("payload plan = %v", gotPayload["plan"])
	}
}

func TestProvision_PlanRejectedReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown plan: platinum", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Provision(context.Background(), domain.ProvisionRequest{
		ComponentID: "comp-1",
		Config:      map[string]any{"plan": "platinum"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Message, "unknown plan") {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestSuspend_SetsStatus(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/companies/comp-1/status" {
			t.Errorf("got %s %s, want PUT /api/v1/companies/comp-1/status", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Suspend(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if gotPayload["status"] != "suspended" {
		t.Errorf("payload status = %v, want %q", gotPayload["status"], "suspended")
	}
}

func TestUnsuspend_SetsStatusActive(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Unsuspend(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if gotPayload["status"] != "active" {
		t.Errorf("payload status = %v, want %q", gotPayload["status"], "active")
	}
}

func TestSuspend_MissingCompanyReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Suspend(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for a company that was never provisioned")
	}
}

func TestTerminate_MissingCompanyCountsAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/companies/comp-1" {
			t.Errorf("got %s %s, want DELETE /api/v1/companies/comp-1", r.Method, r.URL.Path)
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Terminate(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected idempotent success, got message %q", result.Message)
	}
}
