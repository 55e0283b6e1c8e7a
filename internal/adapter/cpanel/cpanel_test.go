package cpanel_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neomorfeo/proviq/internal/adapter/cpanel"
	"github.com/neomorfeo/proviq/internal/domain"
)

func newHandler(t *testing.T, server *httptest.Server) *cpanel.Handler {
	t.Helper()
	return cpanel.New(cpanel.Config{
		BaseURL:  server.URL,
		Username: "root",
		Token:    "test-token",
	}, server.Client())
}

func whmReply(result int, reason string, data string) string {
	if data == "" {
		data = "{}"
	}
	return fmt.Sprintf(`{"metadata":{"result":%d,"reason":%q,"command":"x"},"data":%s}`, result, reason, data)
}

func TestProvision_CreatesAccount(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		fmt.Fprint(w, whmReply(1, "Account Creation Ok", `{"username":"acmeweb1","server":"web03"}`))
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Provision(context.Background(), domain.ProvisionRequest{
		ComponentID: "comp-1",
		Config:      map[string]any{"domain": "acme.example", "plan": "gold"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.RemoteID != "acmeweb1" {
		t.Errorf("RemoteID = %q, want %q", result.RemoteID, "acmeweb1")
	}
	if result.Data["server"] != "web03" {
		t.Errorf("Data[server] = %v, want %q", result.Data["server"], "web03")
	}

	if gotPath != "/json-api/createacct" {
		t.Errorf("path = %q, want %q", gotPath, "/json-api/createacct")
	}
	if gotAuth != "whm root:test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "whm root:test-token")
	}
	for key, want := range map[string]string{
		"externalref": "comp-1",
		"domain":      "acme.example",
		"plan":        "gold",
		"api.version": "1",
	} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %q = %v, want [%q]", key, got, want)
		}
	}
}

func TestProvision_Refused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, whmReply(0, "Domain acme.example already exists", ""))
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Provision(context.Background(), domain.ProvisionRequest{ComponentID: "comp-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "Domain acme.example already exists" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestSuspend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json-api/suspendacct" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/json-api/suspendacct")
		}
		if got := r.URL.Query().Get("externalref"); got != "comp-1" {
			t.Errorf("externalref = %q, want %q", got, "comp-1")
		}
		fmt.Fprint(w, whmReply(1, "Account suspended", ""))
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
}

func TestSuspend_AlreadySuspendedCountsAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, whmReply(0, "Account is already suspended", ""))
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Suspend(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected idempotent success, got message %q", result.Message)
	}
}

func TestUnsuspend_NotSuspendedCountsAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json-api/unsuspendacct" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/json-api/unsuspendacct")
		}
		fmt.Fprint(w, whmReply(0, "Account acmeweb1 is not suspended", ""))
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Unsuspend(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected idempotent success, got message %q", result.Message)
	}
}

func TestTerminate_MissingAccountCountsAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json-api/removeacct" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/json-api/removeacct")
		}
		fmt.Fprint(w, whmReply(0, "Account does not exist", ""))
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

func TestTerminate_RefusedForOtherReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, whmReply(0, "Account has active child accounts", ""))
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Terminate(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "Account has active child accounts" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestCall_ServerErrorReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "panel down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	handler := newHandler(t, server)
	result, err := handler.Provision(context.Background(), domain.ProvisionRequest{ComponentID: "comp-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Message, "HTTP 503") {
		t.Errorf("Message = %q, want it to mention HTTP 503", result.Message)
	}
}

func TestCall_UnreachableHostReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	handler := cpanel.New(cpanel.Config{BaseURL: server.URL, Username: "root", Token: "t"}, nil)
	result, err := handler.Suspend(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message == "" {
		t.Error("expected a failure message")
	}
}
