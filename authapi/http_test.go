package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/passflow/passflow/internal/platform/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new http client: %v", err)
	}
	return client
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{BaseURL: "  "})
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.CodeClientMissing {
		t.Fatalf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodeClientMissing)
	}
}

func TestCheckUser(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(CheckUserResult{Exists: true, HasWebAuthn: true, EmailVerified: true})
	}))

	result, err := client.CheckUser(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("check user: %v", err)
	}
	if gotPath != "/check-user" {
		t.Fatalf("path = %q, want /check-user", gotPath)
	}
	if gotBody["email"] != "user@example.com" {
		t.Fatalf("body email = %q", gotBody["email"])
	}
	if !result.Exists || !result.HasWebAuthn || !result.EmailVerified {
		t.Fatalf("result = %+v", result)
	}
}

func TestVerifyCodeSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify-code" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         map[string]any{"id": "user-1", "email": "user@example.com", "emailVerified": true},
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
		})
	}))

	result, err := client.VerifyCode(context.Background(), "user@example.com", "123456")
	if err != nil {
		t.Fatalf("verify code: %v", err)
	}
	if result.User.ID != "user-1" || result.AccessToken != "access-1" {
		t.Fatalf("result = %+v", result)
	}
}

func TestServerErrorCodePassthrough(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "PIN_REJECTED", "message": "code mismatch"})
	}))

	_, err := client.VerifyCode(context.Background(), "user@example.com", "000000")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.CodePinRejected {
		t.Fatalf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodePinRejected)
	}
	if !apperrors.IsRetryable(err) {
		t.Fatal("expected pin rejection to be retryable")
	}
}

func TestServerErrorUnknownCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.SendCode(context.Background(), "user@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.CodeServer {
		t.Fatalf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodeServer)
	}
	if apperrors.GetKind(err) != apperrors.KindServer {
		t.Fatalf("kind = %q, want %q", apperrors.GetKind(err), apperrors.KindServer)
	}
}

func TestNetworkErrorMapsToNetworkKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: baseURL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new http client: %v", err)
	}
	checkErr := client.SendCode(context.Background(), "user@example.com")
	if checkErr == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetKind(checkErr) != apperrors.KindNetwork {
		t.Fatalf("kind = %q, want %q", apperrors.GetKind(checkErr), apperrors.KindNetwork)
	}
	if !apperrors.IsRetryable(checkErr) {
		t.Fatal("expected network error to be retryable")
	}
}

func TestPasskeyChallengeDecodesOptions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"publicKey":{"challenge":"dGVzdC1jaGFsbGVuZ2U","timeout":60000,"rpId":"example.com"}}`))
	}))

	assertion, err := client.PasskeyChallenge(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("passkey challenge: %v", err)
	}
	if assertion.Response.RelyingPartyID != "example.com" {
		t.Fatalf("rp id = %q", assertion.Response.RelyingPartyID)
	}
	if len(assertion.Response.Challenge) == 0 {
		t.Fatal("expected challenge bytes")
	}
}

func TestLoadHTTPConfigFromEnvDefaults(t *testing.T) {
	cfg := LoadHTTPConfigFromEnv()
	if cfg.BaseURL == "" {
		t.Fatal("expected default base url")
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v, want 10s", cfg.Timeout)
	}
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.SendMagicLink(ctx, "user@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.Canceled) && apperrors.GetKind(err) != apperrors.KindNetwork {
		t.Fatalf("unexpected error: %v", err)
	}
}
