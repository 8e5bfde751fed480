package authapi

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

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/passflow/passflow/internal/platform/config"
	apperrors "github.com/passflow/passflow/internal/platform/errors"
)

// HTTPConfig controls the backend endpoint and request timeouts.
type HTTPConfig struct {
	BaseURL string        `env:"PASSFLOW_API_BASE_URL" envDefault:"http://localhost:3000/api/auth"`
	Timeout time.Duration `env:"PASSFLOW_API_TIMEOUT"  envDefault:"10s"`
}

// LoadHTTPConfigFromEnv loads the backend client configuration,
// falling back to local defaults when unset.
func LoadHTTPConfigFromEnv() HTTPConfig {
	var cfg HTTPConfig
	_ = config.ParseEnv(&cfg)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3000/api/auth"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}

// HTTPClient implements Client over JSON POST requests.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient builds a backend client for the given configuration.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, apperrors.New(apperrors.CodeClientMissing, "api base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeClientMissing, "api base url is invalid", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// serverError is the backend's error envelope.
type serverError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// post sends a JSON body and decodes a JSON response into out (when out is
// non-nil). Transport failures map to network errors; non-2xx responses map
// to server errors carrying the backend's code when it is recognizable.
func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeNetwork, fmt.Sprintf("post %s", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeServerError(path, resp.StatusCode, resp.Body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.CodeServer, fmt.Sprintf("decode %s response", path), err)
	}
	return nil
}

// knownServerCodes are backend codes passed through to the error taxonomy
// rather than collapsed into a generic server error.
var knownServerCodes = map[string]apperrors.Code{
	string(apperrors.CodeUserNotFound): apperrors.CodeUserNotFound,
	string(apperrors.CodePinRejected):  apperrors.CodePinRejected,
	string(apperrors.CodePinExpired):   apperrors.CodePinExpired,
	string(apperrors.CodeEmailTaken):   apperrors.CodeEmailTaken,
}

func decodeServerError(path string, status int, body io.Reader) error {
	var envelope serverError
	_ = json.NewDecoder(io.LimitReader(body, 4096)).Decode(&envelope)
	code := apperrors.CodeServer
	if mapped, ok := knownServerCodes[envelope.Code]; ok {
		code = mapped
	}
	message := envelope.Message
	if message == "" {
		message = fmt.Sprintf("%s returned status %d", path, status)
	}
	return apperrors.New(code, message)
}

// CheckUser implements Client.
func (c *HTTPClient) CheckUser(ctx context.Context, email string) (CheckUserResult, error) {
	var result CheckUserResult
	err := c.post(ctx, "/check-user", map[string]string{"email": email}, &result)
	return result, err
}

// Register implements Client.
func (c *HTTPClient) Register(ctx context.Context, data RegistrationData) (AuthResult, error) {
	var result AuthResult
	err := c.post(ctx, "/register", data, &result)
	return result, err
}

// PasskeyChallenge implements Client.
func (c *HTTPClient) PasskeyChallenge(ctx context.Context, email string) (*protocol.CredentialAssertion, error) {
	var assertion protocol.CredentialAssertion
	if err := c.post(ctx, "/webauthn/challenge", map[string]string{"email": email}, &assertion); err != nil {
		return nil, err
	}
	return &assertion, nil
}

// PasskeyVerify implements Client.
func (c *HTTPClient) PasskeyVerify(ctx context.Context, credentialResponse json.RawMessage) (AuthResult, error) {
	var result AuthResult
	err := c.post(ctx, "/webauthn/verify", map[string]json.RawMessage{"credential": credentialResponse}, &result)
	return result, err
}

// PasskeyRegisterOptions implements Client.
func (c *HTTPClient) PasskeyRegisterOptions(ctx context.Context, userID string) (*protocol.CredentialCreation, error) {
	var creation protocol.CredentialCreation
	if err := c.post(ctx, "/webauthn/register-options", map[string]string{"userId": userID}, &creation); err != nil {
		return nil, err
	}
	return &creation, nil
}

// PasskeyRegisterVerify implements Client.
func (c *HTTPClient) PasskeyRegisterVerify(ctx context.Context, credentialResponse json.RawMessage) (RegisterVerifyResult, error) {
	var result RegisterVerifyResult
	err := c.post(ctx, "/webauthn/register-verify", map[string]json.RawMessage{"credential": credentialResponse}, &result)
	return result, err
}

// SendCode implements Client.
func (c *HTTPClient) SendCode(ctx context.Context, email string) error {
	return c.post(ctx, "/send-code", map[string]string{"email": email}, nil)
}

// VerifyCode implements Client.
func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string) (AuthResult, error) {
	var result AuthResult
	err := c.post(ctx, "/verify-code", map[string]string{"email": email, "code": code}, &result)
	return result, err
}

// SendMagicLink implements Client.
func (c *HTTPClient) SendMagicLink(ctx context.Context, email string) error {
	return c.post(ctx, "/send-magic-link", map[string]string{"email": email}, nil)
}

var _ Client = (*HTTPClient)(nil)
