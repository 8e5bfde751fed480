// Package authapi is the thin request/response mapper to the backend
// authentication endpoints.
//
// The sign-in core depends on the Client contract only; HTTPClient is the
// production implementation speaking JSON over POST. Backend failures are
// translated into the structured error taxonomy so callers never see
// transport details.
package authapi

import (
	"context"
	"encoding/json"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/passflow/passflow/user"
)

// CheckUserResult reports what the backend knows about an email address.
type CheckUserResult struct {
	Exists        bool `json:"exists"`
	HasWebAuthn   bool `json:"hasWebauthn"`
	EmailVerified bool `json:"emailVerified"`
}

// RegistrationData is the input for creating a new account.
type RegistrationData struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	AcceptedTerms  bool   `json:"acceptedTerms"`
	InvitationCode string `json:"invitationCode,omitempty"`
}

// AuthResult is the backend's answer to any successful authentication or
// registration: the identity plus the token pair backing a session.
type AuthResult struct {
	User                       user.User `json:"user"`
	AccessToken                string    `json:"accessToken"`
	RefreshToken               string    `json:"refreshToken"`
	EmailVerifiedViaInvitation bool      `json:"emailVerifiedViaInvitation,omitempty"`
}

// RegisterVerifyResult reports the outcome of a passkey registration
// ceremony verification.
type RegisterVerifyResult struct {
	Success      bool   `json:"success"`
	CredentialID string `json:"credentialId"`
}

// Client is the backend authentication contract the sign-in core depends on.
type Client interface {
	// CheckUser reports whether an account exists for the email and whether
	// it has passkeys registered.
	CheckUser(ctx context.Context, email string) (CheckUserResult, error)
	// Register creates a new account.
	Register(ctx context.Context, data RegistrationData) (AuthResult, error)
	// PasskeyChallenge fetches assertion options for a sign-in ceremony.
	// An empty email requests a discoverable (usernameless) challenge.
	PasskeyChallenge(ctx context.Context, email string) (*protocol.CredentialAssertion, error)
	// PasskeyVerify validates an assertion response and signs the user in.
	PasskeyVerify(ctx context.Context, credentialResponse json.RawMessage) (AuthResult, error)
	// PasskeyRegisterOptions fetches creation options for enrolling a new
	// passkey on an existing account.
	PasskeyRegisterOptions(ctx context.Context, userID string) (*protocol.CredentialCreation, error)
	// PasskeyRegisterVerify validates a registration ceremony response.
	PasskeyRegisterVerify(ctx context.Context, credentialResponse json.RawMessage) (RegisterVerifyResult, error)
	// SendCode emails a one-time sign-in code.
	SendCode(ctx context.Context, email string) error
	// VerifyCode exchanges a one-time code for a signed-in session.
	VerifyCode(ctx context.Context, email, code string) (AuthResult, error)
	// SendMagicLink emails a one-time sign-in link. Fire and forget: the
	// link completes out of band.
	SendMagicLink(ctx context.Context, email string) error
}
