// Package ceremony defines the credential-ceremony collaborator contract.
//
// The sign-in core never talks to an authenticator directly; the embedding
// application supplies an Authenticator that bridges to the platform
// credential API (in a browser, navigator.credentials). Failures are reported
// through the enumerable sentinel errors below so the core can map them onto
// its error taxonomy without knowing transport details.
package ceremony

import (
	"context"
	"errors"

	"github.com/go-webauthn/webauthn/protocol"
)

// Mediation selects how a credential request is surfaced to the user.
type Mediation string

const (
	// MediationDefault is the explicit, modal credential prompt.
	MediationDefault Mediation = "default"
	// MediationConditional is the non-blocking autofill-style prompt used for
	// silent passkey sign-in while the user types.
	MediationConditional Mediation = "conditional"
)

// Sentinel errors mirroring the enumerable WebAuthn failure kinds.
var (
	// ErrNotAllowed is the user declining or dismissing the prompt.
	ErrNotAllowed = errors.New("ceremony: not allowed")
	// ErrInvalidState means no matching credential exists on the device.
	ErrInvalidState = errors.New("ceremony: invalid state")
	// ErrSecurity means the origin or relying party checks failed.
	ErrSecurity = errors.New("ceremony: security error")
	// ErrTimeout means the ceremony exceeded its deadline.
	ErrTimeout = errors.New("ceremony: timed out")
	// ErrAborted means a newer request superseded this one.
	ErrAborted = errors.New("ceremony: aborted")
	// ErrNotSupported means the platform has no WebAuthn implementation.
	ErrNotSupported = errors.New("ceremony: not supported")
)

// Credential is the raw authenticator response, opaque to the core and
// forwarded verbatim to the backend verify endpoints.
type Credential struct {
	// Response is the JSON-encoded PublicKeyCredential produced by the
	// authenticator.
	Response []byte
}

// Authenticator performs credential ceremonies against the platform
// authenticator.
type Authenticator interface {
	// Create runs a registration ceremony for the given creation options.
	Create(ctx context.Context, options *protocol.CredentialCreation) (Credential, error)
	// Get runs an authentication ceremony for the given request options.
	// MediationConditional must not block the caller's UI; it resolves only
	// when the user picks a credential or the request is superseded.
	Get(ctx context.Context, options *protocol.CredentialAssertion, mediation Mediation) (Credential, error)
}
