// Package capability reports what the runtime can do for WebAuthn.
package capability

import (
	"context"

	"github.com/passflow/passflow/internal/platform/config"
)

// Detector queries the runtime for WebAuthn support. Implementations bridge
// to the platform (in a browser, PublicKeyCredential feature detection); the
// sign-in core only consumes the answers.
type Detector interface {
	// WebAuthnSupported reports whether the credentials API exists at all.
	WebAuthnSupported() bool
	// PlatformAuthenticatorAvailable reports whether a user-verifying
	// platform authenticator is present.
	PlatformAuthenticatorAvailable(ctx context.Context) (bool, error)
	// ConditionalMediationSupported reports whether silent autofill-style
	// credential requests are available.
	ConditionalMediationSupported(ctx context.Context) (bool, error)
}

// Static is a fixed-answer Detector for tests, servers, and environments
// where the capabilities are known ahead of time.
type Static struct {
	WebAuthn              bool `env:"PASSFLOW_CAPABILITY_WEBAUTHN"              envDefault:"true"`
	PlatformAuthenticator bool `env:"PASSFLOW_CAPABILITY_PLATFORM_AUTH"         envDefault:"true"`
	ConditionalMediation  bool `env:"PASSFLOW_CAPABILITY_CONDITIONAL_MEDIATION" envDefault:"true"`
}

// WebAuthnSupported implements Detector.
func (s Static) WebAuthnSupported() bool { return s.WebAuthn }

// PlatformAuthenticatorAvailable implements Detector.
func (s Static) PlatformAuthenticatorAvailable(context.Context) (bool, error) {
	return s.PlatformAuthenticator, nil
}

// ConditionalMediationSupported implements Detector.
func (s Static) ConditionalMediationSupported(context.Context) (bool, error) {
	return s.ConditionalMediation, nil
}

// LoadStaticFromEnv returns a Static detector configured from the
// environment, defaulting to full capability.
func LoadStaticFromEnv() Static {
	var s Static
	if err := config.ParseEnv(&s); err != nil {
		return Static{WebAuthn: true, PlatformAuthenticator: true, ConditionalMediation: true}
	}
	return s
}
