package signin

import (
	"fmt"
	"time"

	"github.com/passflow/passflow/internal/platform/config"
	apperrors "github.com/passflow/passflow/internal/platform/errors"
)

// Mode controls whether unknown emails may create an account.
type Mode string

const (
	// ModeLoginOrRegister offers registration to unknown emails.
	ModeLoginOrRegister Mode = "login-or-register"
	// ModeLoginOnly rejects unknown emails.
	ModeLoginOnly Mode = "login-only"
)

// Config holds the sign-in feature toggles and timing knobs.
type Config struct {
	SignInMode Mode `env:"PASSFLOW_SIGN_IN_MODE" envDefault:"login-or-register"`

	PasskeysEnabled   bool `env:"PASSFLOW_PASSKEYS_ENABLED" envDefault:"true"`
	CodeAuthEnabled   bool `env:"PASSFLOW_CODE_AUTH_ENABLED" envDefault:"true"`
	MagicLinksEnabled bool `env:"PASSFLOW_MAGIC_LINKS_ENABLED" envDefault:"false"`

	// ConditionalDebounce is how long typing must be quiet before a silent
	// conditional passkey attempt starts.
	ConditionalDebounce time.Duration `env:"PASSFLOW_CONDITIONAL_DEBOUNCE" envDefault:"400ms"`
	// CeremonyTimeout bounds a single credential ceremony.
	CeremonyTimeout time.Duration `env:"PASSFLOW_CEREMONY_TIMEOUT" envDefault:"60s"`
	// PinTTL is the client-side validity window for an emailed code.
	PinTTL time.Duration `env:"PASSFLOW_PIN_TTL" envDefault:"10m"`
}

// LoadConfigFromEnv reads Config from PASSFLOW_-prefixed variables.
func LoadConfigFromEnv() (Config, error) {
	var c Config
	if err := config.ParseEnv(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects configurations that can never sign anyone in. A
// passkeys-only configuration is valid even though users without passkeys
// resolve to MethodNone at lookup time.
func (c Config) Validate() error {
	switch c.SignInMode {
	case ModeLoginOrRegister, ModeLoginOnly:
	default:
		return apperrors.New(apperrors.CodeInvalidSignInMode,
			fmt.Sprintf("unknown sign-in mode %q", c.SignInMode))
	}
	if !c.PasskeysEnabled && !c.CodeAuthEnabled && !c.MagicLinksEnabled {
		return apperrors.New(apperrors.CodeNoAuthMethod,
			"no authentication method enabled")
	}
	return nil
}
