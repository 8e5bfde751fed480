package signin

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/passflow/passflow/internal/platform/errors"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.SignInMode != ModeLoginOrRegister {
		t.Errorf("SignInMode = %s, want %s", cfg.SignInMode, ModeLoginOrRegister)
	}
	if !cfg.PasskeysEnabled || !cfg.CodeAuthEnabled || cfg.MagicLinksEnabled {
		t.Errorf("method toggles = %v/%v/%v, want true/true/false",
			cfg.PasskeysEnabled, cfg.CodeAuthEnabled, cfg.MagicLinksEnabled)
	}
	if cfg.ConditionalDebounce != 400*time.Millisecond {
		t.Errorf("ConditionalDebounce = %s, want 400ms", cfg.ConditionalDebounce)
	}
	if cfg.CeremonyTimeout != time.Minute {
		t.Errorf("CeremonyTimeout = %s, want 1m", cfg.CeremonyTimeout)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("PASSFLOW_SIGN_IN_MODE", "login-only")
	t.Setenv("PASSFLOW_MAGIC_LINKS_ENABLED", "true")
	t.Setenv("PASSFLOW_CONDITIONAL_DEBOUNCE", "150ms")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.SignInMode != ModeLoginOnly {
		t.Errorf("SignInMode = %s, want %s", cfg.SignInMode, ModeLoginOnly)
	}
	if !cfg.MagicLinksEnabled {
		t.Error("MagicLinksEnabled not read from env")
	}
	if cfg.ConditionalDebounce != 150*time.Millisecond {
		t.Errorf("ConditionalDebounce = %s, want 150ms", cfg.ConditionalDebounce)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("all methods disabled", func(t *testing.T) {
		err := Config{SignInMode: ModeLoginOrRegister}.Validate()
		if !errors.Is(err, apperrors.New(apperrors.CodeNoAuthMethod, "")) {
			t.Fatalf("err = %v, want %s", err, apperrors.CodeNoAuthMethod)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		err := Config{SignInMode: "open-bar", CodeAuthEnabled: true}.Validate()
		if apperrors.GetCode(err) != apperrors.CodeInvalidSignInMode {
			t.Fatalf("err = %v, want %s", err, apperrors.CodeInvalidSignInMode)
		}
	})

	t.Run("passkeys only is valid", func(t *testing.T) {
		err := Config{SignInMode: ModeLoginOnly, PasskeysEnabled: true}.Validate()
		if err != nil {
			t.Fatalf("passkeys-only config rejected: %v", err)
		}
	})
}
