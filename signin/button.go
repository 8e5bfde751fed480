package signin

import (
	apperrors "github.com/passflow/passflow/internal/platform/errors"
	"github.com/passflow/passflow/user"
)

// ButtonRole describes one call-to-action button.
type ButtonRole struct {
	// Method is the authentication method the button triggers, when one
	// applies.
	Method Method `json:"method,omitempty"`
	// TextKey is a stable label key for the presentation layer.
	TextKey string `json:"textKey"`
	// Disabled blocks interaction, for invalid input or in-flight work.
	Disabled bool `json:"disabled"`
}

// ButtonConfig is the derived call-to-action layout for one snapshot. It is
// a pure function of state, context, configuration and the live input value;
// deriving it never mutates the flow.
type ButtonConfig struct {
	Primary   ButtonRole  `json:"primary"`
	Secondary *ButtonRole `json:"secondary,omitempty"`
}

// MessageLevel classifies a status message for presentation.
type MessageLevel string

const (
	MessageInfo    MessageLevel = "info"
	MessageWarning MessageLevel = "warning"
	MessageError   MessageLevel = "error"
)

// MessageConfig is the derived status message for one snapshot. A zero
// value means no message.
type MessageConfig struct {
	TextKey   string       `json:"textKey,omitempty"`
	Text      string       `json:"text,omitempty"`
	Level     MessageLevel `json:"level,omitempty"`
	Retryable bool         `json:"retryable,omitempty"`
}

// buttonConfig derives the call-to-action layout. liveEmail overrides the
// context email when non-empty, so a form can re-derive per keystroke
// without dispatching events.
func buttonConfig(state State, ctx Context, cfg Config, busy bool, liveEmail string) ButtonConfig {
	email := ctx.Email
	if liveEmail != "" {
		email = liveEmail
	}
	valid := user.ValidEmail(email)

	switch state {
	case StateEmailEntry:
		return ButtonConfig{Primary: ButtonRole{
			TextKey:  "button.continue",
			Disabled: busy || !valid,
		}}

	case StateUserChecked:
		if !ctx.UserExists {
			if cfg.SignInMode == ModeLoginOrRegister {
				return ButtonConfig{Primary: ButtonRole{
					TextKey:  "button.create_account",
					Disabled: busy,
				}}
			}
			return ButtonConfig{Primary: ButtonRole{
				TextKey:  "button.continue",
				Disabled: true,
			}}
		}
		method := ResolveMethod(cfg.methodOptions(ctx.HasPasskey))
		return methodButtons(method, cfg, busy)

	case StatePasskeyPrompt:
		out := ButtonConfig{Primary: ButtonRole{
			Method:   MethodPasskeyOnly,
			TextKey:  "button.retry_passkey",
			Disabled: busy,
		}}
		if fb, ok := fallbackRole(cfg, busy); ok {
			out.Secondary = &fb
		}
		return out

	case StatePinEntry:
		return ButtonConfig{Primary: ButtonRole{
			Method:   MethodEmailCode,
			TextKey:  "button.verify_code",
			Disabled: busy,
		}}

	case StateEmailVerification:
		return ButtonConfig{Primary: ButtonRole{
			TextKey:  "button.resend_email",
			Disabled: busy,
		}}

	case StateRegistrationTerms:
		return ButtonConfig{Primary: ButtonRole{
			TextKey:  "button.accept_and_continue",
			Disabled: busy,
		}}

	case StateSignedIn:
		return ButtonConfig{Primary: ButtonRole{
			TextKey:  "button.sign_out",
			Disabled: busy,
		}}

	case StateGeneralError:
		key := "button.start_over"
		if apperrors.IsRetryable(ctx.Err) {
			key = "button.try_again"
		}
		return ButtonConfig{Primary: ButtonRole{TextKey: key, Disabled: busy}}
	}

	return ButtonConfig{Primary: ButtonRole{TextKey: "button.continue", Disabled: true}}
}

// methodButtons maps a resolved method to its call-to-action layout.
func methodButtons(method Method, cfg Config, busy bool) ButtonConfig {
	switch method {
	case MethodPasskeyOnly:
		return ButtonConfig{Primary: ButtonRole{
			Method:   method,
			TextKey:  "button.sign_in_with_passkey",
			Disabled: busy,
		}}
	case MethodPasskeyWithFallback:
		out := ButtonConfig{Primary: ButtonRole{
			Method:   method,
			TextKey:  "button.sign_in_with_passkey",
			Disabled: busy,
		}}
		if fb, ok := fallbackRole(cfg, busy); ok {
			out.Secondary = &fb
		}
		return out
	case MethodEmailCode:
		return ButtonConfig{Primary: ButtonRole{
			Method:   method,
			TextKey:  "button.send_code",
			Disabled: busy,
		}}
	case MethodEmailOnly:
		return ButtonConfig{Primary: ButtonRole{
			Method:   method,
			TextKey:  "button.send_magic_link",
			Disabled: busy,
		}}
	}
	return ButtonConfig{Primary: ButtonRole{
		TextKey:  "button.unavailable",
		Disabled: true,
	}}
}

// fallbackRole returns the secondary email-method button, preferring codes
// over magic links to match method resolution.
func fallbackRole(cfg Config, busy bool) (ButtonRole, bool) {
	switch {
	case cfg.CodeAuthEnabled:
		return ButtonRole{Method: MethodEmailCode, TextKey: "button.use_email_code", Disabled: busy}, true
	case cfg.MagicLinksEnabled:
		return ButtonRole{Method: MethodEmailOnly, TextKey: "button.send_magic_link", Disabled: busy}, true
	}
	return ButtonRole{}, false
}

// messageConfig derives the status message for a snapshot.
func messageConfig(state State, ctx Context) MessageConfig {
	switch state {
	case StateGeneralError:
		return MessageConfig{
			TextKey:   "message.error",
			Text:      apperrors.UserMessage(ctx.Err),
			Level:     MessageError,
			Retryable: apperrors.IsRetryable(ctx.Err),
		}
	case StateUserChecked:
		if ctx.Err != nil {
			return MessageConfig{
				TextKey:   "message.passkey_failed",
				Text:      apperrors.UserMessage(ctx.Err),
				Level:     MessageWarning,
				Retryable: apperrors.IsRetryable(ctx.Err),
			}
		}
	case StatePinEntry:
		return MessageConfig{TextKey: "message.code_sent", Level: MessageInfo}
	case StateEmailVerification:
		if ctx.Method == MethodEmailOnly {
			return MessageConfig{TextKey: "message.magic_link_sent", Level: MessageInfo}
		}
		return MessageConfig{TextKey: "message.verify_email", Level: MessageInfo}
	case StateRegistrationTerms:
		if ctx.Err != nil {
			return MessageConfig{
				TextKey:   "message.registration_failed",
				Text:      apperrors.UserMessage(ctx.Err),
				Level:     MessageWarning,
				Retryable: apperrors.IsRetryable(ctx.Err),
			}
		}
	case StateSignedIn:
		return MessageConfig{TextKey: "message.signed_in", Level: MessageInfo}
	}
	return MessageConfig{}
}
