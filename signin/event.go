package signin

import (
	"time"

	"github.com/passflow/passflow/session"
)

// EventType discriminates Event variants in the transition table.
type EventType string

const (
	EventEmailTyped                EventType = "EMAIL_TYPED"
	EventUserChecked               EventType = "USER_CHECKED"
	EventPasskeyAvailable          EventType = "PASSKEY_AVAILABLE"
	EventSentPinEmail              EventType = "SENT_PIN_EMAIL"
	EventPinVerified               EventType = "PIN_VERIFIED"
	EventEmailVerificationRequired EventType = "EMAIL_VERIFICATION_REQUIRED"
	EventRegisterPasskey           EventType = "REGISTER_PASSKEY"
	EventWebAuthnSuccess           EventType = "WEBAUTHN_SUCCESS"
	EventWebAuthnError             EventType = "WEBAUTHN_ERROR"
	EventError                     EventType = "ERROR"
	EventReset                     EventType = "RESET"
)

// Event is a sign-in flow occurrence delivered to Machine.Send. Variants
// carry their payloads as exported struct fields.
type Event interface {
	Type() EventType
}

// EmailTyped reports a keystroke-level change to the email field.
type EmailTyped struct {
	Value string
}

func (EmailTyped) Type() EventType { return EventEmailTyped }

// UserChecked carries the result of a backend account lookup.
type UserChecked struct {
	Exists        bool
	HasPasskey    bool
	EmailVerified bool
}

func (UserChecked) Type() EventType { return EventUserChecked }

// PasskeyAvailable requests a modal passkey ceremony for the checked user.
type PasskeyAvailable struct{}

func (PasskeyAvailable) Type() EventType { return EventPasskeyAvailable }

// SentPinEmail reports that a one-time code email was dispatched. A zero
// ExpiresAt means the code does not expire client-side.
type SentPinEmail struct {
	ExpiresAt time.Time
}

func (SentPinEmail) Type() EventType { return EventSentPinEmail }

// PinVerified carries the session minted after a code was accepted.
type PinVerified struct {
	Session session.Session
}

func (PinVerified) Type() EventType { return EventPinVerified }

// EmailVerificationRequired moves the flow out of band: a magic link or
// verification email was sent and completion happens elsewhere.
type EmailVerificationRequired struct{}

func (EmailVerificationRequired) Type() EventType { return EventEmailVerificationRequired }

// RegisterPasskey starts account creation for an unknown email.
type RegisterPasskey struct{}

func (RegisterPasskey) Type() EventType { return EventRegisterPasskey }

// WebAuthnSuccess carries the session minted after a verified credential
// ceremony, for both authentication and registration.
type WebAuthnSuccess struct {
	Session session.Session
}

func (WebAuthnSuccess) Type() EventType { return EventWebAuthnSuccess }

// WebAuthnError reports a failed credential ceremony. Elapsed records how
// long the ceremony ran before failing.
type WebAuthnError struct {
	Err     error
	Elapsed time.Duration
}

func (WebAuthnError) Type() EventType { return EventWebAuthnError }

// ErrorEvent reports a non-recoverable failure from any state.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) Type() EventType { return EventError }

// Reset returns the machine to its initial state and context.
type Reset struct{}

func (Reset) Type() EventType { return EventReset }
