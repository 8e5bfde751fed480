package signin

// State identifies one step of the sign-in flow. The zero value is not
// valid; machines start in StateEmailEntry.
type State string

const (
	// StateEmailEntry is the initial state: the user is typing an email
	// address and nothing is known about the account yet.
	StateEmailEntry State = "email_entry"
	// StateUserChecked follows a backend lookup: existence, passkey
	// availability and email verification flags are now part of context.
	StateUserChecked State = "user_checked"
	// StatePasskeyPrompt means a modal passkey ceremony is being offered.
	StatePasskeyPrompt State = "passkey_prompt"
	// StatePinEntry means a one-time code was emailed and is awaited.
	StatePinEntry State = "pin_entry"
	// StateEmailVerification means completion continues out of band, via a
	// magic link or an email verification notice.
	StateEmailVerification State = "email_verification"
	// StateRegistrationTerms gathers consent before creating an account.
	StateRegistrationTerms State = "registration_terms"
	// StateSignedIn is terminal until reset or sign-out.
	StateSignedIn State = "signed_in"
	// StateGeneralError holds a non-recoverable flow error.
	StateGeneralError State = "general_error"
)

// States lists every state the machine can occupy, in flow order.
func States() []State {
	return []State{
		StateEmailEntry,
		StateUserChecked,
		StatePasskeyPrompt,
		StatePinEntry,
		StateEmailVerification,
		StateRegistrationTerms,
		StateSignedIn,
		StateGeneralError,
	}
}
