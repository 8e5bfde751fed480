package errors

import (
	"bytes"
	"text/template"
)

// messages maps error codes to short, non-technical message templates.
// Templates may reference metadata keys set via WithMetadata.
var messages = map[Code]string{
	CodeUnknown: "Something went wrong. Please try again.",

	CodeEmailEmpty:    "Please enter your email address.",
	CodeEmailInvalid:  "That doesn't look like a valid email address.",
	CodePinEmpty:      "Please enter the code we emailed you.",
	CodePinMalformed:  "The code should contain only digits.",
	CodeNameEmpty:     "Please enter your name.",
	CodeTermsDeclined: "You need to accept the terms to create an account.",

	CodeNoAuthMethod:       "Sign-in is not available right now.",
	CodeClientMissing:      "Sign-in is not available right now.",
	CodeCeremonyMissing:    "Sign-in is not available right now.",
	CodeInvalidSignInMode:  "Sign-in is not available right now.",
	CodeRegistrationClosed: "We couldn't find an account for that email.",

	CodeCeremonyDeclined:     "Passkey sign-in was cancelled. You can try again or use your email.",
	CodeCeremonyNoCredential: "No passkey was found on this device. Try signing in with your email.",
	CodeCeremonySecurity:     "Passkeys aren't available on this page. Try signing in with your email.",
	CodeCeremonyTimeout:      "Passkey sign-in timed out. Please try again.",
	CodeCeremonyAborted:      "Passkey sign-in was cancelled.",
	CodeCeremonyUnsupported:  "This device doesn't support passkeys. Try signing in with your email.",

	CodeNetwork:        "We couldn't reach the server. Check your connection and try again.",
	CodeServer:         "Something went wrong on our side. Please try again.",
	CodeUserNotFound:   "We couldn't find an account for that email.",
	CodePinRejected:    "That code didn't match. Please try again.",
	CodePinExpired:     "That code has expired. We can send you a new one.",
	CodeEmailTaken:     "An account with that email already exists.",
	CodeAccountPartial: "Account setup didn't finish at the {{.Step}} step. Please try again.",

	CodeSessionExpired: "Your session has expired. Please sign in again.",
	CodeSessionInvalid: "Your session is no longer valid. Please sign in again.",
}

// UserMessage renders the friendly message for an error chain.
// Falls back to the generic unknown message when the code has no template and
// to the raw template text when metadata substitution fails.
func UserMessage(err error) string {
	domain, ok := As(err)
	if !ok {
		return messages[CodeUnknown]
	}
	tmpl, ok := messages[domain.Code]
	if !ok {
		return messages[CodeUnknown]
	}

	metadata := domain.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}
