// Package errors provides structured error handling for the sign-in core.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input validation errors. These stay local to the UI and are never
	// dispatched to the state machine.
	CodeEmailEmpty    Code = "EMAIL_EMPTY"
	CodeEmailInvalid  Code = "EMAIL_INVALID"
	CodePinEmpty      Code = "PIN_EMPTY"
	CodePinMalformed  Code = "PIN_MALFORMED"
	CodeNameEmpty     Code = "NAME_EMPTY"
	CodeTermsDeclined Code = "TERMS_DECLINED"

	// Configuration errors.
	CodeNoAuthMethod       Code = "CONFIG_NO_AUTH_METHOD"
	CodeClientMissing      Code = "CONFIG_CLIENT_MISSING"
	CodeCeremonyMissing    Code = "CONFIG_CEREMONY_MISSING"
	CodeInvalidSignInMode  Code = "CONFIG_INVALID_SIGN_IN_MODE"
	CodeRegistrationClosed Code = "REGISTRATION_CLOSED"

	// WebAuthn ceremony errors.
	CodeCeremonyDeclined     Code = "CEREMONY_DECLINED"
	CodeCeremonyNoCredential Code = "CEREMONY_NO_CREDENTIAL"
	CodeCeremonySecurity     Code = "CEREMONY_SECURITY"
	CodeCeremonyTimeout      Code = "CEREMONY_TIMEOUT"
	CodeCeremonyAborted      Code = "CEREMONY_ABORTED"
	CodeCeremonyUnsupported  Code = "CEREMONY_UNSUPPORTED"

	// Backend errors.
	CodeNetwork        Code = "NETWORK"
	CodeServer         Code = "SERVER"
	CodeUserNotFound   Code = "USER_NOT_FOUND"
	CodePinRejected    Code = "PIN_REJECTED"
	CodePinExpired     Code = "PIN_EXPIRED"
	CodeEmailTaken     Code = "EMAIL_TAKEN"
	CodeAccountPartial Code = "ACCOUNT_PARTIAL"

	// Session errors.
	CodeSessionExpired Code = "SESSION_EXPIRED"
	CodeSessionInvalid Code = "SESSION_INVALID"
)

// Kind classifies an error for propagation policy decisions.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindWebAuthn   Kind = "webauthn"
	KindServer     Kind = "server"
	KindCancelled  Kind = "cancelled"
	KindConfig     Kind = "config"
)

// kindByCode maps codes to their default kind.
var kindByCode = map[Code]Kind{
	CodeEmailEmpty:    KindValidation,
	CodeEmailInvalid:  KindValidation,
	CodePinEmpty:      KindValidation,
	CodePinMalformed:  KindValidation,
	CodeNameEmpty:     KindValidation,
	CodeTermsDeclined: KindValidation,

	CodeNoAuthMethod:       KindConfig,
	CodeClientMissing:      KindConfig,
	CodeCeremonyMissing:    KindConfig,
	CodeInvalidSignInMode:  KindConfig,
	CodeRegistrationClosed: KindConfig,

	CodeCeremonyDeclined:     KindWebAuthn,
	CodeCeremonyNoCredential: KindWebAuthn,
	CodeCeremonySecurity:     KindWebAuthn,
	CodeCeremonyTimeout:      KindWebAuthn,
	CodeCeremonyAborted:      KindCancelled,
	CodeCeremonyUnsupported:  KindWebAuthn,

	CodeNetwork:        KindNetwork,
	CodeServer:         KindServer,
	CodeUserNotFound:   KindServer,
	CodePinRejected:    KindServer,
	CodePinExpired:     KindServer,
	CodeEmailTaken:     KindServer,
	CodeAccountPartial: KindServer,

	CodeSessionExpired: KindServer,
	CodeSessionInvalid: KindServer,
}

// KindOf returns the kind for a code, defaulting to KindServer.
func KindOf(code Code) Kind {
	if kind, ok := kindByCode[code]; ok {
		return kind
	}
	return KindServer
}

// retryableByCode marks codes whose operations are worth re-attempting as-is.
var retryableByCode = map[Code]bool{
	CodeCeremonyDeclined: true,
	CodeCeremonyTimeout:  true,
	CodeCeremonyAborted:  true,
	CodeNetwork:          true,
	CodeServer:           true,
	CodePinRejected:      true,
}

// RetryableOf reports whether a code is retryable by default.
func RetryableOf(code Code) bool {
	return retryableByCode[code]
}
