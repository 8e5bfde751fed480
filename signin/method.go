package signin

// Method is the authentication method chosen for one user in one
// configuration. Resolution is deterministic: the same inputs always map to
// the same method.
type Method string

const (
	// MethodPasskeyOnly attempts a passkey ceremony with no email fallback.
	MethodPasskeyOnly Method = "passkey-only"
	// MethodPasskeyWithFallback attempts a passkey ceremony and falls back
	// to an email method when it fails.
	MethodPasskeyWithFallback Method = "passkey-with-fallback"
	// MethodEmailCode sends a one-time code to the user's email.
	MethodEmailCode Method = "email-code"
	// MethodEmailOnly sends a magic link; sign-in completes out of band.
	MethodEmailOnly Method = "email-only"
	// MethodNone means no method applies to this user under this
	// configuration, for example a passkeys-only deployment serving a user
	// without a registered passkey.
	MethodNone Method = "none"
)

// MethodOptions are the inputs to method resolution.
type MethodOptions struct {
	// HasPasskeys reports whether the user has at least one registered
	// passkey, per the backend lookup.
	HasPasskeys bool

	PasskeysEnabled   bool
	CodeAuthEnabled   bool
	MagicLinksEnabled bool
}

// ResolveMethod picks the authentication method for a user. Rules are
// ordered and first match wins: passkeys beat email methods when the user
// has one, one-time codes beat magic links as fallback and as primary.
func ResolveMethod(opts MethodOptions) Method {
	if opts.PasskeysEnabled && opts.HasPasskeys {
		if opts.CodeAuthEnabled || opts.MagicLinksEnabled {
			return MethodPasskeyWithFallback
		}
		return MethodPasskeyOnly
	}
	if opts.CodeAuthEnabled {
		return MethodEmailCode
	}
	if opts.MagicLinksEnabled {
		return MethodEmailOnly
	}
	return MethodNone
}

// methodOptions builds MethodOptions for a user lookup result under this
// configuration.
func (c Config) methodOptions(hasPasskeys bool) MethodOptions {
	return MethodOptions{
		HasPasskeys:       hasPasskeys,
		PasskeysEnabled:   c.PasskeysEnabled,
		CodeAuthEnabled:   c.CodeAuthEnabled,
		MagicLinksEnabled: c.MagicLinksEnabled,
	}
}
