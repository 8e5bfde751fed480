package signin

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/attribute"

	"github.com/passflow/passflow/authapi"
	"github.com/passflow/passflow/ceremony"
	apperrors "github.com/passflow/passflow/internal/platform/errors"
	"github.com/passflow/passflow/session"
	"github.com/passflow/passflow/telemetry"
	"github.com/passflow/passflow/user"
)

// SetEmail records a keystroke-level change to the email field and arms the
// debounced conditional passkey trigger for valid addresses.
func (s *Store) SetEmail(value string) State {
	st := s.Send(EmailTyped{Value: value})
	s.conditional.noteEmail(value)
	return st
}

// CheckUser looks up the email with the backend and records the result in
// context. The typed email is normalized before the lookup.
func (s *Store) CheckUser(ctx context.Context, email string) (authapi.CheckUserResult, error) {
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return authapi.CheckUserResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "signin.check_user")
	defer span.End()

	seq := s.beginAttempt()
	defer s.setBusy(false)

	res, err := s.client.CheckUser(ctx, normalized)
	if err != nil {
		s.reportError(err)
		return authapi.CheckUserResult{}, err
	}
	s.apply(seq,
		EmailTyped{Value: normalized},
		UserChecked{Exists: res.Exists, HasPasskey: res.HasWebAuthn, EmailVerified: res.EmailVerified},
	)
	return res, nil
}

// SignInWithPasskey runs an explicit, modal passkey ceremony for the email.
// When the resolved method is passkey-with-fallback and the ceremony fails,
// the store falls back to an email method instead of surfacing the failure.
func (s *Store) SignInWithPasskey(ctx context.Context, email string) error {
	if !s.cfg.PasskeysEnabled {
		return apperrors.New(apperrors.CodeCeremonyUnsupported, "passkeys are disabled")
	}
	if !s.detector.WebAuthnSupported() {
		return apperrors.New(apperrors.CodeCeremonyUnsupported, "platform has no WebAuthn support")
	}
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "signin.passkey")
	defer span.End()

	seq := s.beginAttempt()
	defer s.setBusy(false)

	snap := s.Snapshot()
	method := ResolveMethod(s.cfg.methodOptions(snap.Context.HasPasskey))
	s.setMethod(seq, method)
	s.emitter.Emit(ctx, telemetry.KindAttempt, string(method), "")
	s.apply(seq, PasskeyAvailable{})

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CeremonyTimeout)
	defer cancel()

	start := s.clock()
	sess, cerr := s.passkeyCeremony(cctx, normalized, ceremony.MediationDefault)
	if cerr != nil {
		elapsed := s.clock().Sub(start)
		if method == MethodPasskeyWithFallback {
			span.SetAttributes(attribute.String("signin.fallback_from", string(apperrors.GetCode(cerr))))
			s.emitter.Emit(ctx, telemetry.KindFallback, string(method), string(apperrors.GetCode(cerr)))
			return s.fallbackToEmail(ctx, seq, normalized)
		}
		s.apply(seq, WebAuthnError{Err: cerr, Elapsed: elapsed})
		s.emitter.Emit(ctx, telemetry.KindFailure, string(method), string(apperrors.GetCode(cerr)))
		s.reportError(cerr)
		return cerr
	}

	if s.apply(seq, WebAuthnSuccess{Session: sess}) {
		s.persist(ctx, sess)
		s.emitter.Emit(ctx, telemetry.KindSuccess, string(method), "")
	}
	return nil
}

// passkeyCeremony fetches a challenge, runs the authenticator ceremony and
// verifies the response, returning the minted session.
func (s *Store) passkeyCeremony(ctx context.Context, email string, mediation ceremony.Mediation) (session.Session, error) {
	assertion, err := s.client.PasskeyChallenge(ctx, email)
	if err != nil {
		return session.Session{}, err
	}
	cred, err := s.authenticator.Get(ctx, assertion, mediation)
	if err != nil {
		return session.Session{}, mapCeremonyError(err)
	}
	result, err := s.client.PasskeyVerify(ctx, cred.Response)
	if err != nil {
		return session.Session{}, err
	}
	return session.New(result.AccessToken, result.RefreshToken, result.User, s.clock()), nil
}

// fallbackToEmail continues a failed passkey attempt with the best enabled
// email method.
func (s *Store) fallbackToEmail(ctx context.Context, seq uint64, email string) error {
	switch {
	case s.cfg.CodeAuthEnabled:
		s.setMethod(seq, MethodEmailCode)
		if err := s.client.SendCode(ctx, email); err != nil {
			s.reportError(err)
			return err
		}
		s.apply(seq, SentPinEmail{ExpiresAt: s.clock().Add(s.cfg.PinTTL)})
		return nil
	case s.cfg.MagicLinksEnabled:
		s.setMethod(seq, MethodEmailOnly)
		if err := s.client.SendMagicLink(ctx, email); err != nil {
			s.reportError(err)
			return err
		}
		s.apply(seq, EmailVerificationRequired{})
		return nil
	}
	return apperrors.New(apperrors.CodeNoAuthMethod, "no fallback method enabled")
}

// SendEmailCode emails a one-time sign-in code.
func (s *Store) SendEmailCode(ctx context.Context, email string) error {
	if !s.cfg.CodeAuthEnabled {
		return apperrors.New(apperrors.CodeNoAuthMethod, "one-time codes are disabled")
	}
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "signin.send_code")
	defer span.End()

	seq := s.beginAttempt()
	defer s.setBusy(false)

	s.setMethod(seq, MethodEmailCode)
	s.emitter.Emit(ctx, telemetry.KindAttempt, string(MethodEmailCode), "")
	if err := s.client.SendCode(ctx, normalized); err != nil {
		s.reportError(err)
		return err
	}
	s.apply(seq, SentPinEmail{ExpiresAt: s.clock().Add(s.cfg.PinTTL)})
	return nil
}

// VerifyEmailCode exchanges an emailed code for a session. Rejected codes
// leave the machine in StatePinEntry for another try.
func (s *Store) VerifyEmailCode(ctx context.Context, code string) error {
	if err := validateCode(code); err != nil {
		return err
	}
	snap := s.Snapshot()
	if !snap.Context.Pin.Valid {
		return apperrors.New(apperrors.CodePinExpired, "no active code for this flow")
	}
	if snap.Context.Pin.Expired(s.clock()) {
		return apperrors.New(apperrors.CodePinExpired, "code expired")
	}
	email := snap.Context.Email

	ctx, span := s.tracer.Start(ctx, "signin.verify_code")
	defer span.End()

	seq := s.beginAttempt()
	defer s.setBusy(false)

	result, err := s.client.VerifyCode(ctx, email, code)
	if err != nil {
		s.emitter.Emit(ctx, telemetry.KindFailure, string(MethodEmailCode), string(apperrors.GetCode(err)))
		s.reportError(err)
		return err
	}
	sess := session.New(result.AccessToken, result.RefreshToken, result.User, s.clock())
	if s.apply(seq, PinVerified{Session: sess}) {
		s.persist(ctx, sess)
		s.emitter.Emit(ctx, telemetry.KindSuccess, string(MethodEmailCode), "")
	}
	return nil
}

// SignInWithMagicLink emails a sign-in link. Fire and forget: the flow moves
// to StateEmailVerification and completion happens out of band.
func (s *Store) SignInWithMagicLink(ctx context.Context, email string) error {
	if !s.cfg.MagicLinksEnabled {
		return apperrors.New(apperrors.CodeNoAuthMethod, "magic links are disabled")
	}
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "signin.magic_link")
	defer span.End()

	seq := s.beginAttempt()
	defer s.setBusy(false)

	s.setMethod(seq, MethodEmailOnly)
	s.emitter.Emit(ctx, telemetry.KindAttempt, string(MethodEmailOnly), "")
	if err := s.client.SendMagicLink(ctx, normalized); err != nil {
		s.reportError(err)
		return err
	}
	s.apply(seq, EmailVerificationRequired{})
	return nil
}

// CreateAccount registers a new account and, when passkeys are enabled and
// supported, enrolls one in the same flow. It either fully succeeds into
// StateSignedIn or fails with an error naming the step that broke.
func (s *Store) CreateAccount(ctx context.Context, data authapi.RegistrationData) error {
	if s.cfg.SignInMode == ModeLoginOnly {
		return apperrors.New(apperrors.CodeRegistrationClosed, "registration is closed")
	}
	normalized, err := user.NormalizeEmail(data.Email)
	if err != nil {
		return err
	}
	data.Email = normalized
	if strings.TrimSpace(data.Name) == "" {
		return apperrors.New(apperrors.CodeNameEmpty, "name is required")
	}
	if !data.AcceptedTerms {
		return apperrors.New(apperrors.CodeTermsDeclined, "terms must be accepted")
	}

	ctx, span := s.tracer.Start(ctx, "signin.create_account")
	defer span.End()

	seq := s.beginAttempt()
	defer s.setBusy(false)

	s.apply(seq, RegisterPasskey{})

	result, err := s.client.Register(ctx, data)
	if err != nil {
		s.reportError(err)
		return err
	}
	sess := session.New(result.AccessToken, result.RefreshToken, result.User, s.clock())

	method := MethodEmailCode
	if s.cfg.PasskeysEnabled && s.detector.WebAuthnSupported() {
		method = MethodPasskeyOnly
		if err := s.enrollPasskey(ctx, seq, result.User.ID); err != nil {
			return err
		}
	}
	s.setMethod(seq, method)

	if s.apply(seq, WebAuthnSuccess{Session: sess}) {
		s.persist(ctx, sess)
		s.emitter.Emit(ctx, telemetry.KindSuccess, string(method), "")
	}
	return nil
}

// enrollPasskey runs the three post-registration steps: fetch creation
// options, run the creation ceremony, verify the response. Failures report
// the broken step so the account can be repaired later.
func (s *Store) enrollPasskey(ctx context.Context, seq uint64, userID string) error {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CeremonyTimeout)
	defer cancel()

	options, err := s.client.PasskeyRegisterOptions(cctx, userID)
	if err != nil {
		return s.registrationStepFailed(ctx, seq, "options", err)
	}
	cred, err := s.authenticator.Create(cctx, options)
	if err != nil {
		return s.registrationStepFailed(ctx, seq, "ceremony", mapCeremonyError(err))
	}
	verify, err := s.client.PasskeyRegisterVerify(cctx, cred.Response)
	if err != nil {
		return s.registrationStepFailed(ctx, seq, "verification", err)
	}
	if !verify.Success {
		return s.registrationStepFailed(ctx, seq, "verification",
			apperrors.New(apperrors.CodeServer, "registration ceremony rejected"))
	}
	return nil
}

func (s *Store) registrationStepFailed(ctx context.Context, seq uint64, step string, cause error) error {
	err := apperrors.WithMetadata(apperrors.CodeAccountPartial,
		"account creation did not finish", map[string]string{"Step": step})
	err.Cause = cause
	s.apply(seq, WebAuthnError{Err: err})
	s.emitter.Emit(ctx, telemetry.KindFailure, string(MethodPasskeyOnly), string(apperrors.GetCode(cause)))
	s.reportError(err)
	return err
}

// SignOut clears the persisted session and resets the flow.
func (s *Store) SignOut(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "signin.sign_out")
	defer span.End()

	if err := s.sessions.Delete(ctx); err != nil {
		s.logger.Printf("signin: delete session: %v", err)
	}
	s.Send(Reset{})
	s.emitter.Emit(ctx, telemetry.KindSignOut, "", "")
	return nil
}

// Restore resumes a persisted session, moving straight to StateSignedIn.
// It reports false when no usable session exists; an expired session is
// deleted and surfaced as a typed error so callers can explain the re-auth.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	sess, err := s.sessions.Load(ctx)
	if errors.Is(err, session.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if sess.Expired(s.clock()) {
		if derr := s.sessions.Delete(ctx); derr != nil {
			s.logger.Printf("signin: delete expired session: %v", derr)
		}
		return false, apperrors.New(apperrors.CodeSessionExpired, "persisted session expired")
	}

	s.mu.Lock()
	s.attemptSeq++
	prev := s.machine.State()
	s.machine.restore(WebAuthnSuccess{Session: sess})
	snap := s.snapshotLocked()
	subs := s.subsLocked()
	s.mu.Unlock()
	s.notify(prev, snap, subs)
	return true, nil
}

// mapCeremonyError translates ceremony sentinels into the structured error
// taxonomy. Unknown ceremony failures become declined prompts so the flow
// always stays recoverable.
func mapCeremonyError(err error) error {
	switch {
	case errors.Is(err, ceremony.ErrNotAllowed):
		return apperrors.Wrap(apperrors.CodeCeremonyDeclined, "ceremony declined", err)
	case errors.Is(err, ceremony.ErrInvalidState):
		return apperrors.Wrap(apperrors.CodeCeremonyNoCredential, "no usable credential", err)
	case errors.Is(err, ceremony.ErrSecurity):
		return apperrors.Wrap(apperrors.CodeCeremonySecurity, "ceremony security failure", err)
	case errors.Is(err, ceremony.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.CodeCeremonyTimeout, "ceremony timed out", err)
	case errors.Is(err, ceremony.ErrAborted), errors.Is(err, context.Canceled):
		return apperrors.Wrap(apperrors.CodeCeremonyAborted, "ceremony superseded", err)
	case errors.Is(err, ceremony.ErrNotSupported):
		return apperrors.Wrap(apperrors.CodeCeremonyUnsupported, "ceremony not supported", err)
	}
	return apperrors.Wrap(apperrors.CodeCeremonyDeclined, "ceremony failed", err)
}

func validateCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.New(apperrors.CodePinEmpty, "code is required")
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return apperrors.New(apperrors.CodePinMalformed, "code must be digits only")
		}
	}
	return nil
}
