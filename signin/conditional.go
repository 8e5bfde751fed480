package signin

import (
	"context"
	"sync"
	"time"

	"github.com/passflow/passflow/ceremony"
	apperrors "github.com/passflow/passflow/internal/platform/errors"
	"github.com/passflow/passflow/telemetry"
	"github.com/passflow/passflow/user"
)

// conditionalRunner debounces typing into at most one in-flight silent
// passkey attempt. Every failure path is swallowed: conditional sign-in is
// opportunistic and must never surface errors or block explicit actions.
type conditionalRunner struct {
	store    *Store
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

func newConditionalRunner(s *Store, debounce time.Duration) *conditionalRunner {
	return &conditionalRunner{store: s, debounce: debounce}
}

// noteEmail restarts the debounce window. Only a syntactically valid email
// arms the trigger; invalid input just cancels whatever was pending.
func (r *conditionalRunner) noteEmail(value string) {
	if r == nil || !r.store.cfg.PasskeysEnabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	email, err := user.NormalizeEmail(value)
	if err != nil {
		return
	}
	r.timer = time.AfterFunc(r.debounce, func() { r.fire(email) })
}

// cancel drops any pending trigger. Explicit flows call this at dispatch so
// a quiet debounce window never races a user action.
func (r *conditionalRunner) cancel() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// fire runs one attempt. A second trigger while one is in flight is dropped
// rather than queued.
func (r *conditionalRunner) fire(email string) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()
	r.store.runConditional(email)
}

// runConditional is the silent attempt body: look the email up, and when
// the account has a passkey and the platform can do conditional mediation,
// run a non-modal ceremony. Results apply only while this is still the
// latest attempt.
func (s *Store) runConditional(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CeremonyTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "signin.conditional")
	defer span.End()

	s.mu.Lock()
	state := s.machine.State()
	if s.busy || (state != StateEmailEntry && state != StateUserChecked) {
		s.mu.Unlock()
		return
	}
	s.attemptSeq++
	seq := s.attemptSeq
	s.mu.Unlock()

	s.emitter.Emit(ctx, telemetry.KindConditionalStart, string(MethodPasskeyOnly), "")

	res, err := s.client.CheckUser(ctx, email)
	if err != nil {
		s.logger.Printf("signin: conditional lookup: %v", err)
		return
	}
	// The lookup result is useful even when no ceremony follows: it
	// precomputes the method-selection inputs for the explicit path.
	s.apply(seq,
		EmailTyped{Value: email},
		UserChecked{Exists: res.Exists, HasPasskey: res.HasWebAuthn, EmailVerified: res.EmailVerified},
	)
	if !res.HasWebAuthn {
		return
	}
	if !s.conditionalCapable(ctx) {
		return
	}

	sess, err := s.passkeyCeremony(ctx, email, ceremony.MediationConditional)
	if err != nil {
		s.logger.Printf("signin: conditional ceremony: %v", err)
		s.emitter.Emit(ctx, telemetry.KindConditionalIgnored, string(MethodPasskeyOnly),
			string(apperrors.GetCode(err)))
		return
	}
	s.setMethod(seq, MethodPasskeyOnly)
	if !s.apply(seq, WebAuthnSuccess{Session: sess}) {
		s.emitter.Emit(ctx, telemetry.KindConditionalIgnored, string(MethodPasskeyOnly), "")
		return
	}
	s.persist(ctx, sess)
	s.emitter.Emit(ctx, telemetry.KindSuccess, string(MethodPasskeyOnly), "")
}

// conditionalCapable checks the three platform prerequisites for a silent
// ceremony. Detector errors count as incapable.
func (s *Store) conditionalCapable(ctx context.Context) bool {
	if s.authenticator == nil || !s.detector.WebAuthnSupported() {
		return false
	}
	ok, err := s.detector.PlatformAuthenticatorAvailable(ctx)
	if err != nil || !ok {
		return false
	}
	ok, err = s.detector.ConditionalMediationSupported(ctx)
	if err != nil || !ok {
		return false
	}
	return true
}
