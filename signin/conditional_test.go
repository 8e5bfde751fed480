package signin

import (
	"context"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/passflow/passflow/authapi"
	"github.com/passflow/passflow/ceremony"
	"github.com/passflow/passflow/telemetry"
)

func TestConditionalDebounceCollapsesTyping(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.ConditionalDebounce = 30 * time.Millisecond
	fix := newStoreFixture(t, cfg, nil)
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: false}

	// Each keystroke restarts the window; only the final value should
	// trigger a lookup.
	fix.store.SetEmail("kim@example.c")
	fix.store.SetEmail("kim@example.co")
	fix.store.SetEmail("kim@example.com")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(fix.client.checks()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Allow a late stray timer to fire before counting.
	time.Sleep(100 * time.Millisecond)

	checks := fix.client.checks()
	if len(checks) != 1 || checks[0] != "kim@example.com" {
		t.Fatalf("check calls = %v, want exactly one with the final email", checks)
	}
	if fix.store.State() != StateUserChecked {
		t.Fatalf("state = %s, want %s", fix.store.State(), StateUserChecked)
	}
}

func TestConditionalInvalidEmailNeverFires(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.ConditionalDebounce = 20 * time.Millisecond
	fix := newStoreFixture(t, cfg, nil)

	fix.store.SetEmail("not-an-email")
	time.Sleep(100 * time.Millisecond)

	if got := fix.client.checks(); len(got) != 0 {
		t.Fatalf("check calls = %v, want none for invalid input", got)
	}
}

func TestConditionalSilentSignIn(t *testing.T) {
	fix := newStoreFixture(t, defaultTestConfig(), nil)
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: true}
	fix.client.passkeyVerifyResult = authResult("kim@example.com")

	fix.store.SetEmail("kim@example.com")
	fix.store.runConditional("kim@example.com")

	snap := fix.store.Snapshot()
	if snap.State != StateSignedIn {
		t.Fatalf("state = %s, want %s", snap.State, StateSignedIn)
	}
	if snap.Context.Method != MethodPasskeyOnly {
		t.Fatalf("method = %s, want %s", snap.Context.Method, MethodPasskeyOnly)
	}
	if _, err := fix.sessions.Load(context.Background()); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	kinds := fix.sink.kinds()
	if !hasKind(kinds, telemetry.KindConditionalStart) || !hasKind(kinds, telemetry.KindSuccess) {
		t.Fatalf("telemetry kinds = %v", kinds)
	}
}

func TestConditionalUsesConditionalMediation(t *testing.T) {
	var seen ceremony.Mediation
	fix := newStoreFixture(t, defaultTestConfig(), func(o *Options) {
		o.Authenticator = &fakeAuthenticator{
			getFunc: func(_ context.Context, _ *protocol.CredentialAssertion, m ceremony.Mediation) (ceremony.Credential, error) {
				seen = m
				return ceremony.Credential{Response: []byte(`{}`)}, nil
			},
		}
	})
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: true}
	fix.client.passkeyVerifyResult = authResult("kim@example.com")

	fix.store.runConditional("kim@example.com")

	if seen != ceremony.MediationConditional {
		t.Fatalf("mediation = %s, want %s", seen, ceremony.MediationConditional)
	}
}

func TestConditionalFailureIsSwallowed(t *testing.T) {
	fix := newStoreFixture(t, defaultTestConfig(), func(o *Options) {
		o.Authenticator = &fakeAuthenticator{
			getFunc: func(context.Context, *protocol.CredentialAssertion, ceremony.Mediation) (ceremony.Credential, error) {
				return ceremony.Credential{}, ceremony.ErrNotAllowed
			},
		}
	})
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: true}

	fix.store.SetEmail("kim@example.com")
	fix.store.runConditional("kim@example.com")

	// The lookup result is kept but the failed silent ceremony leaves no
	// error behind.
	snap := fix.store.Snapshot()
	if snap.State != StateUserChecked {
		t.Fatalf("state = %s, want %s", snap.State, StateUserChecked)
	}
	if snap.Context.Err != nil {
		t.Fatalf("silent failure surfaced: %v", snap.Context.Err)
	}
	if !hasKind(fix.sink.kinds(), telemetry.KindConditionalIgnored) {
		t.Fatalf("telemetry kinds = %v, want CONDITIONAL_IGNORED", fix.sink.kinds())
	}
}

func TestConditionalStaleResultDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fix := newStoreFixture(t, defaultTestConfig(), func(o *Options) {
		o.Authenticator = &fakeAuthenticator{
			getFunc: func(context.Context, *protocol.CredentialAssertion, ceremony.Mediation) (ceremony.Credential, error) {
				close(entered)
				<-release
				return ceremony.Credential{Response: []byte(`{}`)}, nil
			},
		}
	})
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: true}
	fix.client.passkeyVerifyResult = authResult("kim@example.com")
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fix.store.runConditional("kim@example.com")
	}()
	<-entered

	// The user acts explicitly while the silent ceremony hangs; the
	// explicit attempt supersedes it.
	if err := fix.store.SendEmailCode(ctx, "kim@example.com"); err != nil {
		t.Fatalf("SendEmailCode: %v", err)
	}
	close(release)
	<-done

	if fix.store.State() != StatePinEntry {
		t.Fatalf("state = %s, want %s: stale conditional result applied", fix.store.State(), StatePinEntry)
	}
	if _, err := fix.sessions.Load(ctx); err == nil {
		t.Fatal("stale conditional result persisted a session")
	}
	if !hasKind(fix.sink.kinds(), telemetry.KindConditionalIgnored) {
		t.Fatalf("telemetry kinds = %v, want CONDITIONAL_IGNORED", fix.sink.kinds())
	}
}

func TestConditionalCannotSupersedeExplicitAttempt(t *testing.T) {
	inSend := make(chan struct{})
	release := make(chan struct{})
	fix := newStoreFixture(t, defaultTestConfig(), nil)
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: true}
	fix.client.sendCodeHook = func() {
		close(inSend)
		<-release
	}
	ctx := context.Background()

	if _, err := fix.store.CheckUser(ctx, "kim@example.com"); err != nil {
		t.Fatalf("CheckUser: %v", err)
	}
	before := len(fix.client.checks())

	done := make(chan error, 1)
	go func() { done <- fix.store.SendEmailCode(ctx, "kim@example.com") }()
	<-inSend

	// A debounce timer firing mid-attempt must observe the busy flag and
	// yield without bumping the attempt sequence.
	fix.store.runConditional("kim@example.com")

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("SendEmailCode: %v", err)
	}
	if fix.store.State() != StatePinEntry {
		t.Fatalf("state = %s, want %s: explicit result dropped as stale", fix.store.State(), StatePinEntry)
	}
	if got := len(fix.client.checks()); got != before {
		t.Fatalf("check calls = %d, want %d: conditional ran during explicit attempt", got, before)
	}
}

func TestConditionalSkipsWhileBusyOrOffFlow(t *testing.T) {
	fix := newStoreFixture(t, defaultTestConfig(), nil)
	fix.client.checkResult = authapi.CheckUserResult{Exists: true, HasWebAuthn: true}
	fix.client.verifyResult = authResult("kim@example.com")
	ctx := context.Background()

	fix.store.CheckUser(ctx, "kim@example.com")
	fix.store.SendEmailCode(ctx, "kim@example.com")
	if err := fix.store.VerifyEmailCode(ctx, "123456"); err != nil {
		t.Fatalf("VerifyEmailCode: %v", err)
	}
	before := len(fix.client.checks())

	// Signed in: a late trigger must do nothing.
	fix.store.runConditional("kim@example.com")
	if got := len(fix.client.checks()); got != before {
		t.Fatalf("check calls = %d, want %d: conditional ran off-flow", got, before)
	}
}
