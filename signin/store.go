package signin

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/passflow/passflow/authapi"
	"github.com/passflow/passflow/capability"
	"github.com/passflow/passflow/ceremony"
	apperrors "github.com/passflow/passflow/internal/platform/errors"
	"github.com/passflow/passflow/session"
	"github.com/passflow/passflow/telemetry"
	"github.com/passflow/passflow/user"
)

// Snapshot is an immutable view of the flow at one instant. Context is a
// deep copy; mutating it does not affect the store.
type Snapshot struct {
	State   State
	Context Context
	Busy    bool
}

// Listeners are optional presentation callbacks. They are invoked
// synchronously after the triggering mutation, outside the store lock.
type Listeners struct {
	// OnSuccess fires once when the flow reaches StateSignedIn.
	OnSuccess func(u user.User, method Method)
	// OnError fires for every surfaced flow error.
	OnError func(err error)
	// OnStepChange fires whenever the state changes.
	OnStepChange func(state State)
}

// Options configures a Store. Client is required; Authenticator is required
// when passkeys are enabled. Everything else has a working default.
type Options struct {
	Config        Config
	Client        authapi.Client
	Authenticator ceremony.Authenticator
	Detector      capability.Detector
	Sessions      session.Store
	Telemetry     telemetry.Sink
	Listeners     Listeners
	Logger        *log.Logger
	Clock         func() time.Time
}

// Store is the single entrypoint to the sign-in flow. It owns one Machine,
// serializes every mutation, and publishes a fresh Snapshot to subscribers
// after each one. All I/O happens outside its lock.
type Store struct {
	cfg           Config
	client        authapi.Client
	authenticator ceremony.Authenticator
	detector      capability.Detector
	sessions      session.Store
	emitter       *telemetry.Emitter
	listeners     Listeners
	logger        *log.Logger
	clock         func() time.Time
	tracer        trace.Tracer
	conditional   *conditionalRunner

	mu      sync.Mutex
	machine *Machine
	busy    bool
	// attemptSeq tags authentication attempts. Only the result of the
	// most recently dispatched attempt may mutate the machine; anything
	// older is dropped in apply.
	attemptSeq uint64
	subs       []subscriber
	nextSubID  int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// New validates the configuration and wires a Store.
func New(opts Options) (*Store, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Client == nil {
		return nil, apperrors.New(apperrors.CodeClientMissing, "authapi client is required")
	}
	if opts.Config.PasskeysEnabled && opts.Authenticator == nil {
		return nil, apperrors.New(apperrors.CodeCeremonyMissing,
			"passkeys enabled but no ceremony authenticator provided")
	}

	s := &Store{
		cfg:           opts.Config,
		client:        opts.Client,
		authenticator: opts.Authenticator,
		detector:      opts.Detector,
		sessions:      opts.Sessions,
		listeners:     opts.Listeners,
		logger:        opts.Logger,
		clock:         opts.Clock,
		tracer:        otel.Tracer("github.com/passflow/passflow/signin"),
	}
	if s.detector == nil {
		s.detector = capability.LoadStaticFromEnv()
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	s.emitter = telemetry.NewEmitter(opts.Telemetry).WithClock(s.clock)
	s.machine = NewMachine(opts.Config,
		WithMachineClock(s.clock),
		WithMachineLogger(s.logger),
	)
	s.conditional = newConditionalRunner(s, opts.Config.ConditionalDebounce)
	return s, nil
}

// Config returns the store's configuration.
func (s *Store) Config() Config { return s.cfg }

// State returns the current flow state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Snapshot returns an immutable view of the current flow.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:   s.machine.State(),
		Context: s.machine.Context(),
		Busy:    s.busy,
	}
}

// Subscribe registers a callback invoked synchronously with a fresh
// Snapshot after every mutation. It returns an unsubscribe function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Send dispatches an event directly, for UI transitions that involve no
// I/O. Dispatching supersedes any in-flight authentication attempt.
func (s *Store) Send(ev Event) State {
	s.mu.Lock()
	s.attemptSeq++
	prev := s.machine.State()
	next := s.machine.Send(ev)
	snap := s.snapshotLocked()
	subs := s.subsLocked()
	s.mu.Unlock()
	s.notify(prev, snap, subs)
	return next
}

// ButtonConfig derives the call-to-action layout for the current snapshot.
// liveEmail, when non-empty, overrides the context email so forms can
// re-derive per keystroke without dispatching.
func (s *Store) ButtonConfig(liveEmail string) ButtonConfig {
	snap := s.Snapshot()
	return buttonConfig(snap.State, snap.Context, s.cfg, snap.Busy, liveEmail)
}

// StateMessageConfig derives the status message for the current snapshot.
func (s *Store) StateMessageConfig() MessageConfig {
	snap := s.Snapshot()
	return messageConfig(snap.State, snap.Context)
}

// beginAttempt registers a new authentication attempt. It cancels any
// pending conditional trigger, then allocates the sequence number and raises
// the busy flag under one lock acquisition; a concurrent conditional attempt
// sees either busy or a stale sequence number. The returned sequence number
// must be passed to apply with the attempt's result, and the caller clears
// busy with setBusy(false) when the attempt finishes.
func (s *Store) beginAttempt() uint64 {
	s.conditional.cancel()
	s.mu.Lock()
	s.attemptSeq++
	seq := s.attemptSeq
	if s.busy {
		s.mu.Unlock()
		return seq
	}
	s.busy = true
	prev := s.machine.State()
	snap := s.snapshotLocked()
	subs := s.subsLocked()
	s.mu.Unlock()
	s.notify(prev, snap, subs)
	return seq
}

// apply delivers attempt results to the machine. Events from a superseded
// attempt are dropped. It reports whether the events were applied.
func (s *Store) apply(seq uint64, evs ...Event) bool {
	s.mu.Lock()
	if seq != s.attemptSeq {
		s.mu.Unlock()
		s.logger.Printf("signin: dropping result of superseded attempt %d", seq)
		return false
	}
	prev := s.machine.State()
	for _, ev := range evs {
		s.machine.Send(ev)
	}
	snap := s.snapshotLocked()
	subs := s.subsLocked()
	s.mu.Unlock()
	s.notify(prev, snap, subs)
	return true
}

// setMethod records the method chosen for the given attempt, unless the
// attempt has been superseded.
func (s *Store) setMethod(seq uint64, m Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.attemptSeq {
		s.machine.ctx.Method = m
	}
}

func (s *Store) setBusy(v bool) {
	s.mu.Lock()
	if s.busy == v {
		s.mu.Unlock()
		return
	}
	s.busy = v
	prev := s.machine.State()
	snap := s.snapshotLocked()
	subs := s.subsLocked()
	s.mu.Unlock()
	s.notify(prev, snap, subs)
}

func (s *Store) subsLocked() []func(Snapshot) {
	out := make([]func(Snapshot), len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}

func (s *Store) notify(prev State, snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
	if prev != snap.State && s.listeners.OnStepChange != nil {
		s.listeners.OnStepChange(snap.State)
	}
	if prev != StateSignedIn && snap.State == StateSignedIn &&
		s.listeners.OnSuccess != nil && snap.Context.User != nil {
		s.listeners.OnSuccess(*snap.Context.User, snap.Context.Method)
	}
}

// reportError forwards a surfaced error to the presentation listener.
func (s *Store) reportError(err error) {
	if s.listeners.OnError != nil {
		s.listeners.OnError(err)
	}
}

// persist saves the session, logging failures. A persistence failure never
// fails a sign-in that already succeeded.
func (s *Store) persist(ctx context.Context, sess session.Session) {
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Printf("signin: persist session: %v", err)
	}
}
