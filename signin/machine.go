package signin

import (
	"log"
	"time"
)

// Machine is the sign-in finite-state machine. It is not safe for
// concurrent use; Store serializes access to it.
//
// Send is total: an event with no matching transition for the current state
// is logged and ignored, leaving state and context untouched. ErrorEvent and
// Reset match from every state.
type Machine struct {
	state State
	ctx   Context

	registrationOpen bool
	clock            func() time.Time
	logger           *log.Logger
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithMachineClock replaces the time source used by expiry guards.
func WithMachineClock(clock func() time.Time) MachineOption {
	return func(m *Machine) { m.clock = clock }
}

// WithMachineLogger replaces the logger used for ignored events.
func WithMachineLogger(logger *log.Logger) MachineOption {
	return func(m *Machine) { m.logger = logger }
}

// NewMachine returns a machine in StateEmailEntry with an empty context.
func NewMachine(cfg Config, opts ...MachineOption) *Machine {
	m := &Machine{
		state:            StateEmailEntry,
		registrationOpen: cfg.SignInMode == ModeLoginOrRegister,
		clock:            time.Now,
		logger:           log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Context returns a copy of the current context.
func (m *Machine) Context() Context { return m.ctx.clone() }

type transition struct {
	target State
	guard  func(*Machine, Event) bool
	action func(*Machine, Event)
}

// transitions is keyed by (state, event type). ErrorEvent and Reset are
// handled in Send before the table is consulted.
var transitions = map[State]map[EventType]transition{
	StateEmailEntry: {
		EventEmailTyped:  {target: StateEmailEntry, action: (*Machine).setEmail},
		EventUserChecked: {target: StateUserChecked, action: (*Machine).recordLookup},
		EventEmailVerificationRequired: {
			target: StateEmailVerification,
		},
		// A conditional passkey ceremony can complete while the user is
		// still typing.
		EventWebAuthnSuccess: {target: StateSignedIn, action: (*Machine).finishSignIn},
	},
	StateUserChecked: {
		EventEmailTyped:  {target: StateEmailEntry, action: (*Machine).setEmail},
		EventUserChecked: {target: StateUserChecked, action: (*Machine).recordLookup},
		EventPasskeyAvailable: {
			target: StatePasskeyPrompt,
			guard:  (*Machine).hasPasskey,
		},
		EventSentPinEmail: {target: StatePinEntry, action: (*Machine).recordPinSent},
		EventEmailVerificationRequired: {
			target: StateEmailVerification,
		},
		EventRegisterPasskey: {
			target: StateRegistrationTerms,
			guard:  (*Machine).canRegister,
		},
		EventWebAuthnSuccess: {target: StateSignedIn, action: (*Machine).finishSignIn},
		EventWebAuthnError:   {target: StateUserChecked, action: (*Machine).recordCeremonyError},
	},
	StatePasskeyPrompt: {
		EventWebAuthnSuccess: {target: StateSignedIn, action: (*Machine).finishSignIn},
		EventWebAuthnError:   {target: StateUserChecked, action: (*Machine).recordCeremonyError},
		EventSentPinEmail:    {target: StatePinEntry, action: (*Machine).recordPinSent},
		EventEmailVerificationRequired: {
			target: StateEmailVerification,
		},
	},
	StatePinEntry: {
		EventPinVerified: {
			target: StateSignedIn,
			guard:  (*Machine).pinUsable,
			action: (*Machine).finishSignIn,
		},
		EventSentPinEmail: {target: StatePinEntry, action: (*Machine).recordPinSent},
		EventEmailVerificationRequired: {
			target: StateEmailVerification,
		},
		EventEmailTyped:      {target: StateEmailEntry, action: (*Machine).setEmail},
		EventWebAuthnSuccess: {target: StateSignedIn, action: (*Machine).finishSignIn},
	},
	StateEmailVerification: {
		EventSentPinEmail: {target: StatePinEntry, action: (*Machine).recordPinSent},
		EventPinVerified: {
			target: StateSignedIn,
			guard:  (*Machine).pinUsable,
			action: (*Machine).finishSignIn,
		},
		EventEmailTyped:      {target: StateEmailEntry, action: (*Machine).setEmail},
		EventWebAuthnSuccess: {target: StateSignedIn, action: (*Machine).finishSignIn},
	},
	StateRegistrationTerms: {
		EventWebAuthnSuccess: {target: StateSignedIn, action: (*Machine).finishSignIn},
		EventWebAuthnError:   {target: StateRegistrationTerms, action: (*Machine).recordCeremonyError},
		EventEmailTyped:      {target: StateEmailEntry, action: (*Machine).setEmail},
	},
	StateSignedIn:     {},
	StateGeneralError: {},
}

// Send delivers an event. It returns the state after the event, which is
// unchanged when no transition matches or a guard rejects.
func (m *Machine) Send(ev Event) State {
	switch e := ev.(type) {
	case ErrorEvent:
		m.ctx.Err = e.Err
		m.state = StateGeneralError
		return m.state
	case Reset:
		m.ctx = Context{}
		m.state = StateEmailEntry
		return m.state
	}

	t, ok := transitions[m.state][ev.Type()]
	if !ok {
		m.logger.Printf("signin: event %s ignored in state %s", ev.Type(), m.state)
		return m.state
	}
	if t.guard != nil && !t.guard(m, ev) {
		m.logger.Printf("signin: event %s rejected by guard in state %s", ev.Type(), m.state)
		return m.state
	}
	if t.action != nil {
		t.action(m, ev)
	}
	m.state = t.target
	return m.state
}

// restore places the machine directly into StateSignedIn from a persisted
// session, bypassing the flow. Used only when resuming at startup.
func (m *Machine) restore(ev WebAuthnSuccess) {
	m.ctx = Context{}
	m.finishSignIn(ev)
	m.state = StateSignedIn
}

// Guards.

func (m *Machine) hasPasskey(Event) bool { return m.ctx.HasPasskey }

func (m *Machine) canRegister(Event) bool {
	return m.registrationOpen && !m.ctx.UserExists
}

func (m *Machine) pinUsable(Event) bool {
	return m.ctx.Pin.Valid && !m.ctx.Pin.Expired(m.clock())
}

// Actions. Each mutates context only; Send moves state afterwards.

func (m *Machine) setEmail(ev Event) {
	e := ev.(EmailTyped)
	m.ctx.Email = e.Value
	m.ctx.UserExists = false
	m.ctx.HasPasskey = false
	m.ctx.EmailVerified = false
	m.ctx.Err = nil
	m.ctx.Pin = PinStatus{}
}

func (m *Machine) recordLookup(ev Event) {
	e := ev.(UserChecked)
	m.ctx.UserExists = e.Exists
	m.ctx.HasPasskey = e.HasPasskey
	m.ctx.EmailVerified = e.EmailVerified
}

func (m *Machine) recordPinSent(ev Event) {
	e := ev.(SentPinEmail)
	pin := PinStatus{Valid: true}
	if !e.ExpiresAt.IsZero() {
		t := e.ExpiresAt
		pin.ExpiresAt = &t
	}
	m.ctx.Pin = pin
}

func (m *Machine) recordCeremonyError(ev Event) {
	e := ev.(WebAuthnError)
	m.ctx.Err = e.Err
	m.ctx.RetryCount++
}

func (m *Machine) finishSignIn(ev Event) {
	switch e := ev.(type) {
	case WebAuthnSuccess:
		s := e.Session
		m.ctx.Session = &s
	case PinVerified:
		s := e.Session
		m.ctx.Session = &s
	}
	if m.ctx.Session != nil {
		u := m.ctx.Session.User
		m.ctx.User = &u
	}
	m.ctx.Err = nil
	m.ctx.Pin = PinStatus{}
}
