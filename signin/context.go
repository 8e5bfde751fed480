package signin

import (
	"time"

	"github.com/passflow/passflow/session"
	"github.com/passflow/passflow/user"
)

// PinStatus tracks the lifecycle of an emailed one-time code. Valid flips
// true when a code is sent and false when it is consumed or replaced. A nil
// ExpiresAt means the code has no client-side expiry.
type PinStatus struct {
	Valid     bool
	ExpiresAt *time.Time
}

// Expired reports whether the code deadline has passed.
func (p PinStatus) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Context is the mutable data the machine threads through a flow. It is
// mutated only by transition actions; everything handed out of the package
// is a copy made by clone.
type Context struct {
	// Email is the last typed email address, verbatim.
	Email string
	// UserExists, HasPasskey and EmailVerified hold the account lookup
	// result and are meaningful from StateUserChecked onward.
	UserExists    bool
	HasPasskey    bool
	EmailVerified bool
	// User is populated on successful authentication or registration.
	User *user.User
	// Session is populated when the flow reaches StateSignedIn.
	Session *session.Session
	// Err is the most recent flow error, cleared on success and on typing.
	Err error
	// RetryCount counts failed ceremony attempts within one flow.
	RetryCount int
	// Pin tracks the active one-time code, if any.
	Pin PinStatus
	// Method is the authentication method last attempted for this flow.
	Method Method
}

func (c Context) clone() Context {
	out := c
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	if c.Session != nil {
		s := *c.Session
		out.Session = &s
	}
	if c.Pin.ExpiresAt != nil {
		t := *c.Pin.ExpiresAt
		out.Pin.ExpiresAt = &t
	}
	return out
}
