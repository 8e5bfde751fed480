// Package signin orchestrates passwordless sign-in and registration flows.
//
// The package owns a strict finite-state model of the multi-step flow (email
// entry, user lookup, method selection, passkey or email ceremonies, signed
// in), decides which authentication method to attempt per user and per
// runtime capability, and races a silent conditional passkey prompt against
// explicit user action without ever letting the two double-apply.
//
// A Store is the single entrypoint: it owns one state/context pair, exposes
// immutable snapshots to subscribers, and translates UI intents into
// state-machine events and collaborator calls (backend client, capability
// detector, credential ceremonies, session persistence). Construct one Store
// per authentication surface and pass it by reference to every consumer;
// never re-instantiate it per component.
package signin
