// Package store orchestrates guided world-building sessions.
//
// The Store owns the session aggregate, the conversation log, the pending
// message buffer, and the collaboration mode. User actions come in through
// named operations; stream events from the narrator are folded into the
// aggregate under one lock, derived completion state is recomputed, and an
// immutable snapshot is broadcast to subscribers after every fold.
// Observers never see a torn intermediate state.
package store
