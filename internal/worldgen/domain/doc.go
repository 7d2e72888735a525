// Package domain defines the entities and lifecycle state for guided
// world-building sessions.
//
// A Session represents one in-progress collaborative universe document. It
// tracks the conversation with the narrator, the per-step draft content,
// and derived completion state.
//
// # Session Lifecycle
//
// Sessions move through a small lifecycle:
//   - Active: the session accepts messages and draft edits.
//   - Consumed: the session was finalized into a persisted world and no
//     longer accepts mutation.
package domain
