// Package server hosts the worldgen HTTP/WebSocket process.
//
// Each WebSocket connection owns one session controller; frames coming
// in mutate the controller, and every state fold is pushed back out as a
// delta frame. The gateway composes storage, the narrator client, and
// telemetry so the controller stays transport-free.
package server
