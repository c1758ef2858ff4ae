// ABOUTME: Session Controller package
// ABOUTME: Owns the connection lifecycle and wires Clock Sync, Decoder, Scheduler, and Sink together
// Package session implements the Resonate client session state machine:
// connect, handshake, stream start/end, and the concurrent tasks that keep
// clock sync, decode, scheduling, and output moving.
package session
