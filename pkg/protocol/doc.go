// ABOUTME: Resonate wire protocol package
// ABOUTME: Defines protocol messages, binary frames, and the WebSocket transport
// Package protocol implements the Resonate wire protocol: the JSON
// message envelope used for control/metadata traffic and the binary
// frame format used for audio, artwork, and visualizer data.
package protocol
