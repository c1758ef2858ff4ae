// ABOUTME: Session Controller event types
// ABOUTME: One-shot-observer events emitted to façade consumers
package session

import (
	"github.com/resonate-audio/resonate-go/pkg/audio"
	"github.com/resonate-audio/resonate-go/pkg/protocol"
)

// EventKind discriminates the payload carried by an Event.
type EventKind int

const (
	EventServerConnected EventKind = iota
	EventStreamStarted
	EventStreamEnded
	EventGroupUpdated
	EventArtworkReceived
	EventVisualizerData
	EventError

	// EventMetadataUpdated carries a session/update's metadata subfields.
	// Not part of the core event set, but additive: the server sends this
	// independently of stream/start and a complete client surfaces it.
	EventMetadataUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventServerConnected:
		return "server_connected"
	case EventStreamStarted:
		return "stream_started"
	case EventStreamEnded:
		return "stream_ended"
	case EventGroupUpdated:
		return "group_updated"
	case EventArtworkReceived:
		return "artwork_received"
	case EventVisualizerData:
		return "visualizer_data"
	case EventMetadataUpdated:
		return "metadata_updated"
	default:
		return "error"
	}
}

// Event is a single notification pushed to a Controller's event consumer.
// Only the field matching Kind is populated.
type Event struct {
	Kind EventKind

	Format  audio.Format
	Group   protocol.GroupUpdate
	Session protocol.SessionUpdate

	ArtworkChannel int
	Artwork        []byte
	Visualizer     []byte

	Err error
}
