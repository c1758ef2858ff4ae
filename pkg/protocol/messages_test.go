// ABOUTME: Tests for Resonate Protocol message types
// ABOUTME: Verifies JSON marshaling/unmarshaling of protocol messages
package protocol

import (
	"encoding/json"
	"testing"
)

func TestClientHelloMarshaling(t *testing.T) {
	hello := ClientHello{
		ClientID:       "test-id",
		Name:           "Test Player",
		Version:        1,
		SupportedRoles: []Role{RolePlayer},
		DeviceInfo: &DeviceInfo{
			ProductName:     "Test Product",
			Manufacturer:    "Test Mfg",
			SoftwareVersion: "0.1.0",
		},
		PlayerSupport: &PlayerSupport{
			SupportFormats: []AudioFormat{
				{Codec: CodecOpus, Channels: 2, SampleRate: 48000, BitDepth: 16},
				{Codec: CodecFLAC, Channels: 2, SampleRate: 48000, BitDepth: 16},
				{Codec: CodecPCM, Channels: 2, SampleRate: 48000, BitDepth: 16},
			},
			BufferCapacity:    1048576,
			SupportedCommands: []string{"volume", "mute"},
		},
	}

	msg := Message{Type: TypeClientHello, Payload: hello}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Type != TypeClientHello {
		t.Errorf("expected type %s, got %s", TypeClientHello, decoded.Type)
	}
}

func TestPlayerUpdateMarshaling(t *testing.T) {
	update := PlayerUpdate{State: "synchronized", Volume: 80, Muted: false}
	msg := Message{Type: TypePlayerUpdate, Payload: update}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Type != TypePlayerUpdate {
		t.Errorf("expected type %s, got %s", TypePlayerUpdate, decoded.Type)
	}
}

func TestStreamStartRoundTrip(t *testing.T) {
	start := StreamStart{
		Player: &StreamStartPlayer{
			Codec:      CodecOpus,
			SampleRate: 48000,
			Channels:   2,
			BitDepth:   16,
		},
		Visualizer: &StreamStartVisualizer{Enabled: true},
	}

	data, err := json.Marshal(start)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded StreamStart
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Player == nil || decoded.Player.Codec != CodecOpus {
		t.Errorf("decoded player = %+v, want codec opus", decoded.Player)
	}
	if decoded.Artwork != nil {
		t.Errorf("decoded artwork should be nil when omitted, got %+v", decoded.Artwork)
	}
	if decoded.Visualizer == nil || !decoded.Visualizer.Enabled {
		t.Errorf("decoded visualizer = %+v, want enabled", decoded.Visualizer)
	}
}

func TestAudioFormatBytesPerFrame(t *testing.T) {
	cases := []struct {
		name string
		f    AudioFormat
		want int
	}{
		{"stereo 16-bit", AudioFormat{Channels: 2, BitDepth: 16}, 4},
		{"stereo 32-bit", AudioFormat{Channels: 2, BitDepth: 32}, 8},
		{"stereo 24-bit unpacks to 32-bit", AudioFormat{Channels: 2, BitDepth: 24}, 8},
		{"mono 16-bit", AudioFormat{Channels: 1, BitDepth: 16}, 2},
	}
	for _, c := range cases {
		if got := c.f.BytesPerFrame(); got != c.want {
			t.Errorf("%s: BytesPerFrame() = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestGroupUpdateOmitsNilFields(t *testing.T) {
	data, err := json.Marshal(GroupUpdate{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("GroupUpdate{} marshaled to %s, want {}", string(data))
	}
}
