package domain

type RoomID uint64

type MemberID uint64

// Digest is one participant's inbound and outbound audio/video report for a
// room at a single moment.
type Digest struct {
	RoomID   RoomID   `json:"roomId"`
	MemberID MemberID `json:"memberId"`
	Outbound Bundle   `json:"outbound"`
	Inbound  Bundle   `json:"inbound"`
}

type Bundle struct {
	Audio Metrics `json:"audio"`
	Video Metrics `json:"video"`
}

// Metrics mirrors a WebRTC stats entry. Nil fields were not reported by the
// client and must not be confused with zero.
type Metrics struct {
	Jitter                 *float64 `json:"jitter,omitempty"`
	RoundTripTime          *float64 `json:"roundTripTime,omitempty"`
	BytesSent              *uint64  `json:"bytesSent,omitempty"`
	BytesReceived          *uint64  `json:"bytesReceived,omitempty"`
	PacketsSent            *uint64  `json:"packetsSent,omitempty"`
	PacketsReceived        *uint64  `json:"packetsReceived,omitempty"`
	PacketsLost            *uint64  `json:"packetsLost,omitempty"`
	HeaderBytesSent        *uint64  `json:"headerBytesSent,omitempty"`
	HeaderBytesReceived    *uint64  `json:"headerBytesReceived,omitempty"`
	RetransmittedBytesSent *uint64  `json:"retransmittedBytesSent,omitempty"`

	// Timestamp is in milliseconds with fractional microseconds.
	Timestamp float64 `json:"timestamp"`

	// Quality fields sit at the same level as the counters on the wire.
	*Quality
}

type Quality struct {
	FramesPerSecond uint8      `json:"framesPerSecond"`
	FrameResolution Resolution `json:"frameResolution"`
}

type Resolution struct {
	Height uint16 `json:"height"`
	Width  uint16 `json:"width"`
}
