package domain

// FrameSize is the fixed length of a frame on the local SFU socket.
const FrameSize = 25

// FrameHeader is the decoded fixed part of a local socket frame.
//
// PayloadLength is reported by the sender but no payload is consumed after
// the header; framing stays at FrameSize bytes.
type FrameHeader struct {
	Type          uint8
	RoomID        RoomID
	ParticipantID MemberID
	Sequence      uint16
	Timestamp     uint32
	PayloadLength uint16
}
