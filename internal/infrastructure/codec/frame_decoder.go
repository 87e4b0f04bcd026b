package codec

import (
	"encoding/binary"

	"rillstats/internal/core/domain"
)

// FrameDecoder reassembles fixed-size frames from a byte stream. Only the
// header is decoded; the payload length it carries is informational and no
// payload bytes are consumed after it.
type FrameDecoder struct {
	buf []byte
}

func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{buf: make([]byte, 0, domain.FrameSize)}
}

// Feed appends p to the buffer and returns every header that became complete.
// Surplus bytes stay buffered as the start of the next frame.
func (d *FrameDecoder) Feed(p []byte) []domain.FrameHeader {
	d.buf = append(d.buf, p...)

	var headers []domain.FrameHeader
	for len(d.buf) >= domain.FrameSize {
		h, _ := DecodeFrameHeader(d.buf[:domain.FrameSize])
		headers = append(headers, h)
		d.buf = append(d.buf[:0], d.buf[domain.FrameSize:]...)
	}
	return headers
}

// Buffered returns the number of bytes held for the next frame.
func (d *FrameDecoder) Buffered() int {
	return len(d.buf)
}

// DecodeFrameHeader decodes the header layout:
//
//	offset 0  u8   message type
//	offset 1  u64  room id           little-endian
//	offset 9  u64  participant id    little-endian
//	offset 17 u16  sequence number   big-endian
//	offset 19 u32  timestamp         big-endian
//	offset 23 u16  payload length    little-endian
func DecodeFrameHeader(frame []byte) (domain.FrameHeader, error) {
	if len(frame) < domain.FrameSize {
		return domain.FrameHeader{}, domain.ErrShortFrame
	}
	return domain.FrameHeader{
		Type:          frame[0],
		RoomID:        domain.RoomID(binary.LittleEndian.Uint64(frame[1:9])),
		ParticipantID: domain.MemberID(binary.LittleEndian.Uint64(frame[9:17])),
		Sequence:      binary.BigEndian.Uint16(frame[17:19]),
		Timestamp:     binary.BigEndian.Uint32(frame[19:23]),
		PayloadLength: binary.LittleEndian.Uint16(frame[23:25]),
	}, nil
}

// EncodeFrameHeader is the inverse of DecodeFrameHeader.
func EncodeFrameHeader(h domain.FrameHeader) []byte {
	frame := make([]byte, domain.FrameSize)
	frame[0] = h.Type
	binary.LittleEndian.PutUint64(frame[1:9], uint64(h.RoomID))
	binary.LittleEndian.PutUint64(frame[9:17], uint64(h.ParticipantID))
	binary.BigEndian.PutUint16(frame[17:19], h.Sequence)
	binary.BigEndian.PutUint32(frame[19:23], h.Timestamp)
	binary.LittleEndian.PutUint16(frame[23:25], h.PayloadLength)
	return frame
}
