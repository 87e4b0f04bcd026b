package services

import (
	"math"
	"strconv"

	"rillstats/internal/core/domain"
)

type PointService struct{}

func NewPointService() *PointService {
	return &PointService{}
}

// Transform produces one point per direction and media kind, in the order
// inbound-audio, inbound-video, outbound-audio, outbound-video.
func (s *PointService) Transform(d *domain.Digest) [4]domain.Point {
	room := strconv.FormatUint(uint64(d.RoomID), 10)
	member := strconv.FormatUint(uint64(d.MemberID), 10)

	return [4]domain.Point{
		toPoint(domain.MeasurementInboundAudio, room, member, &d.Inbound.Audio),
		toPoint(domain.MeasurementInboundVideo, room, member, &d.Inbound.Video),
		toPoint(domain.MeasurementOutboundAudio, room, member, &d.Outbound.Audio),
		toPoint(domain.MeasurementOutboundVideo, room, member, &d.Outbound.Video),
	}
}

const (
	maxMicros = math.MaxInt64 / 1000
	minMicros = math.MinInt64 / 1000
)

// ConvertTimestamp turns a millisecond timestamp with fractional microseconds
// into integer nanoseconds, rounding to the nearest microsecond first.
// Timestamps beyond the int64 nanosecond range saturate.
func ConvertTimestamp(ms float64) int64 {
	us := math.Round(ms * 1000)
	switch {
	case math.IsNaN(us):
		return 0
	case us >= maxMicros:
		return maxMicros * 1000
	case us <= minMicros:
		return minMicros * 1000
	}
	return int64(us) * 1000
}

// Ids are tagged as decimal strings: the store's integer type is signed and
// cannot hold the whole uint64 range.
func toPoint(measurement, room, member string, m *domain.Metrics) domain.Point {
	p := domain.Point{
		Measurement: measurement,
		Tags: map[string]string{
			domain.TagRoom:   room,
			domain.TagMember: member,
		},
		Fields:    make(map[string]interface{}),
		Timestamp: ConvertTimestamp(m.Timestamp),
	}

	addFloat(p.Fields, domain.FieldJitter, m.Jitter)
	addFloat(p.Fields, domain.FieldRoundTripTime, m.RoundTripTime)
	addCount(p.Fields, domain.FieldBytesSent, m.BytesSent)
	addCount(p.Fields, domain.FieldBytesReceived, m.BytesReceived)
	addCount(p.Fields, domain.FieldPacketsSent, m.PacketsSent)
	addCount(p.Fields, domain.FieldPacketsReceived, m.PacketsReceived)
	addCount(p.Fields, domain.FieldPacketsLost, m.PacketsLost)
	addCount(p.Fields, domain.FieldRetransmittedBytesSent, m.RetransmittedBytesSent)
	addCount(p.Fields, domain.FieldHeaderBytesSent, m.HeaderBytesSent)
	addCount(p.Fields, domain.FieldHeaderBytesReceived, m.HeaderBytesReceived)

	if q := m.Quality; q != nil {
		p.Fields[domain.FieldFPS] = int64(q.FramesPerSecond)
		p.Fields[domain.FieldWidth] = int64(q.FrameResolution.Width)
		p.Fields[domain.FieldHeight] = int64(q.FrameResolution.Height)
	}
	return p
}

func addFloat(fields map[string]interface{}, name string, v *float64) {
	if v != nil {
		fields[name] = *v
	}
}

// Counters above MaxInt64 saturate instead of wrapping negative.
func addCount(fields map[string]interface{}, name string, v *uint64) {
	if v == nil {
		return
	}
	if *v > math.MaxInt64 {
		fields[name] = int64(math.MaxInt64)
		return
	}
	fields[name] = int64(*v)
}
