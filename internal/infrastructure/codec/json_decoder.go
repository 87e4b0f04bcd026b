package codec

import (
	"bytes"
	"encoding/json"
	"reflect"

	"rillstats/internal/core/domain"
	apperrors "rillstats/pkg/errors"
)

// The wire types keep every field behind a pointer so that absence can be
// told apart from zero. Conversion to domain types enforces required fields.

type wireDigest struct {
	RoomID   *uint64     `json:"roomId"`
	MemberID *uint64     `json:"memberId"`
	Outbound *wireBundle `json:"outbound"`
	Inbound  *wireBundle `json:"inbound"`
}

type wireBundle struct {
	Audio *wireMetrics `json:"audio"`
	Video *wireMetrics `json:"video"`
}

type wireMetrics struct {
	Jitter                 *float64        `json:"jitter"`
	RoundTripTime          *float64        `json:"roundTripTime"`
	BytesSent              *uint64         `json:"bytesSent"`
	BytesReceived          *uint64         `json:"bytesReceived"`
	PacketsSent            *uint64         `json:"packetsSent"`
	PacketsReceived        *uint64         `json:"packetsReceived"`
	PacketsLost            *uint64         `json:"packetsLost"`
	HeaderBytesSent        *uint64         `json:"headerBytesSent"`
	HeaderBytesReceived    *uint64         `json:"headerBytesReceived"`
	RetransmittedBytesSent *uint64         `json:"retransmittedBytesSent"`
	Timestamp              *float64        `json:"timestamp"`
	FramesPerSecond        *uint8          `json:"framesPerSecond"`
	FrameResolution        *wireResolution `json:"frameResolution"`
}

type wireResolution struct {
	Height *uint16 `json:"height"`
	Width  *uint16 `json:"width"`
}

// DecodeDigest parses one WebSocket text payload. The digest is returned only
// if every part of it is valid; any failure yields a DECODE_ERROR AppError
// whose "field" context names the offending JSON path.
func DecodeDigest(data []byte) (*domain.Digest, error) {
	var w wireDigest
	if err := decodeObject(data, &w, ""); err != nil {
		return nil, err
	}
	return w.toDomain()
}

// decodeObject fills the struct pointed to by v from the JSON object in data.
// Keys must equal the json tags exactly; any other spelling is an unknown key
// and is ignored. Every field of v is a pointer, left nil when the key is
// absent or null.
func decodeObject(data []byte, v interface{}, path string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return apperrors.NewDecodeError(err, path)
	}

	rv := reflect.ValueOf(v).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("json")
		raw, ok := obj[name]
		if !ok || bytes.Equal(raw, jsonNull) {
			continue
		}

		fieldPath := name
		if path != "" {
			fieldPath = path + "." + name
		}

		target := reflect.New(rt.Field(i).Type.Elem())
		if target.Elem().Kind() == reflect.Struct {
			if err := decodeObject(raw, target.Interface(), fieldPath); err != nil {
				return err
			}
		} else if err := json.Unmarshal(raw, target.Interface()); err != nil {
			return apperrors.NewDecodeError(err, fieldPath)
		}
		rv.Field(i).Set(target)
	}
	return nil
}

var jsonNull = []byte("null")

func missing(field string) error {
	return apperrors.NewDecodeError(domain.ErrMissingField, field)
}

func (w *wireDigest) toDomain() (*domain.Digest, error) {
	if w.RoomID == nil {
		return nil, missing("roomId")
	}
	if w.MemberID == nil {
		return nil, missing("memberId")
	}
	outbound, err := w.Outbound.toDomain("outbound")
	if err != nil {
		return nil, err
	}
	inbound, err := w.Inbound.toDomain("inbound")
	if err != nil {
		return nil, err
	}
	return &domain.Digest{
		RoomID:   domain.RoomID(*w.RoomID),
		MemberID: domain.MemberID(*w.MemberID),
		Outbound: outbound,
		Inbound:  inbound,
	}, nil
}

func (w *wireBundle) toDomain(path string) (domain.Bundle, error) {
	if w == nil {
		return domain.Bundle{}, missing(path)
	}
	audio, err := w.Audio.toDomain(path + ".audio")
	if err != nil {
		return domain.Bundle{}, err
	}
	video, err := w.Video.toDomain(path + ".video")
	if err != nil {
		return domain.Bundle{}, err
	}
	return domain.Bundle{Audio: audio, Video: video}, nil
}

func (w *wireMetrics) toDomain(path string) (domain.Metrics, error) {
	if w == nil {
		return domain.Metrics{}, missing(path)
	}
	if w.Timestamp == nil {
		return domain.Metrics{}, missing(path + ".timestamp")
	}

	m := domain.Metrics{
		Jitter:                 w.Jitter,
		RoundTripTime:          w.RoundTripTime,
		BytesSent:              w.BytesSent,
		BytesReceived:          w.BytesReceived,
		PacketsSent:            w.PacketsSent,
		PacketsReceived:        w.PacketsReceived,
		PacketsLost:            w.PacketsLost,
		HeaderBytesSent:        w.HeaderBytesSent,
		HeaderBytesReceived:    w.HeaderBytesReceived,
		RetransmittedBytesSent: w.RetransmittedBytesSent,
		Timestamp:              *w.Timestamp,
	}

	switch {
	case w.FramesPerSecond == nil && w.FrameResolution == nil:
	case w.FramesPerSecond == nil || w.FrameResolution == nil:
		return domain.Metrics{}, apperrors.NewDecodeError(domain.ErrPartialQuality, path)
	default:
		res := w.FrameResolution
		if res.Height == nil {
			return domain.Metrics{}, missing(path + ".frameResolution.height")
		}
		if res.Width == nil {
			return domain.Metrics{}, missing(path + ".frameResolution.width")
		}
		m.Quality = &domain.Quality{
			FramesPerSecond: *w.FramesPerSecond,
			FrameResolution: domain.Resolution{Height: *res.Height, Width: *res.Width},
		}
	}
	return m, nil
}
