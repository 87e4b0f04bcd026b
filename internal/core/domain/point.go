package domain

const (
	MeasurementInboundAudio  = "inbound-audio"
	MeasurementInboundVideo  = "inbound-video"
	MeasurementOutboundAudio = "outbound-audio"
	MeasurementOutboundVideo = "outbound-video"

	TagRoom   = "room"
	TagMember = "member"
)

const (
	FieldJitter                 = "jitter"
	FieldRoundTripTime          = "round-trip-time"
	FieldBytesSent              = "bytes-sent"
	FieldBytesReceived          = "bytes-received"
	FieldPacketsSent            = "packets-sent"
	FieldPacketsReceived        = "packets-received"
	FieldPacketsLost            = "packets-lost"
	FieldRetransmittedBytesSent = "retransmitted-bytes-sent"
	FieldHeaderBytesSent        = "header-bytes-sent"
	FieldHeaderBytesReceived    = "header-bytes-received"
	FieldFPS                    = "fps"
	FieldWidth                  = "width"
	FieldHeight                 = "height"
)

// Point is a single time-series record. Field values are float64 or int64.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Timestamp   int64 // nanoseconds since epoch
}
