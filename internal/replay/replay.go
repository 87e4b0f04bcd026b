// Package replay resends recorded digests to a running collector.
package replay

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	apperrors "rillstats/pkg/errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxLineSize = 1 << 20

// Sender is the write half of a WebSocket connection.
type Sender interface {
	WriteMessage(messageType int, data []byte) error
}

type Stats struct {
	Sent    int
	Skipped int
}

// SplitRecords groups lines into records. A line starting with '{' opens a
// new record; any other line continues the current one.
func SplitRecords(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		records []string
		lines   []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) > 0 && strings.HasPrefix(line, "{") {
			records = append(records, strings.Join(lines, "\n"))
			lines = lines[:0]
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return records, apperrors.NewInvalidInputError("failed to read recording: " + err.Error())
	}
	if len(lines) > 0 {
		records = append(records, strings.Join(lines, "\n"))
	}
	return records, nil
}

// Replay sends each valid record as one text frame. Records that are not JSON
// are logged and skipped. A write failure stops the replay.
func Replay(records []string, conn Sender, logger *zap.SugaredLogger) (Stats, error) {
	var stats Stats
	for i, record := range records {
		if !json.Valid([]byte(record)) {
			logger.Warnw("skipping invalid record", "index", i, "size", len(record))
			stats.Skipped++
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(record)); err != nil {
			return stats, apperrors.NewTransportError(err, "failed to send record")
		}
		stats.Sent++
	}
	return stats, nil
}
