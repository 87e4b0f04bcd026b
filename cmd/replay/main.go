package main

import (
	"os"
	"time"

	"rillstats/internal/replay"
	"rillstats/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

func main() {
	url := pflag.StringP("url", "u", "", "collector WebSocket URL, e.g. ws://localhost:9000/")
	file := pflag.StringP("file", "f", "", "recording with one JSON digest per record")
	level := pflag.String("log-level", "info", "log level")
	pflag.Parse()

	zapLogger := logger.NewWithFormat(*level, "console")
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	if *url == "" || *file == "" {
		log.Fatal("both --url and --file are required")
	}

	source, err := os.Open(*file)
	if err != nil {
		log.Fatalw("failed to open recording", "file", *file, "error", err)
	}
	defer source.Close()

	records, err := replay.SplitRecords(source)
	if err != nil {
		log.Fatalw("failed to read recording", "file", *file, "error", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalw("failed to connect", "url", *url, "error", err)
	}
	defer conn.Close()

	stats, err := replay.Replay(records, conn, log)
	if err != nil {
		log.Errorw("replay aborted", "sent", stats.Sent, "error", err)
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	log.Infow("replay finished", "records", len(records), "sent", stats.Sent, "skipped", stats.Skipped)
}
