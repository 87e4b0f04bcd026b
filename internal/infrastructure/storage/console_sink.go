package storage

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"rillstats/internal/core/domain"
	apperrors "rillstats/pkg/errors"
)

// ConsoleSink pretty-prints the digest itself, not the derived points. It is
// the fallback when no store is configured.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Store(_ context.Context, digest *domain.Digest) error {
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return apperrors.NewSinkError(err, "failed to encode digest")
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		return apperrors.NewSinkError(err, "failed to print digest")
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	return nil
}
