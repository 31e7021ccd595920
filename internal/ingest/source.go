// Package ingest feeds raw bank SMS through extraction and deduplication into storage.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/model"
)

// ErrMalformedExport is returned when a message export cannot be decoded.
var ErrMalformedExport = errors.New("malformed message export")

// MessageSource supplies raw messages received at or after since.
// A zero since means all messages.
type MessageSource interface {
	Messages(ctx context.Context, since time.Time) ([]model.RawMessage, error)
}

// FileSource reads an SMS export: either one JSON array of messages or one
// JSON object per line.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the export at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: config.ExpandPath(path)}
}

// Messages reads the export and returns its messages in timestamp order.
func (s *FileSource) Messages(ctx context.Context, since time.Time) ([]model.RawMessage, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open message export: %w", err)
	}
	defer func() { _ = f.Close() }()

	messages, err := decodeMessages(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	filtered := messages[:0]
	for _, msg := range messages {
		if !since.IsZero() && msg.Timestamp.Before(since) {
			continue
		}
		filtered = append(filtered, msg)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	slog.Debug("Read message export", "path", s.path, "total", len(messages), "selected", len(filtered))
	return filtered, nil
}

func decodeMessages(ctx context.Context, r io.Reader) ([]model.RawMessage, error) {
	br := bufio.NewReader(r)

	first, err := firstNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var messages []model.RawMessage
		if err := json.NewDecoder(br).Decode(&messages); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedExport, err)
		}
		return messages, nil
	}

	var messages []model.RawMessage
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var msg model.RawMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedExport, line, err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// SliceSource serves a fixed list of messages.
type SliceSource []model.RawMessage

// Messages returns the messages received at or after since.
func (s SliceSource) Messages(_ context.Context, since time.Time) ([]model.RawMessage, error) {
	out := make([]model.RawMessage, 0, len(s))
	for _, msg := range s {
		if since.IsZero() || !msg.Timestamp.Before(since) {
			out = append(out, msg)
		}
	}
	return out, nil
}
