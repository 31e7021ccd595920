package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sms.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileSource_Messages(t *testing.T) {
	tests := []struct {
		name    string
		content string
		since   time.Time
		wantIDs []string
		wantErr error
	}{
		{
			name: "json array is sorted by timestamp",
			content: `[
				{"id": "2", "sender": "VM-HDFCBK", "body": "second", "timestamp": "2026-01-03T10:00:00Z", "read": true},
				{"id": "1", "sender": "VM-HDFCBK", "body": "first", "timestamp": "2026-01-03T09:00:00Z"}
			]`,
			wantIDs: []string{"1", "2"},
		},
		{
			name: "json lines with blank lines",
			content: `{"id": "1", "sender": "VM-HDFCBK", "body": "first", "timestamp": "2026-01-03T09:00:00Z"}

{"id": "2", "sender": "AX-SBIINB", "body": "second", "timestamp": "2026-01-03T10:00:00+05:30"}
`,
			wantIDs: []string{"2", "1"},
		},
		{
			name: "since filters older messages",
			content: `{"id": "1", "sender": "VM-HDFCBK", "body": "old", "timestamp": "2026-01-01T09:00:00Z"}
{"id": "2", "sender": "VM-HDFCBK", "body": "new", "timestamp": "2026-01-03T09:00:00Z"}`,
			since:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			wantIDs: []string{"2"},
		},
		{
			name:    "empty file",
			content: "  \n",
			wantIDs: nil,
		},
		{
			name:    "malformed line",
			content: "{\"id\": \"1\", \"sender\": \"X\", \"body\": \"b\", \"timestamp\": \"2026-01-03T09:00:00Z\"}\nnot json\n",
			wantErr: ErrMalformedExport,
		},
		{
			name:    "malformed array",
			content: `[{"id": "1"`,
			wantErr: ErrMalformedExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewFileSource(writeExport(t, tt.content))

			messages, err := src.Messages(context.Background(), tt.since)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			var ids []string
			for _, msg := range messages {
				ids = append(ids, msg.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFileSource_Fields(t *testing.T) {
	path := writeExport(t, `[{"id": "m1", "sender": "VM-HDFCBK", "body": "Rs.5 debited", "timestamp": "2026-01-03T09:00:00+05:30", "read": true}]`)

	messages, err := NewFileSource(path).Messages(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, "VM-HDFCBK", msg.Sender)
	assert.Equal(t, "Rs.5 debited", msg.Body)
	assert.True(t, msg.Read)
	assert.True(t, msg.Timestamp.Equal(time.Date(2026, 1, 3, 3, 30, 0, 0, time.UTC)))
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Messages(context.Background(), time.Time{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSliceSource(t *testing.T) {
	src := sampleInbox()

	all, err := src.Messages(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, len(src))

	recent, err := src.Messages(context.Background(), t0.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "e", recent[0].ID)
}
