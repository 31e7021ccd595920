package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/smsledger/internal/ingest"
)

var _ ingest.Progress = (*ProgressBar)(nil)

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, "Reading messages...")

	// Updates before Start are ignored
	bar.Advance(1)
	bar.Finish()
	assert.Empty(t, out.String())

	bar.Start(4)
	bar.Advance(2)
	bar.Advance(2)
	bar.Finish()

	assert.Contains(t, out.String(), "Reading messages...")
	assert.Contains(t, out.String(), "4/4")
}
