package cli

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil, "")
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestHandleInterrupts_Signal(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Messages saved so far are kept.")

	ctx, stop := handler.HandleInterrupts(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	handler.signals <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled after interrupt")
	}

	require.Eventually(t, handler.WasInterrupted, time.Second, 10*time.Millisecond)
	assert.Contains(t, output.String(), "Interrupted!")
	assert.Contains(t, output.String(), "Messages saved so far are kept.")
}

func TestHandleInterrupts_Stop(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "")

	ctx, stop := handler.HandleInterrupts(context.Background())
	stop()
	stop() // Safe to call twice

	<-ctx.Done()
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}
