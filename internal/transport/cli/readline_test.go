package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls [][2]string
}

func (d *recordingDispatcher) Handle(_ context.Context, identity, text string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, [2]string{identity, text})
	return "reply to " + text
}

type readResult struct {
	line string
	err  error
}

// scriptedReader replays results and then reports EOF.
type scriptedReader struct {
	results []readResult
	closed  bool
}

func (s *scriptedReader) Readline() (string, error) {
	if len(s.results) == 0 {
		return "", io.EOF
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.line, r.err
}

func (s *scriptedReader) Close() error {
	s.closed = true
	return nil
}

func lines(ls ...string) []readResult {
	out := make([]readResult, len(ls))
	for i, l := range ls {
		out[i] = readResult{line: l}
	}
	return out
}

func TestReadLine_DispatchesLines(t *testing.T) {
	d := &recordingDispatcher{}
	var out bytes.Buffer
	exited := 0
	r := newSession(d, Options{Identity: "alice", OnExit: func() { exited++ }},
		&scriptedReader{results: lines("hello", "   ", "/history", "exit", "never read")}, &out)

	require.NoError(t, r.Start(context.Background()))

	assert.Equal(t, [][2]string{{"alice", "hello"}, {"alice", "/history"}}, d.calls)
	assert.Contains(t, out.String(), "reply to hello")
	assert.Contains(t, out.String(), "reply to /history")
	assert.Equal(t, 1, exited)
}

func TestReadLine_DefaultIdentity(t *testing.T) {
	d := &recordingDispatcher{}
	r := newSession(d, Options{Identity: "  "}, &scriptedReader{results: lines("hi")}, io.Discard)

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, [][2]string{{DefaultIdentity, "hi"}}, d.calls)
}

func TestReadLine_ExitConditions(t *testing.T) {
	tests := []struct {
		name    string
		results []readResult
		want    int
	}{
		{name: "eof", results: nil, want: 0},
		{name: "interrupt on empty line", results: []readResult{{err: readline.ErrInterrupt}, {line: "after"}}, want: 0},
		{name: "interrupt with text continues", results: []readResult{{line: "partial", err: readline.ErrInterrupt}, {line: "after"}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDispatcher{}
			exited := false
			r := newSession(d, Options{OnExit: func() { exited = true }}, &scriptedReader{results: tt.results}, io.Discard)

			require.NoError(t, r.Start(context.Background()))
			assert.Len(t, d.calls, tt.want)
			assert.True(t, exited)
		})
	}
}

func TestReadLine_ReadError(t *testing.T) {
	boom := errors.New("tty gone")
	r := newSession(&recordingDispatcher{}, Options{}, &scriptedReader{results: []readResult{{err: boom}}}, io.Discard)

	require.ErrorIs(t, r.Start(context.Background()), boom)
}

func TestReadLine_StopsOnCancelledContext(t *testing.T) {
	d := &recordingDispatcher{}
	reader := &scriptedReader{results: lines("hi")}
	r := newSession(d, Options{}, reader, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Start(ctx))
	assert.Empty(t, d.calls)

	require.NoError(t, r.Shutdown(context.Background()))
	assert.True(t, reader.closed)
}
