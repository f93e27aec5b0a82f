package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/service/chatlog"
	"github.com/sandevgo/tusk/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModels struct {
	models []core.Model
	err    error
}

func (f fakeModels) ListModels(context.Context) ([]core.Model, error) {
	return f.models, f.err
}

type fakeProviderConfig struct {
	model, family string
}

func (f fakeProviderConfig) GetProvider() string    { return "openai" }
func (f fakeProviderConfig) GetModel() string       { return f.model }
func (f fakeProviderConfig) GetModelFamily() string { return f.family }

type recordingObserver struct {
	kinds []string
}

func (o *recordingObserver) ObserveCommand(kind string) {
	o.kinds = append(o.kinds, kind)
}

func newTestLog(t *testing.T) *chatlog.Log {
	t.Helper()
	db, err := sqlite.NewDB(context.Background(), filepath.Join(t.TempDir(), "tusk.db"))
	require.NoError(t, err)
	store := sqlite.NewKVStore(db)
	t.Cleanup(func() { _ = store.Close() })

	runner := chatlog.NewRunner(store, chatlog.RunnerOptions{})
	trimmer := chatlog.NewTrimmer(chatlog.DefaultMaxGap, chatlog.DefaultMaxJitter)
	return chatlog.New(runner, trimmer, chatlog.Options{})
}

func newTestRouter(t *testing.T, models fakeModels) (*Router, *chatlog.Log, *recordingObserver) {
	t.Helper()
	l := newTestLog(t)
	obs := &recordingObserver{}
	return New(l, models, fakeProviderConfig{model: "gpt-3.5-turbo", family: "gpt"}, obs), l, obs
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"/clear":   KindClear,
		"/history": KindHistory,
		"/model":   KindModel,
		"/help":    KindHelp,
		"/?":       KindHelp,
		"/Clear":   KindUnknown,
		"/foo":     KindUnknown,
		"clear":    KindUnknown,
		"":         KindUnknown,
	}
	for token, want := range tests {
		assert.Equal(t, want, ParseKind(token), token)
	}
}

func TestRouter_PlainTextIsNotACommand(t *testing.T) {
	r, _, obs := newTestRouter(t, fakeModels{})

	for _, input := range []string{"hello", " /clear", ""} {
		_, handled := r.Execute(context.Background(), "u1", input)
		assert.False(t, handled, input)
	}
	assert.Empty(t, obs.kinds)
}

func TestRouter_InvalidCommand(t *testing.T) {
	r, _, obs := newTestRouter(t, fakeModels{})

	tests := []string{"/foo", "/foo bar baz", "/", "/CLEAR"}
	for _, input := range tests {
		out, handled := r.Execute(context.Background(), "u1", input)
		assert.True(t, handled)
		assert.Equal(t, "Invalid command: "+input, out)
	}
	assert.Equal(t, []string{"unknown", "unknown", "unknown", "unknown"}, obs.kinds)
}

func TestRouter_Help(t *testing.T) {
	r, _, _ := newTestRouter(t, fakeModels{})
	want := "/clear:Reset the bot\n" +
		"/history:Display conversation history\n" +
		"/model:Display bot model\n" +
		"/help:Display help\n" +
		"/?:Display help\n"

	for _, input := range []string{"/help", "/?", "/help me please"} {
		out, handled := r.Execute(context.Background(), "u1", input)
		assert.True(t, handled)
		assert.Equal(t, want, out)
	}
}

func TestRouter_ListCommands(t *testing.T) {
	r, _, _ := newTestRouter(t, fakeModels{})

	cmds := r.ListCommands()
	require.Len(t, cmds, 5)
	cmds[0].Token = "/mutated"
	assert.Equal(t, "/clear", r.ListCommands()[0].Token)
}

func TestRouter_ClearAndHistory(t *testing.T) {
	r, l, obs := newTestRouter(t, fakeModels{})
	ctx := context.Background()

	out, _ := r.Execute(ctx, "u1", "/clear")
	assert.Equal(t, msgAlreadyCleared, out)

	out, _ = r.Execute(ctx, "u1", "/history")
	assert.Equal(t, msgNoHistory, out)

	require.NoError(t, l.EnsureInitialized(ctx, "u1"))
	out, _ = r.Execute(ctx, "u1", "/history")
	assert.Equal(t, msgEmptyHistory, out)

	out, _ = r.Execute(ctx, "u1", "/clear")
	assert.Equal(t, msgAlreadyCleared, out)

	_, err := l.Append(ctx, "u1", "hi", "hello")
	require.NoError(t, err)
	_, err = l.Append(ctx, "u1", "how are you?", "fine")
	require.NoError(t, err)

	out, _ = r.Execute(ctx, "u1", "/history")
	assert.Equal(t, "User: hi\nAssistant: hello\nUser: how are you?\nAssistant: fine", out)

	out, _ = r.Execute(ctx, "u1", "/clear")
	assert.Equal(t, msgCleared, out)

	out, _ = r.Execute(ctx, "u1", "/clear")
	assert.Equal(t, msgAlreadyCleared, out)

	out, _ = r.Execute(ctx, "u1", "/history")
	assert.Equal(t, msgEmptyHistory, out)

	w, err := l.Window(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, chatlog.Window{Prev: 2, Latest: 2}, w)

	assert.Contains(t, obs.kinds, "clear")
	assert.Contains(t, obs.kinds, "history")
}

func TestRouter_Model(t *testing.T) {
	tests := []struct {
		name   string
		models fakeModels
		want   string
	}{
		{
			name: "filters by family and marks active",
			models: fakeModels{models: []core.Model{
				{ID: "gpt-4o"},
				{ID: "dall-e-3"},
				{ID: "gpt-3.5-turbo"},
				{ID: "whisper-1"},
			}},
			want: "gpt-4o\ngpt-3.5-turbo (active)\n",
		},
		{
			name:   "no matching models",
			models: fakeModels{models: []core.Model{{ID: "llama3"}}},
			want:   `No "gpt" models available, active model is gpt-3.5-turbo`,
		},
		{
			name:   "provider failure",
			models: fakeModels{err: errors.New("connection refused")},
			want:   "Error: failed to list models: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRouter(t, tt.models)
			out, handled := r.Execute(context.Background(), "u1", "/model")
			assert.True(t, handled)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRouter_StoreErrorsAreRendered(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unavailable",
			err:  fmt.Errorf("clear: %w", core.ErrUnavailable),
			want: "Error: storage is temporarily unavailable",
		},
		{
			name: "conflict",
			err:  fmt.Errorf("clear: %w", core.ErrConflict),
			want: "Error: clear: transaction conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(failingLog{err: tt.err}, fakeModels{}, fakeProviderConfig{}, nil)

			out, handled := r.Execute(context.Background(), "u1", "/clear")
			assert.True(t, handled)
			assert.Equal(t, tt.want, out)

			out, _ = r.Execute(context.Background(), "u1", "/history")
			assert.Equal(t, tt.want, out)
		})
	}
}

type failingLog struct {
	err error
}

func (f failingLog) ReadHistory(context.Context, string) (chatlog.History, bool, error) {
	return chatlog.History{}, false, f.err
}

func (f failingLog) Clear(context.Context, string) (bool, error) {
	return false, f.err
}
