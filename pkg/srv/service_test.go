package srv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type blockingService struct {
	name string
	rec  *recorder
}

func (s blockingService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s blockingService) Shutdown(context.Context) error {
	s.rec.add("stop " + s.name)
	return nil
}

type failingService struct{}

func (failingService) Start(context.Context) error    { return errors.New("port in use") }
func (failingService) Shutdown(context.Context) error { return nil }

func TestRun_ShutsDownInReverseOrder(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []Service{
			blockingService{name: "a", rec: rec},
			blockingService{name: "b", rec: rec},
			NewCleanup("store", func() error { rec.add("close store"); return nil }),
		}, time.Second)
	}()

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"close store", "stop b", "stop a"}, rec.list())
}

func TestRun_StartFailure(t *testing.T) {
	rec := &recorder{}

	err := Run(context.Background(), []Service{
		blockingService{name: "a", rec: rec},
		failingService{},
	}, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "port in use")
	assert.Equal(t, []string{"stop a"}, rec.list())
}

func TestShutdown_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	err := Shutdown(context.Background(), []Service{
		NewCleanup("a", func() error { return errA }),
		NewCleanup("b", func() error { return errB }),
		NewCleanup("nil", nil),
	})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
