package health

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) { /* no-op */ }

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zerolog.Nop()

	a := &fakeChecker{name: "a"}
	b := &fakeChecker{name: "b"}
	a.healthy.Store(1)
	b.healthy.Store(1)

	svc := NewServiceHealthChecker(logger, a, b)
	go svc.Start(ctx, 10*time.Millisecond)

	// Initially healthy
	waitTrue(t, func() bool { return svc.IsHealthy() })

	// Flip one to unhealthy
	b.healthy.Store(0)
	waitTrue(t, func() bool { return !svc.IsHealthy() })

	// Recover
	b.healthy.Store(1)
	waitTrue(t, func() bool { return svc.IsHealthy() })
}

// pingStore is a minimal store whose ping result can be flipped.
type pingStore struct {
	pingErr atomic.Value // error
}

func (p *pingStore) Get(context.Context, string) (json.RawMessage, error) { return nil, nil }
func (p *pingStore) Set(context.Context, string, any) error               { return nil }
func (p *pingStore) Push(context.Context, string, any) (string, error)    { return "", nil }
func (p *pingStore) Update(context.Context, string, map[string]any) error { return nil }
func (p *pingStore) Watch(context.Context, string, func(json.RawMessage)) (recordstore.CancelFunc, error) {
	return func() {}, nil
}
func (p *pingStore) Ping(context.Context) error {
	if err, _ := p.pingErr.Load().(error); err != nil {
		return err
	}
	return nil
}

func TestStoreHealthChecker_UsesDriverPing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &pingStore{}
	hc := NewStoreHealthChecker(store, zerolog.Nop(), time.Second)
	go hc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return hc.IsHealthy() })

	store.pingErr.Store(errors.New("connection refused"))
	waitTrue(t, func() bool { return !hc.IsHealthy() })
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
