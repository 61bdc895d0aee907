package workflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/pool"
	"github.com/troupe-dev/troupe/pkg/protocol"
	"github.com/troupe-dev/troupe/pkg/registry"
)

type taskFunc func(ctx context.Context, task models.AgentTask) (map[string]any, error)

type fakeAgent struct {
	run taskFunc
}

func (a *fakeAgent) ExecuteTask(ctx context.Context, task models.AgentTask, _ *slog.Logger) (map[string]any, error) {
	return a.run(ctx, task)
}

type fakeFactory struct {
	id  string
	run taskFunc
}

func (f *fakeFactory) ID() string { return f.id }

func (f *fakeFactory) Create(_ map[string]any) (protocol.Agent, error) {
	return &fakeAgent{run: f.run}, nil
}

func (f *fakeFactory) Schema() map[string]any { return map[string]any{} }

// recordingBus captures published events so tests can assert on the stream.
type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *recordingBus) Count(eventType events.EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0

	for _, event := range b.events {
		if event.GetType() == eventType {
			count++
		}
	}

	return count
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPool(t *testing.T, factories ...*fakeFactory) *pool.Pool {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	for _, f := range factories {
		reg.RegisterAgent(f)
	}

	return pool.NewPool(reg, testLogger())
}

func newTestScheduler(t *testing.T, bus eventbus.EventPublisher, factories ...*fakeFactory) *Scheduler {
	t.Helper()

	agentPool := newTestPool(t, factories...)
	executor := NewStepExecutor(agentPool, bus, testLogger())

	return NewScheduler(executor, bus, testLogger())
}

func echoFactory() *fakeFactory {
	return &fakeFactory{
		id: "echo",
		run: func(_ context.Context, task models.AgentTask) (map[string]any, error) {
			return map[string]any{"echo": task.Input}, nil
		},
	}
}
