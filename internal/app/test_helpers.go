package app

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/internal/testutil"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// ChannelSource is a change source fed from a channel.
type ChannelSource struct {
	Payloads chan []byte
}

func (s *ChannelSource) Listen(ctx context.Context, handle registry.ChangeHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-s.Payloads:
			handle(ctx, p)
		}
	}
}

// FixtureModule registers the fakes of a fixture as "fake" backends.
type FixtureModule struct {
	Fixture *testutil.Fixture
	Source  *ChannelSource
}

func (m *FixtureModule) Register(r *registry.Registry) {
	f := m.Fixture
	r.RegisterDefinitions("fake", func(context.Context, registry.Env) (collab.DefinitionStore, error) { return f.Definitions, nil })
	r.RegisterQueries("fake", func(context.Context, registry.Env) (collab.QueryExecutor, error) { return f.Queries, nil })
	r.RegisterReferences("fake", func(context.Context, registry.Env) (collab.ReferenceData, error) { return f.References, nil })
	r.RegisterComposer("fake", func(context.Context, registry.Env) (collab.Composer, error) { return f.Composer, nil })
	r.RegisterDelivery("fake", func(context.Context, registry.Env) (collab.Delivery, error) { return f.Delivery, nil })
	r.RegisterSource("fake", func(context.Context, registry.Env) (registry.ChangeSource, error) { return m.Source, nil })
}

// FakeConfig selects the "fake" backend for every role.
func FakeConfig() Config {
	cfg := DefaultConfig()
	fake := Backend{Type: "fake"}
	cfg.Definitions, cfg.Queries, cfg.References, cfg.Composer, cfg.Delivery = fake, fake, fake, fake, fake
	cfg.LogLevel = "debug"
	return cfg
}

// SetupAppTest creates a new app instance over fixture fakes for system
// testing.
func SetupAppTest(t *testing.T, cfg Config, mod *FixtureModule) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	valid, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	testApp, err := NewApp(context.Background(), logBuffer, valid, mod)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	t.Cleanup(func() {
		testApp.Close()
		if os.Getenv("REPORTGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
