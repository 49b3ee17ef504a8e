package testsupport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/transport"
)

// FakeSource stands in for the MQTT subscriber. Deliver writes straight into
// the sink.
type FakeSource struct {
	sink      transport.Sink
	started   atomic.Bool
	closed    atomic.Bool
	received  atomic.Uint64
	truncated atomic.Uint64

	mu       sync.Mutex
	startErr error
}

// NewFakeSource wraps sink.
func NewFakeSource(sink transport.Sink) *FakeSource {
	return &FakeSource{sink: sink}
}

// FailStart makes Start return err.
func (f *FakeSource) FailStart(err error) {
	f.mu.Lock()
	f.startErr = err
	f.mu.Unlock()
}

func (f *FakeSource) Start(context.Context) error {
	f.mu.Lock()
	err := f.startErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.started.Store(true)
	f.closed.Store(false)
	return nil
}

func (f *FakeSource) Close() {
	f.closed.Store(true)
	f.started.Store(false)
}

func (f *FakeSource) Deliver(payload []byte) int {
	f.received.Add(1)
	n := f.sink.Publish(payload, len(payload))
	if n < len(payload) {
		f.truncated.Add(1)
	}
	return n
}

func (f *FakeSource) Connected() bool { return f.started.Load() }

func (f *FakeSource) Closed() bool { return f.closed.Load() }

func (f *FakeSource) Stats() transport.Stats {
	return transport.Stats{Received: f.received.Load(), Truncated: f.truncated.Load()}
}

func (f *FakeSource) Broker() string { return "tcp://fake:1883" }

func (f *FakeSource) Topic() string { return "blink" }
