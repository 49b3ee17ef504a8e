package mailbox_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/mailbox"
)

func TestPublishTakeRoundTrip(t *testing.T) {
	mb := mailbox.New()
	payload := []byte(`{"error":7}`)

	if stored := mb.Publish(payload, 11); stored != 11 {
		t.Fatalf("Publish stored %d bytes, want 11", stored)
	}

	msg, ok := mb.Take()
	if !ok {
		t.Fatal("expected message after publish")
	}
	if msg.Len() != 11 {
		t.Fatalf("unexpected length: %d", msg.Len())
	}
	if !bytes.Equal(msg.Data, payload) {
		t.Fatalf("unexpected payload: %q", msg.Data)
	}

	// Take does not consume.
	if _, ok := mb.Take(); !ok {
		t.Fatal("expected slot to remain full until cleared")
	}

	mb.Clear()
	if _, ok := mb.Take(); ok {
		t.Fatal("expected empty slot after clear")
	}
}

func TestEmptyMailbox(t *testing.T) {
	mb := mailbox.New()
	if _, ok := mb.Take(); ok {
		t.Fatal("new mailbox should be empty")
	}
	if mb.Seq() != 0 {
		t.Fatalf("unexpected sequence: %d", mb.Seq())
	}
}

func TestPublishOverwritesUnconsumed(t *testing.T) {
	mb := mailbox.New()
	mb.Publish([]byte(`{"error":1234}`), 14)
	mb.Publish([]byte(`{"error":2}`), 11)

	msg, ok := mb.Take()
	if !ok {
		t.Fatal("expected message")
	}
	if string(msg.Data) != `{"error":2}` {
		t.Fatalf("expected last publish to win, got %q", msg.Data)
	}
	if msg.Seq != 2 {
		t.Fatalf("unexpected sequence: %d", msg.Seq)
	}
}

func TestPublishTruncatesToCapacity(t *testing.T) {
	mb := mailbox.New()
	big := bytes.Repeat([]byte("a"), mailbox.Capacity+100)

	if stored := mb.Publish(big, len(big)); stored != mailbox.Capacity {
		t.Fatalf("stored %d, want %d", stored, mailbox.Capacity)
	}
	msg, _ := mb.Take()
	if msg.Len() != mailbox.Capacity {
		t.Fatalf("unexpected length: %d", msg.Len())
	}
}

func TestPublishClampsLength(t *testing.T) {
	mb := mailbox.New()
	if stored := mb.Publish([]byte("abc"), 10); stored != 3 {
		t.Fatalf("expected length clamped to data, got %d", stored)
	}
	if stored := mb.Publish([]byte("abc"), -1); stored != 0 {
		t.Fatalf("expected negative length to store nothing, got %d", stored)
	}
	if _, ok := mb.Take(); ok {
		t.Fatal("zero-length publish should leave the slot empty")
	}
}

func TestTakeReturnsIndependentCopy(t *testing.T) {
	mb := mailbox.New()
	mb.Publish([]byte(`{"error":3}`), 11)
	msg, _ := mb.Take()

	mb.Publish([]byte(`{"error":9}`), 11)
	if string(msg.Data) != `{"error":3}` {
		t.Fatalf("taken copy changed after republish: %q", msg.Data)
	}
}

func TestReleaseKeepsNewerMessage(t *testing.T) {
	mb := mailbox.New()
	mb.Publish([]byte(`{"error":1}`), 11)
	first, _ := mb.Take()

	mb.Publish([]byte(`{"error":2}`), 11)
	if mb.Release(first.Seq) {
		t.Fatal("Release must not clear a newer message")
	}
	second, ok := mb.Take()
	if !ok || string(second.Data) != `{"error":2}` {
		t.Fatalf("expected newer message to survive, got %q ok=%v", second.Data, ok)
	}
	if !mb.Release(second.Seq) {
		t.Fatal("expected Release to clear matching message")
	}
	if _, ok := mb.Take(); ok {
		t.Fatal("expected empty slot")
	}
}

func TestConcurrentPublishNeverTears(t *testing.T) {
	mb := mailbox.New()
	payloads := [][]byte{
		[]byte(`{"error":1}`),
		[]byte(`{"error":12,"ignore":"randstring"}`),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			p := payloads[i%2]
			mb.Publish(p, len(p))
		}
	}()

	for i := 0; i < 2000; i++ {
		msg, ok := mb.Take()
		if !ok {
			continue
		}
		if !bytes.Equal(msg.Data, payloads[0]) && !bytes.Equal(msg.Data, payloads[1]) {
			t.Fatalf("torn read: %q", msg.Data)
		}
	}
	wg.Wait()
}
