package mailbox

import "sync"

// Capacity is the largest payload the slot holds. Longer payloads are
// truncated on publish.
const Capacity = 1024

// Message is a consumer-owned copy of the slot contents.
type Message struct {
	Data []byte
	Seq  uint64
}

// Len returns the payload length.
func (m Message) Len() int {
	return len(m.Data)
}

// Mailbox is a single-slot, last-write-wins holding area.
type Mailbox struct {
	mu     sync.Mutex
	buffer [Capacity]byte
	length int
	seq    uint64
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// Publish copies up to Capacity bytes of data[:n] into the slot, replacing any
// unconsumed message. It returns the stored length, which is smaller than n
// when the payload was truncated. Publishing a zero length empties the slot.
func (m *Mailbox) Publish(data []byte, n int) int {
	if n < 0 {
		n = 0
	}
	if n > len(data) {
		n = len(data)
	}
	if n > Capacity {
		n = Capacity
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Content first, then length: a non-zero length always describes a
	// completely written message.
	copy(m.buffer[:n], data[:n])
	m.length = n
	m.seq++
	return n
}

// Take returns a copy of the current message when the slot is non-empty. The
// slot is left untouched; call Clear or Release once the copy is made.
func (m *Mailbox) Take() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.length == 0 {
		return Message{}, false
	}
	data := make([]byte, m.length)
	copy(data, m.buffer[:m.length])
	return Message{Data: data, Seq: m.seq}, true
}

// Clear empties the slot unconditionally.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	m.length = 0
	m.mu.Unlock()
}

// Release empties the slot only if it still holds the message with the given
// sequence number. It reports whether the slot was cleared; false means a
// newer publish arrived and is left for the next take.
func (m *Mailbox) Release(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq != seq {
		return false
	}
	m.length = 0
	return true
}

// Seq returns the number of publishes seen so far.
func (m *Mailbox) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}
