package boundary

import (
	"sync"
)

// --------------------------------------------------------------------------
// Diagnostic Slot
// --------------------------------------------------------------------------

// slot holds the most recently recorded result of a host together with its message.
// Every call through the host overwrites it, successful or not, so a message can
// only be trusted by a caller whose own result (kind and id) is still the recorded one.
//
// Thread-safety: slot is safe for concurrent use, but concurrent failing calls race
// for the single value it holds.
type slot struct {
	mu   sync.Mutex
	last Result
	msg  string
}

// record stores res and its message, replacing whatever was recorded before.
func (s *slot) record(res Result, msg string) {
	s.mu.Lock()
	s.last = res
	s.msg = msg
	s.mu.Unlock()
}

// read copies the recorded message into buf.
// If buf can't hold the full message BufferTooSmall is returned together with the
// required length and buf is left untouched.
func (s *slot) read(buf []byte) (res Result, last Result, msgLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last = s.last
	msgLen = len(s.msg)
	if len(buf) < msgLen {
		return BufferTooSmall(), last, msgLen
	}
	copy(buf, s.msg)
	return Ok(), last, msgLen
}
