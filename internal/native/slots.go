package native

import (
	"sync"

	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// ClosedFunc is called when the balloon shown for handle is closed by the OS.
type ClosedFunc func(handle notifier.NativeHandle, reason model.CloseReason)

// slots tracks the server-side notification id currently shown for each tray.
type slots struct {
	mu  sync.Mutex
	ids map[notifier.NativeHandle]uint32
}

func newSlots() *slots {
	return &slots{ids: make(map[notifier.NativeHandle]uint32)}
}

// get returns the id shown for handle, or 0 when the slot is empty.
func (s *slots) get(handle notifier.NativeHandle) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[handle]
}

func (s *slots) set(handle notifier.NativeHandle, id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		delete(s.ids, handle)
		return
	}
	s.ids[handle] = id
}

// take empties the slot for handle and returns the id it held.
func (s *slots) take(handle notifier.NativeHandle) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[handle]
	if ok {
		delete(s.ids, handle)
	}
	return id, ok
}

// release empties whichever slot holds id and returns the handle it belonged
// to. It reports false when no slot held id.
func (s *slots) release(id uint32) (notifier.NativeHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for handle, held := range s.ids {
		if held == id {
			delete(s.ids, handle)
			return handle, true
		}
	}
	return notifier.NativeHandle{}, false
}

func (s *slots) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
