package notifier

import (
	"sort"
	"time"

	"github.com/jmylchreest/traynote/internal/model"
)

// NativeHandle is the (window handle, application id) pair captured when a
// native notification is shown. It is never recomputed afterwards.
type NativeHandle struct {
	WindowHandle uint64
	AppID        uint32
}

// OwnerKind identifies which backend owns a notification.
type OwnerKind int

const (
	// OwnerUnknown means the id is not outstanding.
	OwnerUnknown OwnerKind = iota
	// OwnerFallback means the fallback backend showed the notification.
	OwnerFallback
	// OwnerNative means the native backend showed the notification.
	OwnerNative
)

// String returns the string representation of OwnerKind.
func (k OwnerKind) String() string {
	switch k {
	case OwnerUnknown:
		return "unknown"
	case OwnerFallback:
		return "fallback"
	case OwnerNative:
		return "native"
	default:
		return "invalid"
	}
}

// Owner is the result of an ownership lookup. Handle is only set for OwnerNative.
type Owner struct {
	Kind   OwnerKind
	Handle NativeHandle
}

// Entry describes one outstanding notification.
type Entry struct {
	ID      model.ID
	Owner   Owner
	Ref     string
	ShownAt time.Time
}

type record struct {
	ref     string
	shownAt time.Time
}

type nativeRecord struct {
	record
	handle NativeHandle
}

// Registry maps outstanding notification ids to the backend that owns them.
// An id is owned by at most one backend at a time.
//
// Registry is not safe for concurrent use; Notifier serializes access.
type Registry struct {
	fallback map[model.ID]record
	native   map[model.ID]nativeRecord

	now func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		fallback: make(map[model.ID]record),
		native:   make(map[model.ID]nativeRecord),
		now:      time.Now,
	}
}

// RecordFallback marks id as owned by the fallback backend.
func (r *Registry) RecordFallback(id model.ID, ref string) error {
	if owner := r.ResolveOwner(id); owner.Kind != OwnerUnknown {
		return &DuplicateIDError{ID: id, Owner: owner}
	}
	r.fallback[id] = record{ref: ref, shownAt: r.now()}
	return nil
}

// RecordNative marks id as owned by the native backend with the given handle.
func (r *Registry) RecordNative(id model.ID, ref string, handle NativeHandle) error {
	if owner := r.ResolveOwner(id); owner.Kind != OwnerUnknown {
		return &DuplicateIDError{ID: id, Owner: owner}
	}
	r.native[id] = nativeRecord{
		record: record{ref: ref, shownAt: r.now()},
		handle: handle,
	}
	return nil
}

// ResolveOwner looks up the owner of id without modifying the registry.
func (r *Registry) ResolveOwner(id model.ID) Owner {
	if _, ok := r.fallback[id]; ok {
		return Owner{Kind: OwnerFallback}
	}
	if rec, ok := r.native[id]; ok {
		return Owner{Kind: OwnerNative, Handle: rec.handle}
	}
	return Owner{Kind: OwnerUnknown}
}

// Forget removes id from whichever backend owns it. Unknown ids are ignored.
func (r *Registry) Forget(id model.ID) {
	delete(r.fallback, id)
	delete(r.native, id)
}

// ForgetHandle removes every native id recorded with handle and returns them
// in ascending order.
func (r *Registry) ForgetHandle(handle NativeHandle) []model.ID {
	var ids []model.ID
	for id, rec := range r.native {
		if rec.handle == handle {
			ids = append(ids, id)
			delete(r.native, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of outstanding notifications.
func (r *Registry) Len() int {
	return len(r.fallback) + len(r.native)
}

// Snapshot returns all outstanding notifications ordered by id.
func (r *Registry) Snapshot() []Entry {
	entries := make([]Entry, 0, r.Len())
	for id, rec := range r.fallback {
		entries = append(entries, Entry{
			ID:      id,
			Owner:   Owner{Kind: OwnerFallback},
			Ref:     rec.ref,
			ShownAt: rec.shownAt,
		})
	}
	for id, rec := range r.native {
		entries = append(entries, Entry{
			ID:      id,
			Owner:   Owner{Kind: OwnerNative, Handle: rec.handle},
			Ref:     rec.ref,
			ShownAt: rec.shownAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
