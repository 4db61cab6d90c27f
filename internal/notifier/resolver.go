package notifier

// Backend selects which backend serves a request.
type Backend int

const (
	// BackendFallback is the toolkit-provided fallback backend.
	BackendFallback Backend = iota
	// BackendNative is the OS balloon backend addressed by window handle.
	BackendNative
)

// String returns the string representation of the backend.
func (b Backend) String() string {
	switch b {
	case BackendFallback:
		return "fallback"
	case BackendNative:
		return "native"
	default:
		return "unknown"
	}
}

// Resolve picks the backend for a request. The first matching rule wins:
// a forced fallback, a target without a window handle, and a request with
// actions all select the fallback; everything else goes native.
func Resolve(hasWindowHandle, wantsActions, fallbackForced bool) Backend {
	switch {
	case fallbackForced:
		return BackendFallback
	case !hasWindowHandle:
		return BackendFallback
	case wantsActions:
		return BackendFallback
	default:
		return BackendNative
	}
}
