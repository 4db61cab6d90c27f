package native

// Tray is the notification target owned by the daemon. Its window handle is
// read on every call because the window may not be realized yet.
type Tray struct {
	appID  uint32
	handle func() uint64
}

// NewTray creates a tray with the given application id. handle returns the
// native handle of the tray's window, or 0 when there is none.
func NewTray(appID uint32, handle func() uint64) *Tray {
	return &Tray{appID: appID, handle: handle}
}

// AppID returns the application id balloons are attributed to.
func (t *Tray) AppID() uint32 {
	return t.appID
}

// WindowHandle returns the native window handle, or 0.
func (t *Tray) WindowHandle() uint64 {
	if t == nil || t.handle == nil {
		return 0
	}
	return t.handle()
}
