package daemon

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

type call struct {
	op  string
	id  model.ID
	req *model.Request
}

type fakeShower struct {
	calls []call
	err   error
}

func (f *fakeShower) Show(req *model.Request) error {
	f.calls = append(f.calls, call{op: "show", id: req.ID, req: req})
	return f.err
}

func (f *fakeShower) Close(id model.ID) notifier.Owner {
	f.calls = append(f.calls, call{op: "close", id: id})
	return notifier.Owner{}
}

func (f *fakeShower) shown() []*model.Request {
	var reqs []*model.Request
	for _, c := range f.calls {
		if c.op == "show" {
			reqs = append(reqs, c.req)
		}
	}
	return reqs
}

type tray struct{}

func (tray) AppID() uint32        { return 3 }
func (tray) WindowHandle() uint64 { return 0x10 }

func newTestNotices(t *testing.T) (*Notices, *fakeShower, *time.Time) {
	t.Helper()
	shower := &fakeShower{}
	n := NewNotices(shower, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }
	return n, shower, &now
}

func TestNotices_ClosesThenShows(t *testing.T) {
	n, shower, _ := newTestNotices(t)

	n.NotifyConfigReloaded()

	require.Len(t, shower.calls, 2)
	assert.Equal(t, "close", shower.calls[0].op)
	assert.Equal(t, "show", shower.calls[1].op)
	assert.Equal(t, NoticeIDBase, shower.calls[0].id)
	assert.Equal(t, NoticeIDBase, shower.calls[1].id)

	req := shower.calls[1].req
	assert.Equal(t, "Configuration Reloaded", req.Summary)
	assert.Equal(t, "traynoted", req.AppName)
	assert.Equal(t, model.UrgencyLow, req.Urgency())
	assert.Equal(t, "device", req.Category())
	assert.Equal(t, int32(5000), req.ExpireTimeout)
	assert.NotEmpty(t, req.Ref)
	assert.Nil(t, req.Target)
	require.NoError(t, req.Validate())
}

func TestNotices_RateLimited(t *testing.T) {
	n, shower, now := newTestNotices(t)

	n.NotifyConfigReloaded()
	n.NotifyConfigReloaded()
	assert.Len(t, shower.shown(), 1)

	*now = now.Add(6 * time.Second)
	n.NotifyConfigReloaded()
	assert.Len(t, shower.shown(), 2)
}

func TestNotices_IDPerKey(t *testing.T) {
	n, shower, now := newTestNotices(t)

	n.NotifyConfigReloaded()
	n.NotifyConfigError(errors.New("bad position"))
	*now = now.Add(time.Minute)
	n.NotifyConfigReloaded()

	reqs := shower.shown()
	require.Len(t, reqs, 3)
	assert.Equal(t, NoticeIDBase, reqs[0].ID)
	assert.Equal(t, NoticeIDBase+1, reqs[1].ID)
	assert.Equal(t, NoticeIDBase, reqs[2].ID)
	assert.Contains(t, reqs[1].Body, "bad position")
	assert.Equal(t, model.UrgencyNormal, reqs[1].Urgency())
}

func TestNotices_Target(t *testing.T) {
	n, shower, _ := newTestNotices(t)
	n.SetTarget(func() model.Target { return tray{} })

	n.NotifyBalloonsUnavailable(errors.New("no bus"))

	reqs := shower.shown()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].HasWindowHandle())
}

func TestNotices_Disabled(t *testing.T) {
	n, shower, _ := newTestNotices(t)
	n.SetEnabled(false)

	n.NotifyConfigReloaded()
	assert.Empty(t, shower.calls)
}

func TestNotices_ShowErrorIsLogged(t *testing.T) {
	n, shower, _ := newTestNotices(t)
	shower.err = errors.New("duplicate")

	assert.NotPanics(t, n.NotifyConfigReloaded)
	assert.Len(t, shower.shown(), 1)
}

func TestLevelStyle(t *testing.T) {
	tests := []struct {
		level   NoticeLevel
		urgency byte
		icon    string
	}{
		{NoticeLevelInfo, model.UrgencyLow, "dialog-information"},
		{NoticeLevelWarning, model.UrgencyNormal, "dialog-warning"},
		{NoticeLevelError, model.UrgencyCritical, "dialog-error"},
	}

	for _, tt := range tests {
		urgency, icon := levelStyle(tt.level)
		assert.Equal(t, tt.urgency, urgency)
		assert.Equal(t, tt.icon, icon)
	}
}
