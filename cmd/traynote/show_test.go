package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/traynote/internal/model"
)

func TestBuildShowArgs(t *testing.T) {
	opts := showOptions{
		id:       7,
		appName:  "backup",
		icon:     "drive-harddisk",
		image:    "/tmp/a.png",
		actions:  []string{"open=Open", "later"},
		urgency:  "critical",
		category: "transfer.complete",
		expire:   3000,
		resident: true,
	}

	args, err := buildShowArgs(opts, []string{"Backup done", "3 files"})
	require.NoError(t, err)

	assert.Equal(t, model.ID(7), args.ID)
	assert.Equal(t, "backup", args.AppName)
	assert.Equal(t, "drive-harddisk", args.AppIcon)
	assert.Equal(t, "Backup done", args.Summary)
	assert.Equal(t, "3 files", args.Body)
	assert.Equal(t, int32(3000), args.ExpireTimeout)
	assert.Equal(t, []string{"open", "Open"}, args.Actions[:2])
	assert.Equal(t, byte(model.UrgencyCritical), args.Hints["urgency"].Value())
	assert.Equal(t, "transfer.complete", args.Hints["category"].Value())
	assert.Equal(t, "/tmp/a.png", args.Hints["image-path"].Value())
	assert.Equal(t, true, args.Hints["resident"].Value())
}

func TestBuildShowArgs_Minimal(t *testing.T) {
	args, err := buildShowArgs(showOptions{id: 1, expire: -1}, []string{"Hello"})
	require.NoError(t, err)

	assert.Equal(t, "Hello", args.Summary)
	assert.Empty(t, args.Body)
	assert.Empty(t, args.Actions)
	assert.Empty(t, args.Hints)
	assert.Equal(t, int32(-1), args.ExpireTimeout)
}

func TestBuildShowArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts showOptions
		args []string
		want error
	}{
		{name: "empty summary", opts: showOptions{expire: -1}, args: []string{""}, want: model.ErrEmptySummary},
		{name: "timeout below -1", opts: showOptions{expire: -5}, args: []string{"s"}, want: model.ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildShowArgs(tt.opts, tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := buildShowArgs(showOptions{expire: -1, urgency: "urgent"}, []string{"s"})
	assert.Error(t, err)

	_, err = buildShowArgs(showOptions{expire: -1, actions: []string{"=Open"}}, []string{"s"})
	assert.Error(t, err)

	_, err = buildShowArgs(showOptions{id: uint32(model.ReservedIDBase), expire: -1}, []string{"s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}

func TestShowFlags_ExpireAndCallTimeout(t *testing.T) {
	savedOpts, savedTimeout := showOpts, globalOpts.timeout
	t.Cleanup(func() {
		showOpts, globalOpts.timeout = savedOpts, savedTimeout
	})

	require.NoError(t, showCmd.ParseFlags([]string{"--id", "4", "--expire", "3000", "--timeout", "2s"}))

	assert.Equal(t, int32(3000), showOpts.expire)
	assert.Equal(t, 2*time.Second, globalOpts.timeout, "--timeout stays the call timeout")
}

func TestParseActions(t *testing.T) {
	actions, err := parseActions([]string{"default=Open", "snooze", "a=b=c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "Open", "snooze", "snooze", "a", "b=c"}, actions)
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in   string
		want byte
	}{
		{"low", 0},
		{"NORMAL", 1},
		{"critical", 2},
		{"2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseUrgency(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", " 42 "})
	require.NoError(t, err)
	assert.Equal(t, []model.ID{1, 42}, ids)

	_, err = parseIDs([]string{"abc"})
	assert.Error(t, err)

	_, err = parseIDs([]string{"4294967296"})
	assert.Error(t, err)
}

func TestReadIDs(t *testing.T) {
	ids, err := readIDs(strings.NewReader("3\n\n 5\n"))
	require.NoError(t, err)
	assert.Equal(t, []model.ID{3, 5}, ids)
}
