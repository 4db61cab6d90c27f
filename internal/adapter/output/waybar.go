package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/traynote/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// WaybarFormatter summarises statuses as a single Waybar JSON object.
type WaybarFormatter struct{}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter() *WaybarFormatter {
	return &WaybarFormatter{}
}

// Format writes one Waybar status line.
func (f *WaybarFormatter) Format(w io.Writer, statuses []model.Status) error {
	return json.NewEncoder(w).Encode(waybarStatus(statuses))
}

func waybarStatus(statuses []model.Status) WaybarStatus {
	if len(statuses) == 0 {
		return WaybarStatus{
			Text:  "",
			Alt:   "empty",
			Class: "empty",
		}
	}

	counts := make(map[string]int)
	for _, s := range statuses {
		counts[s.Backend]++
	}

	var lines []string
	for _, backend := range []string{"native", "fallback"} {
		if n := counts[backend]; n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d", backend, n))
		}
	}

	return WaybarStatus{
		Text:       fmt.Sprintf("%d", len(statuses)),
		Alt:        "active",
		Tooltip:    fmt.Sprintf("%d outstanding\n%s", len(statuses), strings.Join(lines, "\n")),
		Class:      "active",
		Percentage: min(len(statuses), 100),
	}
}
