package model

import "time"

// Status describes one outstanding notification as reported by the daemon.
type Status struct {
	ID      ID        `json:"id" yaml:"id"`
	Backend string    `json:"backend" yaml:"backend"`
	ShownAt time.Time `json:"shown_at" yaml:"shown_at"`
	Ref     string    `json:"ref,omitempty" yaml:"ref,omitempty"`
}
