// Package dbus exposes traynoted on the session bus as
// io.github.jmylchreest.Traynote and provides the client used by the
// traynote CLI.
//
// Callers choose notification ids themselves. Show fails with
// io.github.jmylchreest.Traynote.Error.DuplicateID when the id is still
// outstanding; Close on an unknown id succeeds and does nothing.
package dbus
