// Package daemon holds traynoted's own notices about its state, such as
// configuration reloads, shown through the same lifecycle manager as
// caller notifications.
package daemon
