// Package notifier routes notification show and close requests to one of two
// backends: a native balloon addressed by a (window handle, application id)
// pair, or a toolkit fallback that is built lazily on first use.
//
// The Notifier tracks which backend owns every outstanding notification so
// that a close request reaches the backend that showed it. Native calls are
// handed to a Dispatcher, which runs them on the UI loop when one is
// registered and inline otherwise.
package notifier
