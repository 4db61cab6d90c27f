// Package display is the fallback notification backend: GTK4/libadwaita
// popup windows positioned with Wayland layer-shell.
//
// The backend is built lazily through a Factory the first time a
// notification cannot be shown as a tray balloon. All widget work runs on
// the GTK main loop; ShowNotify and CloseNotify only schedule it.
package display
