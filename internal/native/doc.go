// Package native implements the per-tray balloon notification primitive and
// the Tray target that balloons are attached to.
//
// A tray shows at most one balloon at a time. Showing a new balloon for the
// same tray replaces the previous one, and a call with an empty summary, body
// and timeout dismisses it.
//
// Balloons are tracked per tray, not per notification id. Closing any id that
// was shown on a tray dismisses whatever balloon the tray shows at that
// moment: after showing ids 1 and 2 on the same tray, closing 1 dismisses the
// balloon for 2.
//
// On Linux balloons are sent to the session notification service over D-Bus.
// Other platforms use beeep, which has no way to dismiss a balloon.
package native
