package display

import (
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

const popupCSS = `
.notification-popup {
  padding: 4px;
  border-radius: 10px;
}
.notification-popup.dark {
  background-color: #2e2e32;
  color: #ffffff;
}
.notification-popup.light {
  background-color: #fafafb;
  color: #1e1e1e;
}
.notification-popup.urgency-critical {
  border: 2px solid #e01b24;
}
.notification-summary {
  font-weight: bold;
}
.notification-appname {
  font-size: smaller;
  opacity: 0.7;
}
.notification-body {
  opacity: 0.9;
}
`

// applyStyle installs the popup stylesheet on display.
func applyStyle(display *gdk.Display) {
	provider := gtk.NewCSSProvider()
	provider.LoadFromString(popupCSS)
	gtk.StyleContextAddProviderForDisplay(
		display,
		provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
}
