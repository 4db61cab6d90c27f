package display

import (
	"log/slog"
	"strings"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/traynote/internal/config"
	"github.com/jmylchreest/traynote/internal/model"
)

// Popup is a single notification window.
type Popup struct {
	window *gtk.Window
	req    *model.Request
	cfg    *config.Config
	logger *slog.Logger

	box       *gtk.Box
	closeBtn  *gtk.Button
	actionBox *gtk.Box

	onClose    func(reason model.CloseReason)
	onAction   func(actionKey string)
	onHover    func(hovering bool)
	onCloseAll func()

	position int
	closed   bool
}

// NewPopup creates a popup for req. It is not shown until Show is called.
func NewPopup(app *gtk.Application, req *model.Request, cfg *config.Config, logger *slog.Logger) *Popup {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Popup{
		req:    req,
		cfg:    cfg,
		logger: logger,
	}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.SetDefaultSize(cfg.Display.Width, -1)
	p.window.SetSizeRequest(cfg.Display.Width, -1)

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, "traynote-notification")

	p.buildUI()
	p.applyThemeClasses()
	p.connectSignals()

	return p
}

func (p *Popup) applyThemeClasses() {
	p.box.AddCSSClass(p.colorSchemeClass())
	p.box.AddCSSClass(urgencyToClass(p.req.Urgency()))

	if p.req.AppName != "" {
		p.box.AddCSSClass("app-" + sanitizeClassName(p.req.AppName))
	}
	if cat := p.req.Category(); cat != "" {
		p.box.AddCSSClass("category-" + sanitizeClassName(cat))
	}
	if p.req.Body != "" {
		p.box.AddCSSClass("has-body")
	}
	if p.req.WantsActions() {
		p.box.AddCSSClass("has-actions")
	}
}

// sanitizeClassName converts a string to a valid CSS class name.
func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

func (p *Popup) buildUI() {
	p.box = gtk.NewBox(gtk.OrientationVertical, 6)
	p.box.AddCSSClass("notification-popup")
	p.box.SetMarginTop(8)
	p.box.SetMarginBottom(8)
	p.box.SetMarginStart(12)
	p.box.SetMarginEnd(12)

	header := gtk.NewBox(gtk.OrientationHorizontal, 8)
	header.AddCSSClass("notification-header")
	header.Append(p.buildIcon())

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)
	if p.req.AppName != "" {
		appName := gtk.NewLabel(p.req.AppName)
		appName.AddCSSClass("notification-appname")
		appName.SetXAlign(0)
		text.Append(appName)
	}

	summary := gtk.NewLabel(p.req.Summary)
	summary.AddCSSClass("notification-summary")
	summary.SetXAlign(0)
	summary.SetEllipsize(3) // PANGO_ELLIPSIZE_END
	summary.SetMaxWidthChars(40)
	text.Append(summary)
	header.Append(text)

	p.closeBtn = gtk.NewButtonFromIconName("window-close-symbolic")
	p.closeBtn.AddCSSClass("notification-close")
	p.closeBtn.SetVisible(false)
	header.Append(p.closeBtn)
	p.box.Append(header)

	if p.req.Body != "" {
		body := gtk.NewLabel("")
		body.AddCSSClass("notification-body")
		body.SetXAlign(0)
		body.SetWrap(true)
		body.SetWrapMode(2) // PANGO_WRAP_WORD_CHAR
		body.SetMaxWidthChars(50)
		if strings.Contains(p.req.Body, "<") {
			body.SetMarkup(p.req.Body)
		} else {
			body.SetText(p.req.Body)
		}
		p.box.Append(body)
	}

	if actions := p.buildActions(); actions != nil {
		p.box.Append(actions)
	}

	p.window.SetChild(p.box)
}

func (p *Popup) buildIcon() gtk.Widgetter {
	icon := gtk.NewImage()
	icon.AddCSSClass("notification-icon")
	icon.SetPixelSize(48)

	name := p.req.IconName()
	switch {
	case name == "":
		icon.SetFromIconName("dialog-information")
	case isIconPath(name):
		icon.SetFromFile(strings.TrimPrefix(name, "file://"))
	default:
		icon.SetFromIconName(name)
	}
	return icon
}

func isIconPath(name string) bool {
	return strings.HasPrefix(name, "/") || strings.HasPrefix(name, "file://")
}

func (p *Popup) buildActions() gtk.Widgetter {
	actions := p.req.ParsedActions()
	if len(actions) == 0 {
		return nil
	}

	p.actionBox = gtk.NewBox(gtk.OrientationHorizontal, 6)
	p.actionBox.AddCSSClass("notification-actions")

	for _, action := range actions {
		if action.Label == "" {
			continue
		}
		actionKey := action.Key
		btn := gtk.NewButtonWithLabel(action.Label)
		btn.AddCSSClass("notification-action")
		btn.ConnectClicked(func() {
			p.invoke(actionKey)
		})
		p.actionBox.Append(btn)
	}

	return p.actionBox
}

// invoke reports actionKey and closes the popup unless it is resident.
func (p *Popup) invoke(actionKey string) {
	if p.onAction != nil {
		p.onAction(actionKey)
	}
	if !p.req.Resident() {
		p.dismiss()
	}
}

// dismiss closes the popup on behalf of the user.
func (p *Popup) dismiss() {
	if p.closed {
		return
	}
	p.Close()
	if p.onClose != nil {
		p.onClose(model.CloseReasonDismissed)
	}
}

func (p *Popup) connectSignals() {
	p.closeBtn.ConnectClicked(p.dismiss)

	motionCtrl := gtk.NewEventControllerMotion()
	motionCtrl.ConnectEnter(func(x, y float64) {
		p.closeBtn.SetVisible(true)
		if p.onHover != nil {
			p.onHover(true)
		}
	})
	motionCtrl.ConnectLeave(func() {
		p.closeBtn.SetVisible(false)
		if p.onHover != nil {
			p.onHover(false)
		}
	})
	p.window.AddController(motionCtrl)

	clickCtrl := gtk.NewGestureClick()
	clickCtrl.SetButton(0) // All buttons
	clickCtrl.ConnectReleased(func(nPress int, x, y float64) {
		p.handleClick(clickCtrl.CurrentButton())
	})
	p.window.AddController(clickCtrl)
}

func (p *Popup) handleClick(button uint) {
	var action string
	switch button {
	case 1:
		action = p.cfg.Mouse.Left
	case 2:
		action = p.cfg.Mouse.Middle
	case 3:
		action = p.cfg.Mouse.Right
	default:
		return
	}

	switch config.MouseAction(action) {
	case config.MouseActionDismiss:
		p.dismiss()
	case config.MouseActionDoAction:
		if key := defaultActionKey(p.req.ParsedActions()); key != "" {
			p.invoke(key)
		}
	case config.MouseActionCloseAll:
		if p.onCloseAll != nil {
			p.onCloseAll()
		} else {
			p.dismiss()
		}
	case config.MouseActionNone:
	}
}

// defaultActionKey returns "default" if present, otherwise the first action's key.
func defaultActionKey(actions []model.Action) string {
	for _, a := range actions {
		if a.Key == "default" {
			return a.Key
		}
	}
	if len(actions) > 0 {
		return actions[0].Key
	}
	return ""
}

// Show displays the popup at the given stack position.
func (p *Popup) Show(position int) {
	p.position = position
	p.updateAnchorPosition()
	p.window.Present()
}

// Close closes the popup window without reporting it.
func (p *Popup) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.window.Close()
}

// UpdatePosition moves the popup to a new stack position.
func (p *Popup) UpdatePosition(position int) {
	if p.position == position {
		return
	}
	p.position = position
	p.updateAnchorPosition()
}

// SetConfig replaces the configuration used for positioning and clicks.
func (p *Popup) SetConfig(cfg *config.Config) {
	p.cfg = cfg
	p.updateAnchorPosition()
}

// stackOffset returns the distance from the anchored edge for the popup at position.
func stackOffset(display config.DisplayConfig, position int) int {
	return display.OffsetY + position*(display.MaxHeight+display.Gap)
}

func (p *Popup) updateAnchorPosition() {
	pos := config.Position(p.cfg.Display.Position)
	offsetX := p.cfg.Display.OffsetX
	offsetY := stackOffset(p.cfg.Display, p.position)

	layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, false)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, false)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, false)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, false)

	switch pos {
	case config.PositionTopRight:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, offsetX)

	case config.PositionTopLeft:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeLeft, offsetX)

	case config.PositionTopCenter:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, offsetY)

	case config.PositionBottomRight:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, offsetX)

	case config.PositionBottomLeft:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeLeft, offsetX)

	case config.PositionBottomCenter:
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, offsetY)
	}
}

// OnClose sets the callback for when the user closes the popup.
func (p *Popup) OnClose(cb func(reason model.CloseReason)) {
	p.onClose = cb
}

// OnAction sets the callback for when an action is invoked.
func (p *Popup) OnAction(cb func(actionKey string)) {
	p.onAction = cb
}

// OnHover sets the callback for hover state changes.
func (p *Popup) OnHover(cb func(hovering bool)) {
	p.onHover = cb
}

// OnCloseAll sets the callback for the close-all mouse action.
func (p *Popup) OnCloseAll(cb func()) {
	p.onCloseAll = cb
}

func urgencyToClass(urgency int) string {
	switch urgency {
	case model.UrgencyLow:
		return "urgency-low"
	case model.UrgencyCritical:
		return "urgency-critical"
	default:
		return "urgency-normal"
	}
}

func (p *Popup) colorSchemeClass() string {
	switch config.ColorScheme(p.cfg.Theme.ColorScheme) {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		if adw.StyleManagerGetDefault().Dark() {
			return "dark"
		}
		return "light"
	}
}
