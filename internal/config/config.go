// Package config handles traynoted configuration loading, validation and
// hot reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvForceFallback forces every notification onto the fallback display when
// set to a true value ("1", "true", ...). It overrides [backend] force_fallback.
const EnvForceFallback = "TRAYNOTE_FORCE_FALLBACK"

// Config is the configuration for traynoted.
// Loaded from ~/.config/traynote/traynoted.toml
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Tray     TrayConfig     `toml:"tray"`
	Display  DisplayConfig  `toml:"display"`
	Timeouts TimeoutConfig  `toml:"timeouts"`
	Behavior BehaviorConfig `toml:"behavior"`
	Theme    ThemeConfig    `toml:"theme"`
	Mouse    MouseConfig    `toml:"mouse"`
}

// BackendConfig controls backend selection.
type BackendConfig struct {
	ForceFallback bool `toml:"force_fallback"` // Never use tray balloons
}

// TrayConfig controls the tray target balloons are attached to.
type TrayConfig struct {
	Enabled bool   `toml:"enabled"` // false routes everything to the fallback display
	AppID   uint32 `toml:"app_id"`  // Application id reported with each balloon
	AppName string `toml:"app_name"`
}

// DisplayConfig contains fallback popup settings.
type DisplayConfig struct {
	Position   string `toml:"position"`    // "top-right", "top-left", etc.
	OffsetX    int    `toml:"offset_x"`    // Pixels from screen edge
	OffsetY    int    `toml:"offset_y"`    // Pixels from screen edge
	Width      int    `toml:"width"`       // Popup width in pixels
	MaxHeight  int    `toml:"max_height"`  // Maximum popup height
	MaxVisible int    `toml:"max_visible"` // Maximum simultaneous popups
	Gap        int    `toml:"gap"`         // Gap between stacked popups
}

// TimeoutConfig contains the popup timeouts used when a caller asks for the
// server default (expire_timeout -1). A value of "0" or 0 means never expire.
type TimeoutConfig struct {
	Low      Duration `toml:"low"`
	Normal   Duration `toml:"normal"`
	Critical Duration `toml:"critical"`
}

// BehaviorConfig contains popup behavior settings.
type BehaviorConfig struct {
	PauseOnHover bool `toml:"pause_on_hover"` // Pause timeout when mouse hovers
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// MouseConfig contains mouse button action mappings.
type MouseConfig struct {
	Left   string `toml:"left"`   // "dismiss", "do-action", "close-all", "none"
	Middle string `toml:"middle"` // "dismiss", "do-action", "close-all", "none"
	Right  string `toml:"right"`  // "dismiss", "do-action", "close-all", "none"
}

// MouseAction represents a mouse button action.
type MouseAction string

const (
	MouseActionDismiss  MouseAction = "dismiss"
	MouseActionDoAction MouseAction = "do-action"
	MouseActionCloseAll MouseAction = "close-all"
	MouseActionNone     MouseAction = "none"
)

// ValidMouseActions returns all valid mouse action values.
func ValidMouseActions() []MouseAction {
	return []MouseAction{MouseActionDismiss, MouseActionDoAction, MouseActionCloseAll, MouseActionNone}
}

// Position represents a popup position on screen.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionTopCenter,
		PositionBottomLeft,
		PositionBottomRight,
		PositionBottomCenter,
	}
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			ForceFallback: false,
		},
		Tray: TrayConfig{
			Enabled: true,
			AppID:   0,
			AppName: "traynote",
		},
		Display: DisplayConfig{
			Position:   string(PositionTopRight),
			OffsetX:    10,
			OffsetY:    10,
			Width:      350,
			MaxHeight:  200,
			MaxVisible: 5,
			Gap:        5,
		},
		Timeouts: TimeoutConfig{
			Low:      Duration(5 * time.Second),
			Normal:   Duration(10 * time.Second),
			Critical: Duration(0),
		},
		Behavior: BehaviorConfig{
			PauseOnHover: true,
		},
		Theme: ThemeConfig{
			ColorScheme: string(ColorSchemeSystem),
		},
		Mouse: MouseConfig{
			Left:   string(MouseActionDismiss),
			Middle: string(MouseActionDoAction),
			Right:  string(MouseActionCloseAll),
		},
	}
}

// Path returns the path to the daemon config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "traynote", "traynoted.toml")
}

// Load reads the configuration from path, overlaying it on the defaults.
// If path is empty the default path is used. A missing file yields the
// defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path atomically.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// WriteDefault writes the default configuration to path. An existing file is
// left alone and reported as an error wrapping os.ErrExist.
func WriteDefault(path string) error {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s: %w", path, os.ErrExist)
	}
	return Default().Save(path)
}

// ApplyEnv applies environment overrides using lookup (usually os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	value, ok := lookup(EnvForceFallback)
	if !ok || value == "" {
		return nil
	}

	force, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", EnvForceFallback, value, err)
	}
	c.Backend.ForceFallback = force
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(ValidPositions(), Position(c.Display.Position)) {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Display.Position, ValidPositions())
	}

	if c.Display.Width < 100 || c.Display.Width > 1000 {
		return fmt.Errorf("width must be between 100 and 1000, got %d", c.Display.Width)
	}
	if c.Display.MaxVisible < 1 || c.Display.MaxVisible > 20 {
		return fmt.Errorf("max_visible must be between 1 and 20, got %d", c.Display.MaxVisible)
	}
	if c.Display.Gap < 0 {
		return fmt.Errorf("gap must not be negative, got %d", c.Display.Gap)
	}

	for name, d := range map[string]Duration{"low": c.Timeouts.Low, "normal": c.Timeouts.Normal, "critical": c.Timeouts.Critical} {
		if d < 0 {
			return fmt.Errorf("timeout %s must not be negative, got %s", name, d.Duration())
		}
	}

	if !slices.Contains(ValidColorSchemes(), ColorScheme(c.Theme.ColorScheme)) {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	for _, action := range []string{c.Mouse.Left, c.Mouse.Middle, c.Mouse.Right} {
		if !slices.Contains(ValidMouseActions(), MouseAction(action)) {
			return fmt.Errorf("invalid mouse action %q", action)
		}
	}

	return nil
}

// TimeoutForUrgency returns the default timeout in milliseconds for the given urgency level.
func (c *Config) TimeoutForUrgency(urgency int) int {
	switch urgency {
	case 0: // Low
		return c.Timeouts.Low.Milliseconds()
	case 2: // Critical
		return c.Timeouts.Critical.Milliseconds()
	default:
		return c.Timeouts.Normal.Milliseconds()
	}
}

// ResolveTimeout returns the popup timeout in milliseconds for a request's
// expire_timeout. Negative values select the urgency default and 0 never
// expires.
func (c *Config) ResolveTimeout(expireTimeout int32, urgency int) int {
	if expireTimeout < 0 {
		return c.TimeoutForUrgency(urgency)
	}
	return int(expireTimeout)
}
