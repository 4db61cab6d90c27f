package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// Notifier is the lifecycle manager the service forwards calls to.
type Notifier interface {
	Show(req *model.Request) error
	Close(id model.ID) notifier.Owner
	Outstanding() []notifier.Entry
}

// Service implements the io.github.jmylchreest.Traynote D-Bus interface.
type Service struct {
	conn     *dbus.Conn
	logger   *slog.Logger
	notifier Notifier

	mu      sync.RWMutex
	target  func() model.Target
	info    ServerInfo
	running bool
}

// NewService creates a service forwarding to n.
func NewService(n Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		notifier: n,
		info:     DefaultServerInfo(),
	}
}

// SetTarget sets the function that supplies the target for each request.
// A nil function, or one returning nil, leaves requests without a target.
func (s *Service) SetTarget(target func() model.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
}

// SetServerInfo sets the information returned by GetServerInformation.
func (s *Service) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// Start connects to the session bus, exports the service and claims BusName.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: serviceMethods(),
				Signals: serviceSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus service started", "name", BusName, "path", Path)
	return nil
}

// Stop releases the bus name.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// The session bus connection is shared; leave it open.
	}

	s.logger.Info("D-Bus service stopped")
	return nil
}

// Connection returns the session bus connection, or nil before Start.
func (s *Service) Connection() *dbus.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// GetCapabilities returns the capabilities of the service.
// D-Bus method: GetCapabilities() -> as
func (s *Service) GetCapabilities() ([]string, *dbus.Error) {
	return Capabilities, nil
}

// GetServerInformation returns the server name, vendor and version.
// D-Bus method: GetServerInformation() -> (sss)
func (s *Service) GetServerInformation() (string, string, string, *dbus.Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Name, s.info.Vendor, s.info.Version, nil
}

// Show displays a notification under the caller-chosen id.
// D-Bus method: Show(ussssasa{sv}i) -> ()
func (s *Service) Show(
	id uint32,
	appName string,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) *dbus.Error {
	req := s.newRequest(ShowArgs{
		ID:            model.ID(id),
		AppName:       appName,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	})

	s.logger.Debug("Show called",
		"id", id,
		"ref", req.Ref,
		"app_name", appName,
		"summary", summary,
		"has_target", req.Target != nil,
	)

	if err := req.Validate(); err != nil {
		return dbus.NewError(ErrorInvalidArgs, []any{err.Error()})
	}
	if req.ID.Reserved() {
		return dbus.NewError(ErrorInvalidArgs,
			[]any{fmt.Sprintf("notification id %d is reserved (ids from %d are kept for the daemon)", id, model.ReservedIDBase)})
	}

	if err := s.notifier.Show(req); err != nil {
		if errors.Is(err, notifier.ErrDuplicateID) {
			return dbus.NewError(ErrorDuplicateID, []any{err.Error()})
		}
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (s *Service) newRequest(args ShowArgs) *model.Request {
	ref, err := model.NewRef()
	if err != nil {
		s.logger.Warn("failed to generate request ref", "error", err)
	}

	s.mu.RLock()
	targetFn := s.target
	s.mu.RUnlock()

	var target model.Target
	if targetFn != nil {
		target = targetFn()
	}

	return &model.Request{
		ID:            args.ID,
		AppName:       args.AppName,
		AppIcon:       args.AppIcon,
		Summary:       args.Summary,
		Body:          args.Body,
		Actions:       args.Actions,
		Hints:         args.Hints,
		ExpireTimeout: args.ExpireTimeout,
		Ref:           ref,
		Target:        target,
	}
}

// Close closes the notification with id. Unknown ids are ignored.
// D-Bus method: Close(u) -> ()
func (s *Service) Close(id uint32) *dbus.Error {
	s.logger.Debug("Close called", "id", id)

	nid := model.ID(id)
	owner := s.notifier.Close(nid)

	// The popup manager reports its own closures.
	if owner.Kind == notifier.OwnerNative {
		if err := s.EmitNotificationClosed(nid, model.CloseReasonClosed); err != nil {
			s.logger.Warn("failed to emit NotificationClosed signal", "id", id, "error", err)
		}
	}
	return nil
}

// Status lists outstanding notifications.
// D-Bus method: Status() -> a(usts)
func (s *Service) Status() ([]statusRecord, *dbus.Error) {
	entries := s.notifier.Outstanding()
	records := make([]statusRecord, 0, len(entries))
	for _, e := range entries {
		var shownAt uint64
		if unix := e.ShownAt.Unix(); unix > 0 {
			shownAt = uint64(unix)
		}
		records = append(records, statusRecord{
			ID:      uint32(e.ID),
			Backend: e.Owner.Kind.String(),
			ShownAt: shownAt,
			Ref:     e.Ref,
		})
	}
	return records, nil
}

func serviceMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Show",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "Close",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "notifications", Type: "a(usts)", Direction: "out"},
			},
		},
	}
}

func serviceSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
