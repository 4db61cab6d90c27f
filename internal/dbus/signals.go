package dbus

import (
	"fmt"

	"github.com/jmylchreest/traynote/internal/model"
)

// EmitNotificationClosed emits the NotificationClosed signal.
func (s *Service) EmitNotificationClosed(id model.ID, reason model.CloseReason) error {
	conn := s.Connection()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(Path, Interface+".NotificationClosed", uint32(id), uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// EmitActionInvoked emits the ActionInvoked signal.
func (s *Service) EmitActionInvoked(id model.ID, actionKey string) error {
	conn := s.Connection()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(Path, Interface+".ActionInvoked", uint32(id), actionKey); err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}

// NotifyClosed adapts EmitNotificationClosed to a close callback, logging failures.
func (s *Service) NotifyClosed(id model.ID, reason model.CloseReason) {
	if err := s.EmitNotificationClosed(id, reason); err != nil {
		s.logger.Warn("failed to emit NotificationClosed signal", "id", id, "error", err)
	}
}

// NotifyAction adapts EmitActionInvoked to an action callback, logging failures.
func (s *Service) NotifyAction(id model.ID, actionKey string) {
	if err := s.EmitActionInvoked(id, actionKey); err != nil {
		s.logger.Warn("failed to emit ActionInvoked signal", "id", id, "error", err)
	}
}
