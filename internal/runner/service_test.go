package runner

import (
	"testing"
	"time"
)

func TestNewService_DefaultConfig(t *testing.T) {
	s := NewService(ServiceConfig{})

	if s.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, s.pollInterval)
	}
	if s.pollLimit != defaultPollLimit {
		t.Errorf("expected default poll limit %d, got %d", defaultPollLimit, s.pollLimit)
	}
	if s.logger == nil {
		t.Error("logger should be initialized")
	}
}

func TestNewService_CustomConfig(t *testing.T) {
	s := NewService(ServiceConfig{
		PollInterval: 5 * time.Second,
		PollLimit:    7,
	})

	if s.pollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %v", s.pollInterval)
	}
	if s.pollLimit != 7 {
		t.Errorf("expected poll limit 7, got %d", s.pollLimit)
	}
}

func TestService_IsStopped(t *testing.T) {
	s := NewService(ServiceConfig{})

	if s.IsStopped() {
		t.Error("should not be stopped initially")
	}

	s.stoppedMu.Lock()
	s.stopped = true
	s.stoppedMu.Unlock()

	if !s.IsStopped() {
		t.Error("should be stopped")
	}
}

func TestService_StopWithoutStart(t *testing.T) {
	s := NewService(ServiceConfig{})

	// Stop до Start не должен паниковать: consumer и cancelFunc ещё nil
	s.Stop()

	if !s.IsStopped() {
		t.Error("should be stopped after Stop")
	}
}
