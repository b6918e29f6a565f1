package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alertengine/internal/clock"
	"alertengine/internal/config"
	"alertengine/internal/domain"
)

const singleModeConfig = `
[service]
name = "alertengine-test"
mode = "single"

[log.console]
enabled = true
level = "error"
format = "json"

[definition.node-down]
tenant_id = "t1"
uei = "uei.node/down"
reduction_key = "%s:%s:%d"

[definition.node-down.condition]
severity = "major"
`

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewServiceSingleModeProcessesEvents(t *testing.T) {
	t.Parallel()

	fakeClock := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	service, err := NewService(config.ConfigSource{File: writeConfigFile(t, singleModeConfig)}, fakeClock)
	if err != nil {
		t.Fatalf("init service: %v", err)
	}
	defer service.cleanupInitResources()

	if service.natsSub != nil {
		t.Fatal("single mode must not build a NATS subscriber")
	}
	if len(service.notifiers) != 0 {
		t.Fatalf("expected no notifiers, got %d", len(service.notifiers))
	}

	alerts, err := service.Processor().Process(context.Background(), domain.Event{
		TenantID: "t1",
		UEI:      "uei.node/down",
		NodeID:   7,
		Severity: domain.SeverityMajor,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected one created alert, got %d", len(alerts))
	}
	if alerts[0].ReductionKey != "t1:uei.node/down:7" {
		t.Fatalf("unexpected reduction key %q", alerts[0].ReductionKey)
	}

	acked, err := service.Lifecycle().Acknowledge(context.Background(), "t1", alerts[0].ID, "oncall")
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if acked == nil || !acked.IsAcknowledged() {
		t.Fatal("expected acknowledged alert from lifecycle wiring")
	}
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	body := `
[service]
mode = "cluster"
`
	_, err := NewService(config.ConfigSource{File: writeConfigFile(t, body)}, clock.RealClock{})
	if err == nil {
		t.Fatal("expected unsupported mode error")
	}
}
