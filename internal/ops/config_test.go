package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"main/internal/schema"
)

const testConfig = `{
  "audit": {
    "path": "testdata/audit/journal.log",
    "keyEnv": "GATE_AUDIT_KEY",
    "queueSize": 256
  },
  "limits": {
    "maxOrderQty": 100,
    "maxOrderNotional": 50000,
    "maxPosition": 500
  },
  "scenarios": [
    {"name": "Black Monday 1987", "equityShock": "-0.22", "volatilityShock": "1.5", "alternativesShock": "-0.05"}
  ],
  "stress": {
    "worstCaseLossFraction": "0.15",
    "notionalScale": 1
  },
  "portfolio": {
    "capital": 1000000,
    "equityExposure": 250000
  },
  "policies": {
    "liveness": {"heartbeatAction": "heartbeat", "maxStale": 30000000000},
    "stability": true
  },
  "orders": [
    {"orderId": 1, "symbol": "ESZ6", "side": 1, "type": 1, "price": 1000, "qty": 10}
  ]
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadResolvesConfig(t *testing.T) {
	t.Setenv("GATE_AUDIT_KEY", "00112233445566778899aabbccddeeff")
	loaded, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Audit.Path != "testdata/audit/journal.log" {
		t.Fatalf("audit path: %q", loaded.Audit.Path)
	}
	if len(loaded.Audit.Key) != 16 || loaded.Audit.Key[0] != 0x00 || loaded.Audit.Key[15] != 0xFF {
		t.Fatalf("audit key not decoded: %x", loaded.Audit.Key)
	}
	if loaded.Audit.QueueSize != 256 {
		t.Fatalf("queue size: %d", loaded.Audit.QueueSize)
	}

	if loaded.Limits.MaxOrderQty != 100 || loaded.Limits.MaxPosition != 500 {
		t.Fatalf("limits: %+v", loaded.Limits)
	}

	if len(loaded.Stress.Scenarios) != 1 {
		t.Fatalf("scenarios: %+v", loaded.Stress.Scenarios)
	}
	sc := loaded.Stress.Scenarios[0]
	if sc.Name != "Black Monday 1987" || sc.EquityShock != -0.22 || sc.VolatilityShock != 1.5 {
		t.Fatalf("scenario values: %+v", sc)
	}
	if loaded.Stress.WorstCaseLossFraction != 0.15 {
		t.Fatalf("loss fraction: %v", loaded.Stress.WorstCaseLossFraction)
	}

	if loaded.Policies.Liveness == nil || loaded.Policies.Liveness.MaxStale != 30*time.Second {
		t.Fatalf("liveness: %+v", loaded.Policies.Liveness)
	}
	if !loaded.Policies.Stability {
		t.Fatal("stability not enabled")
	}

	if len(loaded.Orders) != 1 || loaded.Orders[0].Side != schema.OrderSideBuy {
		t.Fatalf("orders: %+v", loaded.Orders)
	}
}

func TestLoadDefaultsScenarios(t *testing.T) {
	t.Setenv("GATE_AUDIT_KEY", "aa")
	body := `{"audit": {"path": "j.log", "keyEnv": "GATE_AUDIT_KEY"}}`
	loaded, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Stress.Scenarios) == 0 {
		t.Fatal("default scenario catalogue missing")
	}
	if loaded.Audit.QueueSize != defaultQueueSize {
		t.Fatalf("default queue size: %d", loaded.Audit.QueueSize)
	}
}

func TestLoadMissingKeyEnv(t *testing.T) {
	body := `{"audit": {"path": "j.log", "keyEnv": "GATE_AUDIT_KEY_UNSET_FOR_TEST"}}`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for unset key env")
	}
}

func TestLoadRejectsBadOrder(t *testing.T) {
	t.Setenv("GATE_AUDIT_KEY", "aa")
	body := `{
  "audit": {"path": "j.log", "keyEnv": "GATE_AUDIT_KEY"},
  "orders": [{"orderId": 1, "symbol": "", "side": 1, "qty": 10}]
}`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}
