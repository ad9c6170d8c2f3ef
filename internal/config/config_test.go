package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8000" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.Pricing.Mode != "yahoo" || cfg.Pricing.TimeoutSeconds != 5 {
		t.Fatalf("pricing defaults wrong: %+v", cfg.Pricing)
	}
	if cfg.Trading.LotSizes["^NSEI"] != 50 {
		t.Fatalf("lot sizes default wrong: %+v", cfg.Trading.LotSizes)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listen: ":9000"
pricing:
  mode: mock
  mock_price: 42
trading:
  margin_per_lot: 1000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("LEDGER_LISTEN", ":9100")
	t.Setenv("LEDGER_PRICING_TIMEOUT", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9100" {
		t.Fatalf("env override lost: %q", cfg.Listen)
	}
	if cfg.Pricing.Mode != "mock" || cfg.Pricing.MockPrice != 42 {
		t.Fatalf("yaml values lost: %+v", cfg.Pricing)
	}
	if cfg.Pricing.TimeoutSeconds != 3 {
		t.Fatalf("timeout override lost: %d", cfg.Pricing.TimeoutSeconds)
	}
	if cfg.Trading.MarginPerLot != 1000 {
		t.Fatalf("margin lost: %v", cfg.Trading.MarginPerLot)
	}
	// Untouched fields keep defaults.
	if cfg.Trading.DefaultLotSize != 15 {
		t.Fatalf("default lot size lost: %d", cfg.Trading.DefaultLotSize)
	}
}
