package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"cusdScope/internal/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServeFromFile(t *testing.T) {
	path := writeConfig(t, `
node: http://localhost:7777/rpc
vault-manager: hash-11
token: hash-22
listen: ":9000"
pg-dsn: postgres://localhost/cusd
cors-origins: https://shop.example, https://pay.example
fields:
  balances: 5
cache-ttl:
  price:latest: 1s
  event: 30m
  default: 20s
`)
	cfg, err := LoadServe(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NodeURL != "http://localhost:7777/rpc" || cfg.Listen != ":9000" || cfg.PGDSN != "postgres://localhost/cusd" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Layout.Contracts.VaultManager != "hash-11" || cfg.Layout.Contracts.Token != "hash-22" {
		t.Fatalf("unexpected contracts: %+v", cfg.Layout.Contracts)
	}
	if cfg.Layout.Fields.Balances != 5 || cfg.Layout.Fields.TotalSupply != 6 {
		t.Fatalf("unexpected fields: %+v", cfg.Layout.Fields)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://pay.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
	if got := cfg.CachePolicy.TTL(cache.KeyPrice); got != time.Second {
		t.Fatalf("price ttl = %s", got)
	}
	if got := cfg.CachePolicy.TTL(cache.Key(cache.KindEvent, "3")); got != 30*time.Minute {
		t.Fatalf("event ttl = %s", got)
	}
	if got := cfg.CachePolicy.TTL(cache.KeySystem); got != 20*time.Second {
		t.Fatalf("default ttl = %s", got)
	}
	if cfg.ChainName != "casper" || cfg.TxTTL != 30*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.RequireContracts("vault-manager", "token"); err != nil {
		t.Fatalf("require: %v", err)
	}
	if err := cfg.RequireContracts("oracle"); err == nil {
		t.Fatalf("expected missing oracle")
	}
}

func TestLoadSyncFlags(t *testing.T) {
	flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	flags.String("storage", "", "")
	flags.Uint64("from", 0, "")
	if err := flags.Parse([]string{"--storage=postgres", "--from=12"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Setenv("CUSD_PG_DSN", "postgres://localhost/cusd")

	cfg, err := LoadSync(writeConfig(t, "vault-manager: hash-11\n"), flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != StoragePostgres || cfg.PGDSN != "postgres://localhost/cusd" || cfg.FromIndex != 12 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.BatchSize != 100 {
		t.Fatalf("batch size = %d", cfg.BatchSize)
	}
}

func TestLoadSyncRejectsUnknownStorage(t *testing.T) {
	t.Setenv("CUSD_STORAGE", "redis")
	if _, err := LoadSync(writeConfig(t, "vault-manager: hash-11\n"), nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCachePolicyInvalidDuration(t *testing.T) {
	if _, err := cachePolicy(map[string]string{"price:latest": "soon"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadTxNetwork(t *testing.T) {
	dir := t.TempDir()
	wasm := filepath.Join(dir, "proxy_caller.wasm")
	if err := os.WriteFile(wasm, []byte{0x00, 0x61, 0x73, 0x6d}, 0o644); err != nil {
		t.Fatalf("write wasm: %v", err)
	}
	flags := pflag.NewFlagSet("tx", pflag.ContinueOnError)
	flags.String("secret-key", "", "")
	flags.String("proxy-caller", "", "")
	if err := flags.Parse([]string{"--secret-key=/keys/secret_key.pem", "--proxy-caller=" + wasm}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := LoadTx(writeConfig(t, "vault-manager: hash-11\nchain-name: casper-test\ntx-ttl: 1h\n"), flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SecretKey != "/keys/secret_key.pem" || cfg.ExplorerURL != "https://cspr.live" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	network, err := cfg.Network()
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	if network.ChainName != "casper-test" || network.TTL != time.Hour || len(network.ProxyCaller) != 4 {
		t.Fatalf("unexpected network: %+v", network)
	}

	cfg.ProxyCaller = filepath.Join(dir, "missing.wasm")
	if _, err := cfg.Network(); err == nil {
		t.Fatalf("expected missing wasm error")
	}
}

func TestLoadTxRequiresKey(t *testing.T) {
	if _, err := LoadTx(writeConfig(t, "vault-manager: hash-11\n"), nil); err == nil {
		t.Fatalf("expected error")
	}
}
