package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cusdScope/internal/tx"
)

// TxSettings are the transaction options shared by serve and tx.
type TxSettings struct {
	ChainName           string
	ExplorerURL         string
	VaultManagerPackage string
	TxTTL               time.Duration
	// ProxyCaller is the path of the proxy caller session wasm used for
	// payable entry points.
	ProxyCaller string
}

func txDefaults(extra map[string]interface{}) map[string]interface{} {
	defaults := map[string]interface{}{
		"chain-name": "casper",
		"explorer":   tx.DefaultExplorerURL,
		"tx-ttl":     tx.DefaultTTL,
	}
	for k, v := range extra {
		defaults[k] = v
	}
	return defaults
}

func loadTxSettings(v *viper.Viper) TxSettings {
	return TxSettings{
		ChainName:           v.GetString("chain-name"),
		ExplorerURL:         v.GetString("explorer"),
		VaultManagerPackage: v.GetString("vault-manager-package"),
		TxTTL:               v.GetDuration("tx-ttl"),
		ProxyCaller:         v.GetString("proxy-caller"),
	}
}

// Network reads the proxy caller wasm, if configured, and returns the
// transaction network settings.
func (s TxSettings) Network() (tx.Network, error) {
	n := tx.Network{ChainName: s.ChainName, TTL: s.TxTTL}
	if s.ProxyCaller != "" {
		wasm, err := os.ReadFile(s.ProxyCaller)
		if err != nil {
			return tx.Network{}, fmt.Errorf("read proxy caller wasm: %w", err)
		}
		n.ProxyCaller = wasm
	}
	return n, nil
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Node
	TxSettings
	Listen      string
	CORSOrigins []string
	// PGDSN enables the Postgres event archive for account activity.
	PGDSN string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, txDefaults(map[string]interface{}{
		"listen": ":8080",
	}))
	if err != nil {
		return ServeConfig{}, err
	}
	node, err := loadNode(v)
	if err != nil {
		return ServeConfig{}, err
	}
	cfg := ServeConfig{
		Node:        node,
		TxSettings:  loadTxSettings(v),
		Listen:      v.GetString("listen"),
		CORSOrigins: getStringSlice(v, "cors-origins"),
		PGDSN:       v.GetString("pg-dsn"),
	}
	return cfg, nil
}

// TxConfig configures one signed submission from a local secret key.
type TxConfig struct {
	Node
	TxSettings
	SecretKey string
}

// LoadTx merges config file, environment variables, and flags into TxConfig.
func LoadTx(cfgFile string, flags *pflag.FlagSet) (TxConfig, error) {
	v, err := newViper(cfgFile, flags, txDefaults(nil))
	if err != nil {
		return TxConfig{}, err
	}
	node, err := loadNode(v)
	if err != nil {
		return TxConfig{}, err
	}
	cfg := TxConfig{
		Node:       node,
		TxSettings: loadTxSettings(v),
		SecretKey:  v.GetString("secret-key"),
	}
	if cfg.SecretKey == "" {
		return TxConfig{}, fmt.Errorf("secret-key is required")
	}
	return cfg, nil
}

// Storage backends for the event archive.
const (
	StorageJSONL    = "jsonl"
	StoragePostgres = "postgres"
)

// SyncConfig configures the event archiver.
type SyncConfig struct {
	Node
	Storage           string
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	StateName         string
	FromIndex         uint64
	ToIndex           uint64
	BatchSize         uint64
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"storage":            StorageJSONL,
		"out":                "./data/events.jsonl",
		"checkpoint":         "./data/events_checkpoint.json",
		"checkpoint-enabled": true,
		"state-name":         "vault_manager_events",
		"batch-size":         uint64(100),
	})
	if err != nil {
		return SyncConfig{}, err
	}
	node, err := loadNode(v)
	if err != nil {
		return SyncConfig{}, err
	}
	cfg := SyncConfig{
		Node:              node,
		Storage:           strings.ToLower(v.GetString("storage")),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		StateName:         v.GetString("state-name"),
		FromIndex:         v.GetUint64("from"),
		ToIndex:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
	}
	switch cfg.Storage {
	case StorageJSONL:
		if cfg.Out == "" {
			return SyncConfig{}, fmt.Errorf("out path is required for jsonl storage")
		}
	case StoragePostgres:
		if cfg.PGDSN == "" {
			return SyncConfig{}, fmt.Errorf("pg-dsn is required for postgres storage")
		}
	default:
		return SyncConfig{}, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	return cfg, nil
}

// QueryConfig configures the one-shot read commands.
type QueryConfig struct {
	Node
	Scan int
}

// LoadQuery merges config file, environment variables, and flags into QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"scan": 500,
	})
	if err != nil {
		return QueryConfig{}, err
	}
	node, err := loadNode(v)
	if err != nil {
		return QueryConfig{}, err
	}
	return QueryConfig{Node: node, Scan: v.GetInt("scan")}, nil
}
