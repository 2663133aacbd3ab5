package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cusdScope/internal/cache"
	"cusdScope/internal/state"
)

const envPrefix = "CUSD"

// Node holds the settings every command shares: where the node is, which
// contracts to read and how their storage is laid out.
type Node struct {
	NodeURL     string
	Layout      state.Layout
	CachePolicy cache.Policy
	Concurrency int
	Timeout     time.Duration
	LogLevel    string
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("node", "https://node.mainnet.casper.network/rpc")
	v.SetDefault("concurrency", 8)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("log-level", "info")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadNode(v *viper.Viper) (Node, error) {
	layout := state.Layout{
		Contracts: state.Contracts{
			VaultManager: v.GetString("vault-manager"),
			Token:        v.GetString("token"),
			Oracle:       v.GetString("oracle"),
			Governance:   v.GetString("governance"),
			Liquidation:  v.GetString("liquidation"),
		},
		Fields: state.DefaultFields(),
	}
	if err := v.UnmarshalKey("fields", &layout.Fields); err != nil {
		return Node{}, fmt.Errorf("parse fields: %w", err)
	}
	policy, err := cachePolicy(getStringMap(v, "cache-ttl"))
	if err != nil {
		return Node{}, err
	}

	node := Node{
		NodeURL:     v.GetString("node"),
		Layout:      layout,
		CachePolicy: policy,
		Concurrency: v.GetInt("concurrency"),
		Timeout:     v.GetDuration("timeout"),
		LogLevel:    v.GetString("log-level"),
	}
	if node.NodeURL == "" {
		return Node{}, fmt.Errorf("node url is required")
	}
	return node, nil
}

// RequireContracts reports the first missing contract hash among names.
func (n Node) RequireContracts(names ...string) error {
	c := n.Layout.Contracts
	known := map[string]string{
		"vault-manager": c.VaultManager,
		"token":         c.Token,
		"oracle":        c.Oracle,
		"governance":    c.Governance,
		"liquidation":   c.Liquidation,
	}
	for _, name := range names {
		if known[name] == "" {
			return fmt.Errorf("%s contract hash is required", name)
		}
	}
	return nil
}

// cachePolicy overlays TTL overrides on the default policy. A key with a
// ':' or a fixed key name overrides that key, anything else a kind;
// "default" sets the fallback.
func cachePolicy(overrides map[string]string) (cache.Policy, error) {
	p := cache.DefaultPolicy()
	for key, raw := range overrides {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cache.Policy{}, fmt.Errorf("cache ttl %s: %w", key, err)
		}
		switch {
		case key == "default":
			p.Default = d
		case strings.Contains(key, ":") || key == cache.KeyStateRoot:
			p.Keys[key] = d
		default:
			p.Kinds[key] = d
		}
	}
	return p, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	for _, pair := range strings.Split(input, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
