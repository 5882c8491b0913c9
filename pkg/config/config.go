// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config implements the Configuration loader (spec §6, expanded
// §4.12): an on-disk file merged with NPIPES_* environment variables,
// env always winning, producing a Config ready to resolve into a
// running Producer via pkg/producers.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hopline/pkg/logging"
	"hopline/pkg/message"
)

// DefaultConfigPath is the on-disk config file read when --config is
// not given, matching the original's ".npipesrc" default.
const DefaultConfigPath = ".npipesrc"

// NPIPES_* environment variable / config file key names (spec §6).
const (
	KeyCommand          = "NPIPES_command"
	KeyLockCommand      = "NPIPES_lockCommand"
	KeyCommandValidator = "NPIPES_commandValidator"
	KeyProducer         = "NPIPES_producer"
	KeyProducerArgs     = "NPIPES_producerArgs"
	KeySqsOverflowPath  = "NPIPES_SqsOverflowPath"
)

// logLevelEnvVar is deliberately outside the NPIPES_ namespace: logging
// verbosity is an operational concern, not part of the wire-compatible
// configuration contract (SPEC_FULL.md §3).
const logLevelEnvVar = "HOPLINE_LOG_LEVEL"

var npipesKeys = []string{
	KeyCommand, KeyLockCommand, KeyCommandValidator,
	KeyProducer, KeyProducerArgs, KeySqsOverflowPath,
}

// Config is the process-wide Configuration (spec §3): the default
// Command, whether it always wins over a Step's own Command, the
// producer to run and its constructor arguments, and the process id.
type Config struct {
	Command          message.Command
	LockCommand      bool
	CommandValidator string
	ProducerName     string
	ProducerArgs     map[string]any
	SqsOverflowPath  string
	PID              int

	// ConfigPath and LogLevel are expansion fields describing how this
	// Config was produced; neither is part of the NPIPES_* contract.
	ConfigPath string
	LogLevel   logging.Level
}

// Default returns the zero-state Config. LockCommand defaults to true,
// matching the original dataclass's default — the built-in Command wins
// unless a config source explicitly opts a Step's own Command back in.
func Default() Config {
	return Config{
		Command:     message.DefaultCommand(),
		LockCommand: true,
		PID:         os.Getpid(),
		ConfigPath:  DefaultConfigPath,
		LogLevel:    logging.LevelInfo,
	}
}

// Load reads path (JSON, or YAML when its extension is .yml/.yaml),
// tolerating a missing file, merges in any NPIPES_* environment
// variables (env wins per spec.md §6), and decodes the result into a
// Config. Logging verbosity comes from HOPLINE_LOG_LEVEL, outside the
// merge entirely.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()
	cfg.ConfigPath = path

	fileValues, err := loadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	merged := mergeEnv(fileValues)

	if v, ok := merged[KeyCommand]; ok {
		cmd, err := decodeCommand(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", KeyCommand, err)
		}
		cfg.Command = cmd
	}
	if v, ok := merged[KeyLockCommand]; ok {
		cfg.LockCommand = decodeBool(v, cfg.LockCommand)
	}
	if v, ok := merged[KeyCommandValidator]; ok {
		cfg.CommandValidator = fmt.Sprint(v)
	}
	if v, ok := merged[KeyProducer]; ok {
		cfg.ProducerName = fmt.Sprint(v)
	}
	if v, ok := merged[KeyProducerArgs]; ok {
		args, err := decodeMap(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", KeyProducerArgs, err)
		}
		cfg.ProducerArgs = args
	} else {
		cfg.ProducerArgs = map[string]any{}
	}
	if v, ok := merged[KeySqsOverflowPath]; ok {
		cfg.SqsOverflowPath = fmt.Sprint(v)
	}

	cfg.LogLevel = logging.ParseLevel(os.Getenv(logLevelEnvVar))
	return cfg, nil
}

// loadFile returns path's contents as a flat NPIPES_* key map, or an
// empty map if path does not exist — matching the original's
// getFileConfig, which silently treats a missing file as "no overrides".
func loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var values map[string]any
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yml" || ext == ".yaml" {
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parsing %s as yaml: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parsing %s as json: %w", path, err)
		}
	}
	return values, nil
}

// mergeEnv copies fileValues and overlays any NPIPES_* variables present
// in the process environment, which always win on conflict.
func mergeEnv(fileValues map[string]any) map[string]any {
	merged := make(map[string]any, len(fileValues)+len(npipesKeys))
	for k, v := range fileValues {
		merged[k] = v
	}
	for _, k := range npipesKeys {
		if v, ok := os.LookupEnv(k); ok {
			merged[k] = v
		}
	}
	return merged
}

// decodeMap accepts either a plain JSON/YAML object (from the config
// file) or a base64-encoded JSON object (from an environment variable,
// per spec.md §6's "base64-encoded JSON mapping").
func decodeMap(v any) (map[string]any, error) {
	switch val := v.(type) {
	case map[string]any:
		return val, nil
	case string:
		raw, err := base64.StdEncoding.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("decoding base64: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		return m, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// decodeCommand accepts either a plain object or a base64-encoded JSON
// object representing a Command's ToDict output, same as decodeMap.
func decodeCommand(v any) (message.Command, error) {
	m, err := decodeMap(v)
	if err != nil {
		return message.Command{}, err
	}
	return message.CommandFromDict(m), nil
}

// decodeBool accepts a native bool (config file) or a "true"/"false"
// string (environment variable), defaulting to def otherwise.
func decodeBool(v any, def bool) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	default:
		return def
	}
}
