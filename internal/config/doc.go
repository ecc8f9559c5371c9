// Package config resolves devlog runtime settings.
//
// Sources, lowest to highest precedence:
//
//  1. Built-in defaults (see SetDefaults), rooted at $HOME/.devlog.
//  2. A YAML/JSON/TOML file: --config, or $HOME/.devlog/config.yaml if present.
//  3. DEVLOG_* environment variables (DEVLOG_BACKEND, DEVLOG_REDIS_ADDR, ...).
//  4. Command-line flags that were set explicitly.
//
// Example config.yaml:
//
//	backend: redis
//	redis-addr: 127.0.0.1:6379
//	key: devlog:entries
//	log-level: debug
package config
