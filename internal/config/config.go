package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/apmwire/internal/codec"
	"github.com/danmuck/apmwire/internal/protocol"
)

const (
	DefaultServerName   = "apm-inspector"
	DefaultServerAddr   = ":9300"
	DefaultMaxBodyBytes = 1 << 20
)

type ServerConfig struct {
	Name         string   `toml:"name"`
	Addr         string   `toml:"addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	// AuthToken guards /v1 routes when set.
	AuthToken string `toml:"auth_token"`
}

// MessageFile describes wire messages in TOML, one [[messages]] table each.
type MessageFile struct {
	Messages []MessageSpec `toml:"messages"`
}

type MessageSpec struct {
	Realm           string     `toml:"realm"`
	Application     string     `toml:"application"`
	ApplicationHash string     `toml:"application_hash"`
	Action          string     `toml:"action"`
	Status          string     `toml:"status"`
	Duration        uint64     `toml:"duration"`
	Parts           []PartSpec `toml:"parts"`
}

type PartSpec struct {
	Name          string `toml:"name"`
	Hits          uint32 `toml:"hits"`
	TotalDuration uint64 `toml:"total_duration"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:         DefaultServerName,
		Addr:         DefaultServerAddr,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	var raw ServerConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := rejectUndecoded(path, meta); err != nil {
		return ServerConfig{}, err
	}
	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("max_body_bytes") {
		cfg.MaxBodyBytes = raw.MaxBodyBytes
	}
	if meta.IsDefined("auth_token") {
		cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("server config max_body_bytes must be positive")
	}
	for i, origin := range cfg.CorsOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("server config cors_origins[%d] is empty", i)
		}
	}
	return nil
}

func LoadMessageFile(path string) (MessageFile, error) {
	var file MessageFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return MessageFile{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := rejectUndecoded(path, meta); err != nil {
		return MessageFile{}, err
	}
	if len(file.Messages) == 0 {
		return MessageFile{}, fmt.Errorf("message file %s defines no messages", path)
	}
	return file, nil
}

// Build validates every message and returns them in file order.
func (f MessageFile) Build() ([]protocol.Message, error) {
	msgs := make([]protocol.Message, 0, len(f.Messages))
	for i, spec := range f.Messages {
		msg, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("messages[%d] invalid: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s MessageSpec) Build() (protocol.Message, error) {
	return s.Record().Message()
}

// Record converts the message table into the codec's record shape.
func (s MessageSpec) Record() codec.Record {
	rec := codec.Record{
		Variant:         protocol.DiscriminantAPMv1.String(),
		Realm:           s.Realm,
		Application:     s.Application,
		ApplicationHash: s.ApplicationHash,
		Action:          s.Action,
		Status:          s.Status,
		Duration:        s.Duration,
		Parts:           make([]codec.PartRecord, 0, len(s.Parts)),
	}
	for _, p := range s.Parts {
		rec.Parts = append(rec.Parts, codec.PartRecord{
			Name:          p.Name,
			Hits:          p.Hits,
			TotalDuration: p.TotalDuration,
		})
	}
	return rec
}

func rejectUndecoded(path string, meta toml.MetaData) error {
	keys := meta.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	return fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(names, ", "))
}
