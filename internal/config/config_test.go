package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/apmwire/internal/protocol"
	"github.com/danmuck/apmwire/internal/testutil/testlog"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadServerConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "server.toml", `addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:5173"]
auth_token = " tok "
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != DefaultServerName {
		t.Fatalf("unexpected name %q", cfg.Name)
	}
	if cfg.Addr != "127.0.0.1:9400" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("unexpected max body %d", cfg.MaxBodyBytes)
	}
	if cfg.AuthToken != "tok" {
		t.Fatalf("unexpected auth token %q", cfg.AuthToken)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins %v", cfg.CorsOrigins)
	}
}

func TestLoadServerConfigRejects(t *testing.T) {
	cases := map[string]string{
		"empty addr":   `addr = ""`,
		"zero body":    `max_body_bytes = 0`,
		"unknown key":  `listen = ":1"`,
		"blank origin": `cors_origins = [" "]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadServerConfig(writeFile(t, "server.toml", body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestTemplatesLoad(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "server.toml")
	messagesPath := filepath.Join(dir, "messages.toml")
	if err := WriteTemplate(serverPath, "server", false); err != nil {
		t.Fatalf("write server template: %v", err)
	}
	if err := WriteTemplate(messagesPath, "messages", false); err != nil {
		t.Fatalf("write messages template: %v", err)
	}
	if err := WriteTemplate(serverPath, "server", false); err == nil {
		t.Fatalf("expected existing file to be kept")
	}
	if err := WriteTemplate(serverPath, "server", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}

	if _, err := LoadServerConfig(serverPath); err != nil {
		t.Fatalf("server template invalid: %v", err)
	}
	file, err := LoadMessageFile(messagesPath)
	if err != nil {
		t.Fatalf("messages template invalid: %v", err)
	}
	msgs, err := file.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	first := msgs[0].(protocol.APMv1)
	if first.Action.String() != "POST.cart.submit" || len(first.Parts) != 2 || first.Parts[1].Hits != 11 {
		t.Fatalf("unexpected first message %+v", first)
	}
	if len(msgs[1].(protocol.APMv1).Parts) != 0 {
		t.Fatalf("expected no parts on second message")
	}
}

func TestMessageFileBuildErrorsNameTheMessage(t *testing.T) {
	path := writeFile(t, "messages.toml", `[[messages]]
realm = "eu"
application = "shop"
application_hash = "ab"
action = "GET.index"
status = "200"

[[messages]]
realm = "eu"
application = "shop"
application_hash = "ab"
action = "GET index"
status = "200"
`)
	file, err := LoadMessageFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = file.Build()
	if !errors.Is(err, protocol.ErrDisallowedCharacter) {
		t.Fatalf("expected ErrDisallowedCharacter, got %v", err)
	}
	if !strings.Contains(err.Error(), "messages[1]") || !strings.Contains(err.Error(), "action") {
		t.Fatalf("expected message index and field in %q", err.Error())
	}
}

func TestLoadMessageFileRejects(t *testing.T) {
	if _, err := LoadMessageFile(writeFile(t, "empty.toml", "")); err == nil {
		t.Fatalf("expected empty file rejected")
	}
	if _, err := LoadMessageFile(writeFile(t, "typo.toml", "[[messages]]\nrealmm = \"eu\"\n")); err == nil {
		t.Fatalf("expected unknown key rejected")
	}
}
