package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "messages":
		return messagesTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "apm-inspector"
addr = ":9300"
cors_origins = ["http://localhost:3000"]
max_body_bytes = 1048576
# auth_token = "change-me"
`

const messagesTemplate = `[[messages]]
realm = "eu-west"
application = "checkout"
application_hash = "9f86d081"
action = "POST.cart.submit"
status = "200"
duration = 48211

[[messages.parts]]
name = "db.query"
hits = 4
total_duration = 30120

[[messages.parts]]
name = "cache.get"
hits = 11
total_duration = 812

[[messages]]
realm = "eu-west"
application = "checkout"
application_hash = "9f86d081"
action = "GET.health"
status = "200"
duration = 95
`
