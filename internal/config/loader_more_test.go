package config

import (
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "addr": ":8080", "catalog_path": }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "addr=:8080\ncatalog_path\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]Config{
		"unknown store":      {SessionStore: "etcd"},
		"redis without addr": {SessionStore: StoreRedis},
		"bad format":         {LogFormat: "xml"},
		"negative body":      {MaxBodyBytes: -1},
		"bad ttl":            {SessionTTL: "soon"},
		"zero ttl":           {SessionTTL: "0s"},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := (Config{SessionStore: StoreRedis, RedisAddr: "r:6379", LogFormat: "console"}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestLoad_ValidationErrorNamesFile(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "session_store: etcd\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error")
	}
}
