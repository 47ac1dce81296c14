package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcalabro/streamsketch"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bloom.Capacity != 1000 || cfg.Bloom.FalsePositiveRate != 0.01 {
		t.Errorf("unexpected bloom defaults: %+v", cfg.Bloom)
	}
	if cfg.Distinct.Hashes != 64 || cfg.Distinct.Groups != 8 {
		t.Errorf("unexpected distinct defaults: %+v", cfg.Distinct)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
bloom:
  capacity: 5000
distinct:
  groups: 4
hash:
  algorithm: xxh3
  seed: 42
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bloom.Capacity != 5000 {
		t.Errorf("capacity = %d, want 5000", cfg.Bloom.Capacity)
	}
	if cfg.Bloom.FalsePositiveRate != 0.01 {
		t.Errorf("unset rate should keep its default, got %v", cfg.Bloom.FalsePositiveRate)
	}
	if cfg.Distinct.Hashes != 64 || cfg.Distinct.Groups != 4 {
		t.Errorf("unexpected distinct config: %+v", cfg.Distinct)
	}
	if cfg.Hash.Seed == nil || *cfg.Hash.Seed != 42 {
		t.Errorf("seed = %v, want 42", cfg.Hash.Seed)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.MaxBackups != 3 {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}

	h, err := cfg.Hash.Hasher()
	if err != nil || h != streamsketch.XXH3 {
		t.Errorf("Hasher() = %v, %v; want XXH3", h, err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
bloom:
  capacity: 0
  false_positive_rate: 2
distinct:
  hashes: -1
hash:
  algorithm: sha1
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error")
	}

	for _, want := range []string{"bloom.capacity", "bloom.false_positive_rate", "distinct.hashes", "hash.algorithm"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "bloom: [not, a, map")
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestHashOptions(t *testing.T) {
	seed := uint32(7)
	opts, err := HashConfig{Algorithm: "MURMUR3", Seed: &seed}.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if len(opts) != 2 {
		t.Errorf("expected hasher and seed options, got %d", len(opts))
	}

	opts, err = HashConfig{}.Options()
	if err != nil || len(opts) != 1 {
		t.Errorf("empty config: got %d options, err %v", len(opts), err)
	}

	if _, err := (HashConfig{Algorithm: "md5"}).Options(); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
}
