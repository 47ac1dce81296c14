package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcalabro/streamsketch"
)

// run executes the CLI with a config that logs to a temp file.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "logging:\n  file: " + filepath.Join(dir, "streamsketch.log") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	return out.String(), err
}

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("failed to write lines: %v", err)
	}
	return path
}

func TestBloomCommand(t *testing.T) {
	train := writeLines(t, "apple", "banana", "cherry")

	out, err := run(t, "apple\ncherry\nzzz-not-a-fruit\n", "bloom", "--train", train, "--capacity", "1000", "--rate", "0.01")
	if err != nil {
		t.Fatalf("bloom failed: %v", err)
	}

	for _, want := range []string{
		"apple\tprobably present",
		"cherry\tprobably present",
		"zzz-not-a-fruit\tdefinitely not present",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBloomCommandQueryFile(t *testing.T) {
	train := writeLines(t, "one", "two")
	query := writeLines(t, "two")

	out, err := run(t, "", "bloom", "--train", train, "--query", query)
	if err != nil {
		t.Fatalf("bloom failed: %v", err)
	}
	if strings.TrimSpace(out) != "two\tprobably present" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestBloomCommandInvalidRate(t *testing.T) {
	train := writeLines(t, "x")

	_, err := run(t, "", "bloom", "--train", train, "--rate", "2")
	if !errors.Is(err, streamsketch.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestBloomCommandRequiresTrain(t *testing.T) {
	if _, err := run(t, "", "bloom"); err == nil {
		t.Error("expected an error without --train")
	}
}

func TestBloomCommandRejectsDoubleStdin(t *testing.T) {
	_, err := run(t, "a\nb\n", "bloom", "--train", "-")
	if err == nil || !strings.Contains(err.Error(), "stdin") {
		t.Errorf("expected a stdin conflict error, got %v", err)
	}
}

func TestDistinctCommand(t *testing.T) {
	out, err := run(t, "a\nb\na\nc\nb\n", "distinct", "--hashes", "10", "--groups", "3")
	if err != nil {
		t.Fatalf("distinct failed: %v", err)
	}

	if !strings.Contains(out, "exact\t3\n") {
		t.Errorf("expected exact count 3:\n%s", out)
	}
	for _, want := range []string{"fm1\t", "median-of-means\t", "mean-of-medians\t"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDistinctCommandFile(t *testing.T) {
	path := writeLines(t, "x", "y", "z", "x")

	out, err := run(t, "", "distinct", path)
	if err != nil {
		t.Fatalf("distinct failed: %v", err)
	}
	if !strings.Contains(out, "exact\t3\n") {
		t.Errorf("expected exact count 3:\n%s", out)
	}
}

func TestDistinctCommandInvalidGroups(t *testing.T) {
	_, err := run(t, "a\n", "distinct", "--groups", "0")
	if !errors.Is(err, streamsketch.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "distinct"})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
