// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDir_EnvVar(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	want := "/custom/config/authcore"
	if got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestConfigDir_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	want := "/home/testuser/.config/authcore"
	if got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestConfigDir_NoHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	if _, err := ConfigDir(); err == nil {
		t.Fatal("ConfigDir() expected error without HOME")
	}
}

func TestDefaultConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	got, err := DefaultConfigFile()
	if err != nil {
		t.Fatalf("DefaultConfigFile() error = %v", err)
	}
	if got != "" {
		t.Errorf("DefaultConfigFile() = %q, want empty when the file is absent", got)
	}

	dir := filepath.Join(base, "authcore")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(want, []byte("store: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err = DefaultConfigFile()
	if err != nil {
		t.Fatalf("DefaultConfigFile() error = %v", err)
	}
	if got != want {
		t.Errorf("DefaultConfigFile() = %q, want %q", got, want)
	}
}
