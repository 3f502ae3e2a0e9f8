package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanbako/henad/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	if cfg.Assembler.Origin != 0 {
		t.Errorf("origin = %d, want 0", cfg.Assembler.Origin)
	}
	if cfg.Assembler.Format != "bin" {
		t.Errorf("format = %q, want bin", cfg.Assembler.Format)
	}
	if cfg.Compiler.StackWords != 64 {
		t.Errorf("stack_words = %d, want 64", cfg.Compiler.StackWords)
	}
	if !cfg.Compiler.EmitComments {
		t.Error("emit_comments should default to true")
	}
}

func TestLoadFrom_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "nosuch.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Assembler.Format != "bin" {
		t.Errorf("format = %q, want default bin", cfg.Assembler.Format)
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[assembler]
origin = 256
format = "hex"

[compiler]
stack_words = 128
emit_comments = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Assembler.Origin != 256 {
		t.Errorf("origin = %d, want 256", cfg.Assembler.Origin)
	}
	if cfg.Assembler.Format != "hex" {
		t.Errorf("format = %q, want hex", cfg.Assembler.Format)
	}
	if cfg.Compiler.StackWords != 128 {
		t.Errorf("stack_words = %d, want 128", cfg.Compiler.StackWords)
	}
	if cfg.Compiler.EmitComments {
		t.Error("emit_comments should be false")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadFrom(path); err == nil {
		t.Error("invalid TOML must fail to load")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := config.DefaultConfig()
	cfg.Assembler.Format = "hex"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	back, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Assembler.Format != "hex" {
		t.Errorf("format = %q, want hex", back.Assembler.Format)
	}
}
