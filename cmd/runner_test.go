package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/bgmx/internal/shared"
	tu "github.com/desertthunder/bgmx/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("With All Dependencies Provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			transport := &tu.RecordingTransport{}

			runner := NewRunner(RunnerOpts{
				Config:    config,
				Logger:    logger,
				Output:    output,
				Transport: transport,
				Now:       fixedNow,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.transport != transport {
				t.Error("expected transport to be set")
			}
			if !runner.now().Equal(fixedNow()) {
				t.Error("expected clock to be set")
			}
		})

		t.Run("With Nil Config Uses Defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.now == nil {
				t.Error("expected default clock to be set")
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("Missing File Falls Back to Runner Config", func(t *testing.T) {
			t.Setenv(shared.EnvUsername, "sai")
			base := shared.DefaultConfig()
			base.Sync.MaxPages = 3

			runner := NewRunner(RunnerOpts{Config: base, Output: &bytes.Buffer{}})
			config, err := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if config.Sync.MaxPages != 3 {
				t.Errorf("expected runner config, got max_pages %d", config.Sync.MaxPages)
			}
			if config.Credentials.Username != "sai" {
				t.Errorf("expected username from environment, got %q", config.Credentials.Username)
			}
			if base.Credentials.Username != "" {
				t.Error("expected runner config to be left untouched")
			}
		})

		t.Run("File Values Are Loaded", func(t *testing.T) {
			t.Setenv(shared.EnvUsername, "")
			path := writeConfig(t, "[credentials]\nusername = \"from-file\"\n")

			config, err := NewRunner(RunnerOpts{}).loadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Credentials.Username != "from-file" {
				t.Errorf("expected username from file, got %q", config.Credentials.Username)
			}
		})

		t.Run("Invalid File Is an Error", func(t *testing.T) {
			path := writeConfig(t, "[bangumi\n")

			if _, err := NewRunner(RunnerOpts{}).loadConfig(path); err == nil {
				t.Error("expected parse error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := runner.writePlain("hello %s", "world"); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"updated": 2}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "{\n  \"updated\": 2\n}\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Debug Flag", func(t *testing.T) {
		path := writeConfig(t, "[database]\npath = \"\"\n")

		for _, tt := range []struct {
			args []string
			want bool
		}{
			{[]string{"bgmx", "-c", path, "setup", "database"}, false},
			{[]string{"bgmx", "--debug", "-c", path, "setup", "database"}, true},
		} {
			logs := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(logs)})

			runner.app().Run(t.Context(), tt.args)
			if got := bytes.Contains(logs.Bytes(), []byte("loaded config")); got != tt.want {
				t.Errorf("%v: expected debug output %v, got %v in %q", tt.args, tt.want, got, logs.String())
			}
		}
	})

	t.Run("SetupConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

		if err := runner.app().Run(t.Context(), []string{"bgmx", "--config", path, "setup", "config"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		err := runner.app().Run(t.Context(), []string{"bgmx", "--config", path, "setup", "config"})
		if err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("SetupDatabase", func(t *testing.T) {
		t.Run("Creates Schema", func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "history.db")
			path := writeConfig(t, "[database]\npath = \""+dbPath+"\"\n")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

			if err := runner.app().Run(t.Context(), []string{"bgmx", "-c", path, "setup", "database"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			tu.AssertFileExists(t, dbPath)
			if !bytes.Contains(output.Bytes(), []byte("2 migrations applied")) {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("Rollback", func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "history.db")
			path := writeConfig(t, "[database]\npath = \""+dbPath+"\"\n")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

			if err := runner.app().Run(t.Context(), []string{"bgmx", "-c", path, "setup", "database"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			for range 2 {
				if err := runner.app().Run(t.Context(), []string{"bgmx", "-c", path, "setup", "database", "--rollback"}); err != nil {
					t.Fatalf("expected rollback to succeed, got %v", err)
				}
			}
			if !bytes.Contains(output.Bytes(), []byte("Rolled back latest migration")) {
				t.Errorf("unexpected output %q", output.String())
			}

			err := runner.app().Run(t.Context(), []string{"bgmx", "-c", path, "setup", "database", "--rollback"})
			if err == nil {
				t.Error("expected error when nothing is left to roll back")
			}
		})

		t.Run("Requires a Path", func(t *testing.T) {
			path := writeConfig(t, "[database]\npath = \"\"\n")
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})

			err := runner.app().Run(t.Context(), []string{"bgmx", "-c", path, "setup", "database"})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
