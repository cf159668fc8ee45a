package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, AppName) || !strings.Contains(out, version) {
		t.Errorf("version output = %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	if _, err := execute(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("sample not written: %v", err)
	}
	if !strings.Contains(string(data), "[tools]") {
		t.Errorf("sample config lacks the [tools] table:\n%s", data)
	}

	if _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Error("second init without --overwrite succeeded")
	}
	if _, err := execute(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("init --overwrite error = %v", err)
	}
}

func TestConfigShow_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\nnope = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "config", "show"); err == nil {
		t.Error("config show accepted an unknown key")
	}
}

func TestToolsCommand_ReportsOverrides(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}
	dir := t.TempDir()
	downloader := writeStub(t, dir, "yt-dlp", "echo 2025.06.30")
	// keep a system ffmpeg out of the lookup
	t.Setenv("PATH", t.TempDir())

	cfg := filepath.Join(dir, "config.toml")
	body := "[paths]\ndata_dir = \"" + filepath.Join(dir, "data") + "\"\n" +
		"[tools]\ndownloader = \"" + downloader + "\"\nconverter = \"" + filepath.Join(dir, "no-ffmpeg") + "\"\nauto_install = false\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfg, "--log-level", "error", "tools")
	if err != nil {
		t.Fatalf("tools error = %v", err)
	}
	for _, want := range []string{"yt-dlp", "2025.06.30", "override", "missing (optional)"} {
		if !strings.Contains(out, want) {
			t.Errorf("tools output missing %q:\n%s", want, out)
		}
	}
}

func TestToolsInstall_RejectsUnknownTool(t *testing.T) {
	if _, err := execute(t, "tools", "install", "curl"); err == nil {
		t.Error("install accepted an unknown tool")
	}
}

func TestRenderTable_PadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
		t.Errorf("renderTable() = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable with no headers should be empty")
	}
}
