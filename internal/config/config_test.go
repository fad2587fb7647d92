package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	viper.Reset()
	SetFile("")
	t.Cleanup(func() {
		viper.Reset()
		SetFile("")
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Dir != "" {
		t.Errorf("default output.dir = %q", cfg.Output.Dir)
	}
	if !cfg.Output.Color {
		t.Error("default output.color should be true")
	}
	if cfg.Watch.Debounce != 500 {
		t.Errorf("default watch.debounce = %d", cfg.Watch.Debounce)
	}
	if cfg.Watch.Recursive {
		t.Error("default watch.recursive should be false")
	}
	if len(cfg.Watch.Extensions) != 2 {
		t.Errorf("default watch.extensions = %v", cfg.Watch.Extensions)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := setupTestConfig(t)
	os.MkdirAll(filepath.Join(home, ".md2docx"), 0700)
	body := "output:\n  dir: /tmp/out\nwatch:\n  debounce: 250\n  recursive: true\n"
	if err := os.WriteFile(filepath.Join(home, ".md2docx", "config.yaml"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("output.dir = %q", cfg.Output.Dir)
	}
	if cfg.Watch.Debounce != 250 || !cfg.Watch.Recursive {
		t.Errorf("watch = %+v", cfg.Watch)
	}
	if !cfg.Output.Color {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := setupTestConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	os.WriteFile(path, []byte("output:\n  color: false\n"), 0600)

	SetFile(path)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Color {
		t.Error("expected output.color=false from explicit file")
	}
	if ConfigPath() != path {
		t.Errorf("ConfigPath() = %q", ConfigPath())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := setupTestConfig(t)
	SetFile(filepath.Join(dir, "absent.yaml"))

	if _, err := Load(); err != nil {
		t.Fatalf("missing config file should not be fatal: %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := setupTestConfig(t)
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("output: [unclosed\n"), 0600)

	SetFile(path)
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestEnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("MD2DOCX_OUTPUT_DIR", "/srv/docs")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Dir != "/srv/docs" {
		t.Errorf("output.dir = %q, want env override", cfg.Output.Dir)
	}
}

func TestSetAndGet(t *testing.T) {
	home := setupTestConfig(t)
	if _, err := Load(); err != nil {
		t.Fatal(err)
	}

	if err := Set("watch.debounce", "750"); err != nil {
		t.Fatal(err)
	}
	if got := Get("watch.debounce"); got != "750" {
		t.Errorf("Get(watch.debounce) = %q, want %q", got, "750")
	}

	data, err := os.ReadFile(filepath.Join(home, ".md2docx", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "750") {
		t.Errorf("saved config missing value:\n%s", data)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.Debounce != 750 {
		t.Errorf("reloaded debounce = %d", cfg.Watch.Debounce)
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	Load()
	viper.Set("output.dir", "/tmp/exports")

	output := ShowConfig()
	if !strings.Contains(output, "/tmp/exports") {
		t.Error("ShowConfig should contain output dir")
	}
	if !strings.Contains(output, "500ms") {
		t.Error("ShowConfig should contain debounce")
	}
}

func TestShowConfigDefaultDir(t *testing.T) {
	setupTestConfig(t)
	Load()

	if !strings.Contains(ShowConfig(), "(beside input)") {
		t.Error("empty output.dir should be described")
	}
}

func TestValidate(t *testing.T) {
	dir := setupTestConfig(t)
	Load()

	if issues := Validate(); len(issues) != 0 {
		t.Errorf("defaults should validate cleanly, got %+v", issues)
	}

	viper.Set("output.dir", filepath.Join(dir, "missing"))
	viper.Set("watch.debounce", 0)

	severities := map[string]string{}
	for _, issue := range Validate() {
		severities[issue.Key] = issue.Severity
	}
	if severities["output.dir"] != "warning" {
		t.Errorf("output.dir severity = %q", severities["output.dir"])
	}
	if severities["watch.debounce"] != "error" {
		t.Errorf("watch.debounce severity = %q", severities["watch.debounce"])
	}
}

func TestValidateOutputDirIsFile(t *testing.T) {
	dir := setupTestConfig(t)
	Load()
	file := filepath.Join(dir, "file.txt")
	os.WriteFile(file, []byte("x"), 0644)
	viper.Set("output.dir", file)

	issues := Validate()
	if len(issues) != 1 || issues[0].Severity != "error" {
		t.Errorf("expected one error, got %+v", issues)
	}
}

func TestToEnv(t *testing.T) {
	setupTestConfig(t)
	Load()
	viper.Set("output.dir", "/my docs")

	env := ToEnv()
	if env["MD2DOCX_OUTPUT_DIR"] != "/my docs" {
		t.Errorf("MD2DOCX_OUTPUT_DIR = %q", env["MD2DOCX_OUTPUT_DIR"])
	}
	if env["MD2DOCX_WATCH_DEBOUNCE"] != "500" {
		t.Errorf("MD2DOCX_WATCH_DEBOUNCE = %q", env["MD2DOCX_WATCH_DEBOUNCE"])
	}
	if env["MD2DOCX_WATCH_EXTENSIONS"] != ".md,.markdown" {
		t.Errorf("MD2DOCX_WATCH_EXTENSIONS = %q", env["MD2DOCX_WATCH_EXTENSIONS"])
	}
}

func TestConfigPath(t *testing.T) {
	setupTestConfig(t)
	path := ConfigPath()
	if !strings.Contains(path, ".md2docx") || !strings.HasSuffix(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestResetConfig(t *testing.T) {
	setupTestConfig(t)
	Load()

	viper.Set("output.dir", "/elsewhere")
	if err := SaveConfig(); err != nil {
		t.Fatal(err)
	}

	if err := ResetConfig(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("config file should be removed")
	}
	if viper.GetString("output.dir") != "" {
		t.Errorf("output.dir should reset to default, got %q", viper.GetString("output.dir"))
	}
}

func TestSetParsesKinds(t *testing.T) {
	setupTestConfig(t)
	Load()

	if err := Set("output.color", "false"); err != nil {
		t.Fatal(err)
	}
	if viper.GetBool("output.color") {
		t.Error("output.color should be false")
	}

	if err := Set("watch.extensions", ".md, .txt,,"); err != nil {
		t.Fatal(err)
	}
	if got := Get("watch.extensions"); got != ".md,.txt" {
		t.Errorf("Get(watch.extensions) = %q", got)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[1] != ".txt" {
		t.Errorf("reloaded extensions = %v", cfg.Watch.Extensions)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	setupTestConfig(t)
	Load()

	cases := map[string]string{
		"watch.debounce":  "soon",
		"watch.recursive": "maybe",
		"output.format":   "pdf",
	}
	for key, value := range cases {
		if err := Set(key, value); err == nil {
			t.Errorf("Set(%q, %q) should fail", key, value)
		}
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("rejected values must not write the config file")
	}
}

func TestKeysMatchDefaults(t *testing.T) {
	setupTestConfig(t)
	Load()

	for _, k := range Keys() {
		if !viper.IsSet(k.Name) {
			t.Errorf("key %s has no default", k.Name)
		}
		if k.Usage == "" {
			t.Errorf("key %s has no usage text", k.Name)
		}
	}
}
