package cmd_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cmd "github.com/rohmanhakim/clipmd/internal/cli"
	"github.com/rohmanhakim/clipmd/internal/config"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
)

func writeConfigFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func mustBuild(t *testing.T, builder *config.Config) config.Config {
	t.Helper()
	cfg, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	return cfg
}

// convert runs one conversion and returns the markdown and the log output.
func convert(t *testing.T, cfg config.Config, input string, source string, preview string) (string, string) {
	t.Helper()
	var out, logs bytes.Buffer
	if err := cmd.RunConvertForTest(cfg, strings.NewReader(input), &out, &logs, source, preview); err != nil {
		t.Fatalf("unexpected convert error: %v", err)
	}
	return out.String(), logs.String()
}

// TestInitConfigNoFlags tests that InitConfigWithError returns the defaults when nothing is set
func TestInitConfigNoFlags(t *testing.T) {
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	defaultCfg := mustBuild(t, config.WithDefault())
	if cfg.IncludeImages() != defaultCfg.IncludeImages() {
		t.Errorf("Expected IncludeImages %t, got %t", defaultCfg.IncludeImages(), cfg.IncludeImages())
	}
	if cfg.ConvertImagesToResources() != defaultCfg.ConvertImagesToResources() {
		t.Errorf("Expected ConvertImagesToResources %t, got %t", defaultCfg.ConvertImagesToResources(), cfg.ConvertImagesToResources())
	}
	if cfg.MaxImageBytes() != defaultCfg.MaxImageBytes() {
		t.Errorf("Expected MaxImageBytes %d, got %d", defaultCfg.MaxImageBytes(), cfg.MaxImageBytes())
	}
	if cfg.FetchTimeout() != defaultCfg.FetchTimeout() {
		t.Errorf("Expected FetchTimeout %v, got %v", defaultCfg.FetchTimeout(), cfg.FetchTimeout())
	}
	if cfg.HostDelay() != defaultCfg.HostDelay() {
		t.Errorf("Expected HostDelay %v, got %v", defaultCfg.HostDelay(), cfg.HostDelay())
	}
	if cfg.UserAgent() != defaultCfg.UserAgent() {
		t.Errorf("Expected UserAgent %s, got %s", defaultCfg.UserAgent(), cfg.UserAgent())
	}
	if cfg.StoreBackend() != defaultCfg.StoreBackend() {
		t.Errorf("Expected StoreBackend %s, got %s", defaultCfg.StoreBackend(), cfg.StoreBackend())
	}
	if len(cfg.ContentSelectors()) != 0 {
		t.Errorf("Expected no ContentSelectors, got %v", cfg.ContentSelectors())
	}
}

// TestInitConfigWithFlags tests that every flag reaches the config
func TestInitConfigWithFlags(t *testing.T) {
	cmd.ResetFlags()
	cmd.SetFlagForTest("include-images", false)
	cmd.SetFlagForTest("normalize-quotes", true)
	cmd.SetFlagForTest("tight-lists", true)
	cmd.SetFlagForTest("frontmatter", true)
	cmd.SetFlagForTest("isolate-main", true)
	cmd.SetFlagForTest("selector", []string{".post", "#main"})
	cmd.SetFlagForTest("max-image-bytes", int64(4096))
	cmd.SetFlagForTest("fetch-timeout", 3*time.Second)
	cmd.SetFlagForTest("user-agent", "TestBot/1.0")
	cmd.SetFlagForTest("host-delay", time.Duration(0))
	cmd.SetFlagForTest("jitter", 10*time.Millisecond)
	cmd.SetFlagForTest("random-seed", int64(42))
	cmd.SetFlagForTest("max-attempt", 5)
	cmd.SetFlagForTest("resource-dir", "out")
	cmd.SetFlagForTest("store", "BOLT")
	cmd.SetFlagForTest("log-format", "json")
	cmd.SetFlagForTest("log-level", "Debug")

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.IncludeImages() {
		t.Errorf("Expected IncludeImages false")
	}
	if !cfg.NormalizeQuotes() || !cfg.ForceTightLists() || !cfg.Frontmatter() || !cfg.IsolateMain() {
		t.Errorf("Expected boolean flags to be applied")
	}
	if got := cfg.ContentSelectors(); len(got) != 2 || got[0] != ".post" || got[1] != "#main" {
		t.Errorf("Expected ContentSelectors [.post #main], got %v", got)
	}
	if cfg.MaxImageBytes() != 4096 {
		t.Errorf("Expected MaxImageBytes 4096, got %d", cfg.MaxImageBytes())
	}
	if cfg.FetchTimeout() != 3*time.Second {
		t.Errorf("Expected FetchTimeout 3s, got %v", cfg.FetchTimeout())
	}
	if cfg.UserAgent() != "TestBot/1.0" {
		t.Errorf("Expected UserAgent TestBot/1.0, got %s", cfg.UserAgent())
	}
	if cfg.HostDelay() != 0 {
		t.Errorf("Expected explicit zero HostDelay, got %v", cfg.HostDelay())
	}
	if cfg.Jitter() != 10*time.Millisecond {
		t.Errorf("Expected Jitter 10ms, got %v", cfg.Jitter())
	}
	if cfg.RandomSeed() != 42 {
		t.Errorf("Expected RandomSeed 42, got %d", cfg.RandomSeed())
	}
	if cfg.MaxAttempt() != 5 {
		t.Errorf("Expected MaxAttempt 5, got %d", cfg.MaxAttempt())
	}
	if cfg.ResourceDir() != "out" {
		t.Errorf("Expected ResourceDir out, got %s", cfg.ResourceDir())
	}
	if cfg.StoreBackend() != config.StoreBolt {
		t.Errorf("Expected bolt store, got %s", cfg.StoreBackend())
	}
	if cfg.LogFormat() != config.LogFormatJSON || cfg.LogLevel() != "debug" {
		t.Errorf("Expected json/debug logging, got %s/%s", cfg.LogFormat(), cfg.LogLevel())
	}
}

// TestInitConfigFromEnv tests that CLIPMD_* variables are read
func TestInitConfigFromEnv(t *testing.T) {
	t.Setenv("CLIPMD_TIGHT_LISTS", "true")
	t.Setenv("CLIPMD_USER_AGENT", "EnvBot/2.0")
	t.Setenv("CLIPMD_FETCH_TIMEOUT", "7s")
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !cfg.ForceTightLists() {
		t.Errorf("Expected ForceTightLists from env")
	}
	if cfg.UserAgent() != "EnvBot/2.0" {
		t.Errorf("Expected UserAgent EnvBot/2.0, got %s", cfg.UserAgent())
	}
	if cfg.FetchTimeout() != 7*time.Second {
		t.Errorf("Expected FetchTimeout 7s, got %v", cfg.FetchTimeout())
	}
}

// TestInitConfigPrecedence tests defaults < file < env < flags
func TestInitConfigPrecedence(t *testing.T) {
	path := writeConfigFile(t, "clipmd.yaml", `
userAgent: FileBot/1.0
maxAttempt: 2
resourceDir: from-file
frontmatter: true
`)
	t.Setenv("CLIPMD_MAX_ATTEMPT", "7")
	cmd.ResetFlags()
	cmd.SetFlagForTest("config", path)
	cmd.SetFlagForTest("user-agent", "FlagBot/1.0")

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.UserAgent() != "FlagBot/1.0" {
		t.Errorf("Expected flag to win for UserAgent, got %s", cfg.UserAgent())
	}
	if cfg.MaxAttempt() != 7 {
		t.Errorf("Expected env to win over file for MaxAttempt, got %d", cfg.MaxAttempt())
	}
	if cfg.ResourceDir() != "from-file" {
		t.Errorf("Expected ResourceDir from file, got %s", cfg.ResourceDir())
	}
	if !cfg.Frontmatter() {
		t.Errorf("Expected Frontmatter from file")
	}
	if cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("Expected default FetchTimeout, got %v", cfg.FetchTimeout())
	}
}

// TestInitConfigMissingFile tests that a missing config file is reported
func TestInitConfigMissingFile(t *testing.T) {
	cmd.ResetFlags()
	cmd.SetFlagForTest("config", filepath.Join(t.TempDir(), "missing.json"))

	_, err := cmd.InitConfigWithError()
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("Expected ErrFileDoesNotExist, got: %v", err)
	}
}

// TestInitConfigInvalidFlag tests that an unknown store backend is rejected
func TestInitConfigInvalidFlag(t *testing.T) {
	cmd.ResetFlags()
	cmd.SetFlagForTest("store", "s3")

	_, err := cmd.InitConfigWithError()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got: %v", err)
	}
}

func TestRunConvert_PlainHTML(t *testing.T) {
	cfg := mustBuild(t, config.WithDefault())

	got, _ := convert(t, cfg, `<h2>Title</h2><p>Hello <b>world</b></p>`, "", "")

	want := "## Title\n\nHello **world**\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestRunConvert_CFHTMLResolvesRelativeLinks(t *testing.T) {
	cfg := mustBuild(t, config.WithDefault())
	fragment := `<p>See <a href="/docs">docs</a></p>`
	before := "<html><body><!--StartFragment-->"
	after := "<!--EndFragment--></body></html>"
	const headerTmpl = "Version:0.9\r\nStartHTML:%010d\r\nEndHTML:%010d\r\nStartFragment:%010d\r\nEndFragment:%010d\r\nSourceURL:%s\r\n"
	headerLen := len(fmt.Sprintf(headerTmpl, 0, 0, 0, 0, "https://example.com"))
	start := headerLen + len(before)
	end := start + len(fragment)
	payload := fmt.Sprintf(headerTmpl, headerLen, end+len(after), start, end, "https://example.com") + before + fragment + after

	got, _ := convert(t, cfg, payload, "", "")

	want := "See [docs](https://example.com/docs)\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestRunConvert_Frontmatter(t *testing.T) {
	cfg := mustBuild(t, config.WithDefault().WithFrontmatter(true))

	got, _ := convert(t, cfg, `<h1>Notes</h1><p>body</p>`, "https://example.com/a", "")

	if !strings.HasPrefix(got, "---\ntitle: Notes\n") {
		t.Errorf("Expected frontmatter with title, got %q", got)
	}
	if !strings.Contains(got, "source_url: https://example.com/a\n") {
		t.Errorf("Expected source_url in frontmatter, got %q", got)
	}
	if !strings.Contains(got, "content_hash: blake3:") {
		t.Errorf("Expected blake3 content hash, got %q", got)
	}
	if !strings.HasSuffix(got, "---\n\n# Notes\n\nbody\n") {
		t.Errorf("Expected markdown after frontmatter, got %q", got)
	}
}

func TestRunConvert_WritesPreview(t *testing.T) {
	cfg := mustBuild(t, config.WithDefault())
	preview := filepath.Join(t.TempDir(), "preview.html")

	convert(t, cfg, `<p>Hello <b>world</b></p>`, "", preview)

	page, err := os.ReadFile(preview)
	if err != nil {
		t.Fatalf("Expected preview file, got %v", err)
	}
	if !strings.Contains(string(page), "<title>clipmd preview</title>") {
		t.Errorf("Expected default preview title, got %q", page)
	}
	if !strings.Contains(string(page), "<strong>world</strong>") {
		t.Errorf("Expected rendered markdown in preview, got %q", page)
	}
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake image body")

func TestRunConvert_ConvertsImagesToFileResources(t *testing.T) {
	dir := t.TempDir()
	cfg := mustBuild(t, config.WithDefault().
		WithConvertImagesToResources(true).
		WithResourceDir(dir))
	preview := filepath.Join(t.TempDir(), "preview.html")
	input := `<p><img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngBytes) + `"></p>`

	got, _ := convert(t, cfg, input, "", preview)

	id := hashutil.ResourceID(pngBytes)
	want := "![](:/" + id + ")\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	written, err := os.ReadFile(filepath.Join(dir, id+".png"))
	if err != nil {
		t.Fatalf("Expected stored resource, got %v", err)
	}
	if !bytes.Equal(written, pngBytes) {
		t.Errorf("Stored resource differs from the pasted image")
	}

	page, err := os.ReadFile(preview)
	if err != nil {
		t.Fatalf("Expected preview file, got %v", err)
	}
	if !strings.Contains(string(page), filepath.Join(dir, id+".png")) {
		t.Errorf("Expected preview to link the stored file, got %q", page)
	}
}

func TestRunConvert_BoltStore(t *testing.T) {
	dir := t.TempDir()
	cfg := mustBuild(t, config.WithDefault().
		WithConvertImagesToResources(true).
		WithResourceDir(dir).
		WithStoreBackend(config.StoreBolt))
	input := `<p><img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngBytes) + `"></p>`

	got, _ := convert(t, cfg, input, "", "")

	id := hashutil.ResourceID(pngBytes)
	if got != "![](:/"+id+")\n" {
		t.Errorf("Expected resource ref, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "resources.db")); err != nil {
		t.Errorf("Expected bolt database in resource dir, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, id+".png")); !os.IsNotExist(err) {
		t.Errorf("Expected no loose file with the bolt store")
	}
}

func TestRunConvert_ImagesExcluded(t *testing.T) {
	cfg := mustBuild(t, config.WithDefault().WithIncludeImages(false))

	got, _ := convert(t, cfg, `<p>before</p><p><img src="https://example.com/a.png" alt="a"></p><p>after</p>`, "", "")

	want := "before\n\nafter\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
