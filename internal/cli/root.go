package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rohmanhakim/clipmd/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CLIPMD"

// Flag names double as viper keys; the env form is CLIPMD_<NAME> with
// dashes replaced by underscores.
const (
	keyConfig          = "config"
	keyIncludeImages   = "include-images"
	keyConvertImages   = "convert-images"
	keyNormalizeQuotes = "normalize-quotes"
	keyTightLists      = "tight-lists"
	keyFrontmatter     = "frontmatter"
	keyIsolateMain     = "isolate-main"
	keySelector        = "selector"
	keyMaxImageBytes   = "max-image-bytes"
	keyFetchTimeout    = "fetch-timeout"
	keyUserAgent       = "user-agent"
	keyHostDelay       = "host-delay"
	keyJitter          = "jitter"
	keyRandomSeed      = "random-seed"
	keyMaxAttempt      = "max-attempt"
	keyResourceDir     = "resource-dir"
	keyStore           = "store"
	keyLogFormat       = "log-format"
	keyLogLevel        = "log-level"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clipmd",
	Short: "Turn clipboard HTML into clean Markdown.",
	Long: `clipmd converts HTML copied from web pages, chat UIs, word processors,
code-hosting sites and email clients into clean Markdown.

The markup is repaired before and after an HTML sanitizer so the Markdown
renderer always receives predictable structure. Pasted images can be stored
as local resources and referenced as :/<id>.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(keyConfig, "", "config file path, JSON or YAML (e.g., ~/.config/clipmd.yaml)")
	flags.Bool(keyIncludeImages, true, "keep images in the output")
	flags.Bool(keyConvertImages, false, "store pasted and remote images as local resources")
	flags.Bool(keyNormalizeQuotes, false, "replace typographic quotes with ASCII quotes")
	flags.Bool(keyTightLists, false, "remove blank lines between list items")
	flags.Bool(keyFrontmatter, false, "prepend YAML frontmatter")
	flags.Bool(keyIsolateMain, false, "narrow full pages to their main content")
	flags.StringArray(keySelector, []string{}, "extra CSS selector for the main content (can be repeated)")
	flags.Int64(keyMaxImageBytes, 0, "largest accepted image in bytes")
	flags.Duration(keyFetchTimeout, 0, "timeout for a single image request")
	flags.String(keyUserAgent, "", "user agent for image requests")
	flags.Duration(keyHostDelay, 0, "delay between image requests to the same host")
	flags.Duration(keyJitter, 0, "random jitter added to delays")
	flags.Int64(keyRandomSeed, 0, "seed for random number generation (0 for current time)")
	flags.Int(keyMaxAttempt, 0, "attempts per image request")
	flags.String(keyResourceDir, "", "where stored resources are written")
	flags.String(keyStore, "", "resource store backend: file or bolt")
	flags.String(keyLogFormat, "", "log format: text or json")
	flags.String(keyLogLevel, "", "log level: debug, info, warn or error")

	viper.BindPFlags(flags)

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureEnv() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// InitConfigWithError builds the config from, in increasing precedence:
// defaults, the config file, environment variables and flags.
func InitConfigWithError() (config.Config, error) {
	configureEnv()

	builder := config.WithDefault()
	if cfgFile := viper.GetString(keyConfig); cfgFile != "" {
		fileCfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		builder = &fileCfg
	}

	if viper.IsSet(keyIncludeImages) {
		builder = builder.WithIncludeImages(viper.GetBool(keyIncludeImages))
	}
	if viper.IsSet(keyConvertImages) {
		builder = builder.WithConvertImagesToResources(viper.GetBool(keyConvertImages))
	}
	if viper.IsSet(keyNormalizeQuotes) {
		builder = builder.WithNormalizeQuotes(viper.GetBool(keyNormalizeQuotes))
	}
	if viper.IsSet(keyTightLists) {
		builder = builder.WithForceTightLists(viper.GetBool(keyTightLists))
	}
	if viper.IsSet(keyFrontmatter) {
		builder = builder.WithFrontmatter(viper.GetBool(keyFrontmatter))
	}
	if viper.IsSet(keyIsolateMain) {
		builder = builder.WithIsolateMain(viper.GetBool(keyIsolateMain))
	}
	if selectors := viper.GetStringSlice(keySelector); len(selectors) > 0 {
		builder = builder.WithContentSelectors(selectors)
	}
	if v := viper.GetInt64(keyMaxImageBytes); v > 0 {
		builder = builder.WithMaxImageBytes(v)
	}
	if v := viper.GetDuration(keyFetchTimeout); v > 0 {
		builder = builder.WithFetchTimeout(v)
	}
	if v := viper.GetString(keyUserAgent); v != "" {
		builder = builder.WithUserAgent(v)
	}
	if viper.IsSet(keyHostDelay) {
		builder = builder.WithHostDelay(viper.GetDuration(keyHostDelay))
	}
	if viper.IsSet(keyJitter) {
		builder = builder.WithJitter(viper.GetDuration(keyJitter))
	}
	if v := viper.GetInt64(keyRandomSeed); v != 0 {
		builder = builder.WithRandomSeed(v)
	}
	if v := viper.GetInt(keyMaxAttempt); v > 0 {
		builder = builder.WithMaxAttempt(v)
	}
	if v := viper.GetString(keyResourceDir); v != "" {
		builder = builder.WithResourceDir(v)
	}
	if v := viper.GetString(keyStore); v != "" {
		builder = builder.WithStoreBackend(config.StoreBackend(strings.ToLower(v)))
	}
	if v := viper.GetString(keyLogFormat); v != "" {
		builder = builder.WithLogFormat(config.LogFormat(strings.ToLower(v)))
	}
	if v := viper.GetString(keyLogLevel); v != "" {
		builder = builder.WithLogLevel(strings.ToLower(v))
	}

	return builder.Build()
}

// newLogger builds the slog logger behind the metadata recorder.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := new(slog.LevelVar)
	switch cfg.LogLevel() {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelWarn)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat() == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ResetFlags clears every flag, env and Set value and rebinds the flags.
// Only for testing.
func ResetFlags() {
	viper.Reset()
	viper.BindPFlags(rootCmd.PersistentFlags())
	outputPath = ""
	previewPath = ""
	sourceURL = ""
}

// SetFlagForTest overrides a flag by name, as if it had been passed.
func SetFlagForTest(name string, value any) {
	viper.Set(name, value)
}

// RunConvertForTest runs one conversion without going through cobra.
func RunConvertForTest(cfg config.Config, in io.Reader, out io.Writer, logOut io.Writer, source string, preview string) error {
	return runConvert(context.Background(), cfg, convertRequest{
		in:          in,
		out:         out,
		logOut:      logOut,
		sourceURL:   source,
		previewPath: preview,
	})
}
