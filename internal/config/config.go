package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/clipmd/internal/pass"
	"gopkg.in/yaml.v3"
)

type StoreBackend string

const (
	StoreFile StoreBackend = "file"
	StoreBolt StoreBackend = "bolt"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

type Config struct {
	//===============
	// Paste options
	//===============
	// Keep images in the output at all
	includeImages bool
	// Replace image sources with stored resource references
	convertImagesToResources bool
	// Replace typographic quotes with ASCII ones
	normalizeQuotes bool
	// Drop blank lines between list items in the markdown
	forceTightLists bool
	// Prepend YAML frontmatter to the markdown
	frontmatter bool

	//===============
	// Extraction
	//===============
	// Narrow full pages to their main content container
	isolateMain bool
	// Extra CSS selectors tried before the built-in content selectors
	contentSelectors []string

	//===============
	// Images
	//===============
	// Largest accepted image, both data URI and remote
	maxImageBytes int64
	// Maximum time of a single image request
	fetchTimeout time.Duration
	// User agent sent with image requests
	userAgent string

	//===============
	// Politeness
	//===============
	// Minimum waiting time between two requests to the same host
	hostDelay time.Duration
	// Randomized variation added on top of the host delay
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Output
	//===============
	// Directory (file store) or database path parent (bolt store) for resources
	resourceDir  string
	storeBackend StoreBackend

	//===============
	// Logging
	//===============
	logFormat LogFormat
	logLevel  string
}

// configDTO is shared by the JSON and YAML readers. Booleans are pointers so
// an explicit false can override a true default.
type configDTO struct {
	IncludeImages            *bool         `json:"includeImages,omitempty" yaml:"includeImages,omitempty"`
	ConvertImagesToResources *bool         `json:"convertImagesToResources,omitempty" yaml:"convertImagesToResources,omitempty"`
	NormalizeQuotes          *bool         `json:"normalizeQuotes,omitempty" yaml:"normalizeQuotes,omitempty"`
	ForceTightLists          *bool         `json:"forceTightLists,omitempty" yaml:"forceTightLists,omitempty"`
	Frontmatter              *bool         `json:"frontmatter,omitempty" yaml:"frontmatter,omitempty"`
	IsolateMain              *bool         `json:"isolateMain,omitempty" yaml:"isolateMain,omitempty"`
	ContentSelectors         []string      `json:"contentSelectors,omitempty" yaml:"contentSelectors,omitempty"`
	MaxImageBytes            int64         `json:"maxImageBytes,omitempty" yaml:"maxImageBytes,omitempty"`
	FetchTimeout             time.Duration `json:"fetchTimeout,omitempty" yaml:"fetchTimeout,omitempty"`
	UserAgent                string        `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	HostDelay                time.Duration `json:"hostDelay,omitempty" yaml:"hostDelay,omitempty"`
	Jitter                   time.Duration `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	RandomSeed               int64         `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	MaxAttempt               int           `json:"maxAttempt,omitempty" yaml:"maxAttempt,omitempty"`
	BackoffInitialDuration   time.Duration `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration,omitempty"`
	BackoffMultiplier        float64       `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty"`
	BackoffMaxDuration       time.Duration `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration,omitempty"`
	ResourceDir              string        `json:"resourceDir,omitempty" yaml:"resourceDir,omitempty"`
	StoreBackend             string        `json:"storeBackend,omitempty" yaml:"storeBackend,omitempty"`
	LogFormat                string        `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	LogLevel                 string        `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	if dto.IncludeImages != nil {
		cfg.includeImages = *dto.IncludeImages
	}
	if dto.ConvertImagesToResources != nil {
		cfg.convertImagesToResources = *dto.ConvertImagesToResources
	}
	if dto.NormalizeQuotes != nil {
		cfg.normalizeQuotes = *dto.NormalizeQuotes
	}
	if dto.ForceTightLists != nil {
		cfg.forceTightLists = *dto.ForceTightLists
	}
	if dto.Frontmatter != nil {
		cfg.frontmatter = *dto.Frontmatter
	}
	if dto.IsolateMain != nil {
		cfg.isolateMain = *dto.IsolateMain
	}
	if len(dto.ContentSelectors) > 0 {
		cfg.contentSelectors = dto.ContentSelectors
	}

	// For other fields, only override if non-zero value is provided
	if dto.MaxImageBytes != 0 {
		cfg.maxImageBytes = dto.MaxImageBytes
	}
	if dto.FetchTimeout != 0 {
		cfg.fetchTimeout = dto.FetchTimeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.HostDelay != 0 {
		cfg.hostDelay = dto.HostDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.ResourceDir != "" {
		cfg.resourceDir = dto.ResourceDir
	}
	if dto.StoreBackend != "" {
		cfg.storeBackend = StoreBackend(strings.ToLower(dto.StoreBackend))
	}
	if dto.LogFormat != "" {
		cfg.logFormat = LogFormat(strings.ToLower(dto.LogFormat))
	}
	if dto.LogLevel != "" {
		cfg.logLevel = strings.ToLower(dto.LogLevel)
	}

	return cfg.Build()
}

// WithConfigFile reads a config file. Files ending in .yaml or .yml are read
// as YAML, everything else as JSON. Durations are nanoseconds in JSON and
// strings such as "15s" in YAML.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with default values for all fields.
func WithDefault() *Config {
	defaultOptions := pass.DefaultOptions()
	defaultConfig := Config{
		includeImages:            defaultOptions.IncludeImages,
		convertImagesToResources: defaultOptions.ConvertImagesToResources,
		normalizeQuotes:          defaultOptions.NormalizeQuotes,
		forceTightLists:          defaultOptions.ForceTightLists,
		frontmatter:              false,
		isolateMain:              false,
		contentSelectors:         nil,
		maxImageBytes:            10 << 20,
		fetchTimeout:             15 * time.Second,
		userAgent:                "clipmd/1.0",
		hostDelay:                250 * time.Millisecond,
		jitter:                   100 * time.Millisecond,
		randomSeed:               time.Now().UnixNano(),
		maxAttempt:               3,
		backoffInitialDuration:   200 * time.Millisecond,
		backoffMultiplier:        2.0,
		backoffMaxDuration:       5 * time.Second,
		resourceDir:              "resources",
		storeBackend:             StoreFile,
		logFormat:                LogFormatText,
		logLevel:                 "warn",
	}
	return &defaultConfig
}

func (c *Config) WithIncludeImages(include bool) *Config {
	c.includeImages = include
	return c
}

func (c *Config) WithConvertImagesToResources(convert bool) *Config {
	c.convertImagesToResources = convert
	return c
}

func (c *Config) WithNormalizeQuotes(normalize bool) *Config {
	c.normalizeQuotes = normalize
	return c
}

func (c *Config) WithForceTightLists(tight bool) *Config {
	c.forceTightLists = tight
	return c
}

func (c *Config) WithFrontmatter(frontmatter bool) *Config {
	c.frontmatter = frontmatter
	return c
}

func (c *Config) WithIsolateMain(isolate bool) *Config {
	c.isolateMain = isolate
	return c
}

func (c *Config) WithContentSelectors(selectors []string) *Config {
	c.contentSelectors = selectors
	return c
}

func (c *Config) WithMaxImageBytes(max int64) *Config {
	c.maxImageBytes = max
	return c
}

func (c *Config) WithFetchTimeout(timeout time.Duration) *Config {
	c.fetchTimeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithHostDelay(delay time.Duration) *Config {
	c.hostDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithResourceDir(dir string) *Config {
	c.resourceDir = dir
	return c
}

func (c *Config) WithStoreBackend(backend StoreBackend) *Config {
	c.storeBackend = backend
	return c
}

func (c *Config) WithLogFormat(format LogFormat) *Config {
	c.logFormat = format
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if c.maxImageBytes <= 0 {
		return Config{}, fmt.Errorf("%w: maxImageBytes must be positive, got %d", ErrInvalidConfig, c.maxImageBytes)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1, got %d", ErrInvalidConfig, c.maxAttempt)
	}
	if c.fetchTimeout <= 0 {
		return Config{}, fmt.Errorf("%w: fetchTimeout must be positive", ErrInvalidConfig)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1, got %v", ErrInvalidConfig, c.backoffMultiplier)
	}
	switch c.storeBackend {
	case StoreFile, StoreBolt:
	default:
		return Config{}, fmt.Errorf("%w: unknown storeBackend %q", ErrInvalidConfig, c.storeBackend)
	}
	switch c.logFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return Config{}, fmt.Errorf("%w: unknown logFormat %q", ErrInvalidConfig, c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("%w: unknown logLevel %q", ErrInvalidConfig, c.logLevel)
	}
	if c.convertImagesToResources && strings.TrimSpace(c.resourceDir) == "" {
		return Config{}, fmt.Errorf("%w: resourceDir cannot be empty when converting images", ErrInvalidConfig)
	}

	return *c, nil
}

// PasteOptions returns the pipeline options this config describes.
func (c Config) PasteOptions() pass.Options {
	return pass.Options{
		IncludeImages:            c.includeImages,
		ConvertImagesToResources: c.convertImagesToResources,
		NormalizeQuotes:          c.normalizeQuotes,
		ForceTightLists:          c.forceTightLists,
	}
}

func (c Config) IncludeImages() bool {
	return c.includeImages
}

func (c Config) ConvertImagesToResources() bool {
	return c.convertImagesToResources
}

func (c Config) NormalizeQuotes() bool {
	return c.normalizeQuotes
}

func (c Config) ForceTightLists() bool {
	return c.forceTightLists
}

func (c Config) Frontmatter() bool {
	return c.frontmatter
}

func (c Config) IsolateMain() bool {
	return c.isolateMain
}

func (c Config) ContentSelectors() []string {
	selectors := make([]string, len(c.contentSelectors))
	copy(selectors, c.contentSelectors)
	return selectors
}

func (c Config) MaxImageBytes() int64 {
	return c.maxImageBytes
}

func (c Config) FetchTimeout() time.Duration {
	return c.fetchTimeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) HostDelay() time.Duration {
	return c.hostDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) ResourceDir() string {
	return c.resourceDir
}

func (c Config) StoreBackend() StoreBackend {
	return c.storeBackend
}

func (c Config) LogFormat() LogFormat {
	return c.logFormat
}

func (c Config) LogLevel() string {
	return c.logLevel
}
