package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/deeptext/internal/markup"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "deeptext"

	// DefaultTimeout covers a whole fetch, body included.
	DefaultTimeout = 30 * time.Second

	// DefaultOnionTimeout replaces DefaultTimeout for Tor fetches, which
	// go through several relays.
	DefaultOnionTimeout = 120 * time.Second

	// DefaultUserAgent identifies deeptext in HTTP requests.
	DefaultUserAgent = "deeptext/1.0 (+https://github.com/nao1215/deeptext)"

	// DefaultMaxBodySize limits how much of a response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultConcurrency is the number of parallel analyses in batch mode.
	DefaultConcurrency = 4

	// DefaultTorStartupTimeout bounds embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all options of one deeptext run. It is filled from defaults,
// then the config file, then command line flags.
type Config struct {
	// Targets are the URLs to analyze.
	Targets []string

	// Strategy names the depth strategy ("counter" or "levels").
	Strategy string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of body bytes read. 0 means default.
	MaxBodySize int64

	// ProxyAddress is a SOCKS5 proxy in "host:port" form. Empty means direct.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and fetches through it.
	UseTor bool

	// TorStartupTimeout bounds embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport prints the full analysis as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the full analysis as Markdown.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// SaveToDB stores every analysis in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	DBDir string

	// Concurrency is the number of parallel analyses in batch mode.
	Concurrency int

	// RateLimit caps batch analyses started per second. 0 means unlimited.
	RateLimit float64

	// ConfigFilePath is an explicit config file. Empty means search.
	ConfigFilePath string

	// SiteConfigs holds the loaded config file, or nil.
	SiteConfigs *File
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Strategy:          markup.DefaultStrategy.String(),
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		SaveToDB:          true,
		DBDir:             XDGDataDir(),
		Concurrency:       DefaultConcurrency,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/deeptext.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/deeptext.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DepthStrategy parses Strategy.
func (c *Config) DepthStrategy() (markup.Strategy, error) {
	s, err := markup.ParseStrategy(c.Strategy)
	if err != nil {
		return markup.DefaultStrategy, fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Strategy)
	}
	return s, nil
}

// SiteConfig returns the settings for host merged over the file defaults.
// It returns the zero value when no file was loaded.
func (c *Config) SiteConfig(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}

// ApplyFile copies file defaults into fields still at their built-in
// value, so explicit flags keep precedence.
func (c *Config) ApplyFile(f *File) {
	c.SiteConfigs = f
	if f == nil {
		return
	}
	if f.Defaults.Strategy != "" && c.Strategy == markup.DefaultStrategy.String() {
		c.Strategy = f.Defaults.Strategy
	}
	if f.Defaults.UserAgent != "" && c.UserAgent == DefaultUserAgent {
		c.UserAgent = f.Defaults.UserAgent
	}
}

// Validate returns the first problem found, as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if _, err := c.DepthStrategy(); err != nil {
		return err
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	return nil
}
