// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"mailscout/internal/core/domain"
	"mailscout/internal/platform/rate"
)

// Backend names.
const (
	BackendYtDlp   = "ytdlp"
	BackendWebpage = "webpage"
	BackendAPI     = "api"
)

// Config is built once by Load and never mutated afterwards.
type Config struct {
	Core   Core
	Rate   Rate
	Source Source
	Output Output
	Log    Log

	ConfigFile   string
	PrintVersion bool
	ShowHelp     bool
}

type Core struct {
	ChannelURL string
	MaxVideos  int
	Workers    int
	Timeout    time.Duration // global run timeout (0 = none)
}

type Rate struct {
	Delay      time.Duration // between two requests
	BatchSize  int           // pause after every BatchSize requests (0 = off)
	BatchDelay time.Duration
	Backoff    time.Duration // pause all workers after a rate-limited response (0 = off)
}

type Source struct {
	Enumerator   string // ytdlp | webpage | api
	Fetcher      string // ytdlp | api
	YtDlpPath    string
	APIKey       string
	Retries      int // retries of transient fetch failures
	RetryBackoff time.Duration
	FetchTimeout time.Duration // per video (0 = none)
}

type Output struct {
	Prefix        string
	TableDisabled bool
	Quiet         bool
}

type Log struct {
	Level   string
	Verbose bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Core: Core{
			MaxVideos: 300,
			Workers:   10,
		},
		Source: Source{
			Enumerator:   BackendYtDlp,
			Fetcher:      BackendYtDlp,
			YtDlpPath:    "yt-dlp",
			Retries:      2,
			RetryBackoff: 1 * time.Second,
			FetchTimeout: 60 * time.Second,
		},
		Output: Output{
			Prefix: "emails_youtube",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds the configuration from, lowest priority first: defaults, the
// YAML file named by --config or MAILSCOUT_CONFIG, environment variables,
// and the flags explicitly present in args.
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs, fv := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	cfg.ShowHelp = fv.help
	cfg.PrintVersion = fv.version
	if cfg.ShowHelp || cfg.PrintVersion {
		return cfg, nil
	}

	cfg.ConfigFile = getenv("MAILSCOUT_CONFIG", "")
	if fs.Changed("config") {
		cfg.ConfigFile = fv.configFile
	}
	if cfg.ConfigFile != "" {
		if err := loadFromFile(&cfg, cfg.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if err := loadFromEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, fs, fv); err != nil {
		return cfg, err
	}

	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the run cannot start with.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Core.ChannelURL) == "" {
		add("channel is required (--channel or YOUTUBE_CHANNEL_URL)")
	}
	if c.Core.MaxVideos < 1 {
		add("max-videos must be at least 1, got %d", c.Core.MaxVideos)
	}
	if c.Core.Workers < 1 {
		add("threads must be at least 1, got %d", c.Core.Workers)
	}
	if c.Core.Timeout < 0 {
		add("timeout cannot be negative")
	}
	if err := c.RateConfig().Validate(); err != nil {
		add("%v", err)
	}
	switch c.Source.Enumerator {
	case BackendYtDlp, BackendWebpage, BackendAPI:
	default:
		add("unknown enumerator %q (ytdlp, webpage, api)", c.Source.Enumerator)
	}
	switch c.Source.Fetcher {
	case BackendYtDlp, BackendAPI:
	default:
		add("unknown fetcher %q (ytdlp, api)", c.Source.Fetcher)
	}
	if (c.Source.Enumerator == BackendAPI || c.Source.Fetcher == BackendAPI) && c.Source.APIKey == "" {
		add("api backend requires an API key (--api-key or YOUTUBE_API_KEY)")
	}
	if c.Source.Retries < 0 {
		add("retries cannot be negative")
	}
	if c.Source.RetryBackoff < 0 {
		add("retry-backoff cannot be negative")
	}
	if c.Source.FetchTimeout < 0 {
		add("fetch-timeout cannot be negative")
	}
	if strings.TrimSpace(c.Output.Prefix) == "" {
		add("output prefix cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// RateConfig returns the limiter policy.
func (c Config) RateConfig() rate.Config {
	return rate.Config{
		Delay:      c.Rate.Delay,
		BatchSize:  c.Rate.BatchSize,
		BatchDelay: c.Rate.BatchDelay,
		Backoff:    c.Rate.Backoff,
	}
}

// ToJSON serializes the configuration with the API key masked.
func (c Config) ToJSON() (string, error) {
	if c.Source.APIKey != "" {
		c.Source.APIKey = "***"
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseDelay parses "500ms", "1.5s", a Go duration such as "1m30s", or a
// bare number of seconds. An empty string is zero.
func ParseDelay(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q (e.g., '0.5s', '500ms', '1')", s)
	}
	return d, nil
}

// ParseBatchDelay parses "DELAY/N", e.g. "3s/50" = pause 3s after every
// 50 requests.
func ParseBatchDelay(s string) (time.Duration, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid batch-delay %q: use 'DELAY/N' (e.g., '3s/50')", s)
	}

	d, err := ParseDelay(parts[0])
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid batch-delay %q: batch size must be an integer", s)
	}
	return d, n, nil
}

// flagValues receives the parsed flags; only those reported by Changed
// are applied.
type flagValues struct {
	configFile   string
	channel      string
	maxVideos    int
	threads      int
	timeout      string
	delay        string
	batchDelay   string
	backoff      string
	enumerator   string
	fetcher      string
	ytdlp        string
	apiKey       string
	retries      int
	retryBackoff string
	fetchTimeout string
	output       string
	quiet        bool
	noTable      bool
	logLevel     string
	verbose      bool
	version      bool
	help         bool
}

func newFlagSet() (*pflag.FlagSet, *flagValues) {
	fv := &flagValues{}
	fs := pflag.NewFlagSet("mailscout", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.Usage = func() {}

	fs.StringVar(&fv.configFile, "config", "", "YAML configuration file")
	fs.StringVarP(&fv.channel, "channel", "c", "", "YouTube channel URL or handle (@name)")
	fs.IntVarP(&fv.maxVideos, "max-videos", "m", 0, "Maximum number of videos to analyze")
	fs.IntVarP(&fv.threads, "threads", "t", 0, "Number of parallel workers")
	fs.StringVarP(&fv.timeout, "timeout", "T", "", "Global run timeout (e.g., '10m', 0 = none)")
	fs.StringVarP(&fv.delay, "delay", "d", "", "Delay between requests (e.g., '0.5s', '500ms', '1')")
	fs.StringVar(&fv.batchDelay, "batch-delay", "", "Pause after every N requests, 'DELAY/N' (e.g., '3s/50')")
	fs.StringVar(&fv.backoff, "backoff", "", "Pause all workers after a rate-limited response (e.g., '30s')")
	fs.StringVar(&fv.enumerator, "enumerator", "", "Channel enumeration backend: ytdlp, webpage, api")
	fs.StringVar(&fv.fetcher, "fetcher", "", "Video metadata backend: ytdlp, api")
	fs.StringVar(&fv.ytdlp, "ytdlp", "", "Path to the yt-dlp binary")
	fs.StringVar(&fv.apiKey, "api-key", "", "YouTube Data API key")
	fs.IntVar(&fv.retries, "retries", 0, "Retries of transient fetch failures")
	fs.StringVar(&fv.retryBackoff, "retry-backoff", "", "Base backoff between retries, doubled each attempt (e.g., '1s')")
	fs.StringVar(&fv.fetchTimeout, "fetch-timeout", "", "Timeout per video (e.g., '60s')")
	fs.StringVarP(&fv.output, "output", "o", "", "Output file prefix")
	fs.BoolVarP(&fv.quiet, "quiet", "q", false, "No banner, progress bar or summary")
	fs.BoolVar(&fv.noTable, "no-table", false, "Do not print the summary table")
	fs.StringVar(&fv.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&fv.verbose, "verbose", false, "Shortcut for --log-level=debug")
	fs.BoolVarP(&fv.version, "version", "v", false, "Print version information and exit")
	fs.BoolVarP(&fv.help, "help", "h", false, "Show help")

	return fs, fv
}

func applyFlags(cfg *Config, fs *pflag.FlagSet, fv *flagValues) error {
	var err error
	durationFlag := func(name, value string, dst *time.Duration) {
		if err != nil || !fs.Changed(name) {
			return
		}
		var d time.Duration
		if d, err = ParseDelay(value); err != nil {
			err = fmt.Errorf("%w: --%s: %v", domain.ErrInvalidConfig, name, err)
			return
		}
		*dst = d
	}

	if fs.Changed("channel") {
		cfg.Core.ChannelURL = fv.channel
	}
	if fs.Changed("max-videos") {
		cfg.Core.MaxVideos = fv.maxVideos
	}
	if fs.Changed("threads") {
		cfg.Core.Workers = fv.threads
	}
	durationFlag("timeout", fv.timeout, &cfg.Core.Timeout)
	durationFlag("delay", fv.delay, &cfg.Rate.Delay)
	durationFlag("backoff", fv.backoff, &cfg.Rate.Backoff)
	durationFlag("retry-backoff", fv.retryBackoff, &cfg.Source.RetryBackoff)
	durationFlag("fetch-timeout", fv.fetchTimeout, &cfg.Source.FetchTimeout)
	if err != nil {
		return err
	}

	if fs.Changed("batch-delay") {
		d, n, perr := ParseBatchDelay(fv.batchDelay)
		if perr != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, perr)
		}
		cfg.Rate.BatchDelay, cfg.Rate.BatchSize = d, n
	}
	if fs.Changed("enumerator") {
		cfg.Source.Enumerator = fv.enumerator
	}
	if fs.Changed("fetcher") {
		cfg.Source.Fetcher = fv.fetcher
	}
	if fs.Changed("ytdlp") {
		cfg.Source.YtDlpPath = fv.ytdlp
	}
	if fs.Changed("api-key") {
		cfg.Source.APIKey = fv.apiKey
	}
	if fs.Changed("retries") {
		cfg.Source.Retries = fv.retries
	}
	if fs.Changed("output") {
		cfg.Output.Prefix = fv.output
	}
	if fs.Changed("quiet") {
		cfg.Output.Quiet = fv.quiet
	}
	if fs.Changed("no-table") {
		cfg.Output.TableDisabled = fv.noTable
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = fv.logLevel
	}
	if fs.Changed("verbose") {
		cfg.Log.Verbose = fv.verbose
	}
	return nil
}

// fileConfig mirrors the flags; absent keys leave the lower layer intact.
type fileConfig struct {
	Channel      *string `yaml:"channel"`
	MaxVideos    *int    `yaml:"max_videos"`
	Threads      *int    `yaml:"threads"`
	Timeout      *string `yaml:"timeout"`
	Delay        *string `yaml:"delay"`
	BatchDelay   *string `yaml:"batch_delay"`
	Backoff      *string `yaml:"backoff"`
	Enumerator   *string `yaml:"enumerator"`
	Fetcher      *string `yaml:"fetcher"`
	YtDlp        *string `yaml:"ytdlp"`
	APIKey       *string `yaml:"api_key"`
	Retries      *int    `yaml:"retries"`
	RetryBackoff *string `yaml:"retry_backoff"`
	FetchTimeout *string `yaml:"fetch_timeout"`
	Output       *string `yaml:"output"`
	NoTable      *bool   `yaml:"no_table"`
	Quiet        *bool   `yaml:"quiet"`
	LogLevel     *string `yaml:"log_level"`
}

func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}

	v := func(p *string) (string, bool) {
		if p == nil {
			return "", false
		}
		return *p, true
	}
	return applyValues(cfg, "config file", func(key string) (string, bool) {
		switch key {
		case "channel":
			return v(fc.Channel)
		case "max_videos":
			return intValue(fc.MaxVideos)
		case "threads":
			return intValue(fc.Threads)
		case "timeout":
			return v(fc.Timeout)
		case "delay":
			return v(fc.Delay)
		case "batch_delay":
			return v(fc.BatchDelay)
		case "backoff":
			return v(fc.Backoff)
		case "enumerator":
			return v(fc.Enumerator)
		case "fetcher":
			return v(fc.Fetcher)
		case "ytdlp":
			return v(fc.YtDlp)
		case "api_key":
			return v(fc.APIKey)
		case "retries":
			return intValue(fc.Retries)
		case "retry_backoff":
			return v(fc.RetryBackoff)
		case "fetch_timeout":
			return v(fc.FetchTimeout)
		case "output":
			return v(fc.Output)
		case "no_table":
			return boolValue(fc.NoTable)
		case "quiet":
			return boolValue(fc.Quiet)
		case "log_level":
			return v(fc.LogLevel)
		}
		return "", false
	})
}

// envNames lists, per setting, the variables read in increasing priority.
var envNames = map[string][]string{
	"channel":       {"YOUTUBE_CHANNEL_URL", "MAILSCOUT_CHANNEL"},
	"max_videos":    {"MAX_VIDEOS", "MAILSCOUT_MAX_VIDEOS"},
	"threads":       {"MAX_THREADS", "MAILSCOUT_THREADS"},
	"timeout":       {"MAILSCOUT_TIMEOUT"},
	"delay":         {"MAILSCOUT_DELAY"},
	"batch_delay":   {"MAILSCOUT_BATCH_DELAY"},
	"backoff":       {"MAILSCOUT_BACKOFF"},
	"enumerator":    {"MAILSCOUT_ENUMERATOR"},
	"fetcher":       {"MAILSCOUT_FETCHER"},
	"ytdlp":         {"MAILSCOUT_YTDLP"},
	"api_key":       {"YOUTUBE_API_KEY", "MAILSCOUT_API_KEY"},
	"retries":       {"MAILSCOUT_RETRIES"},
	"retry_backoff": {"MAILSCOUT_RETRY_BACKOFF"},
	"fetch_timeout": {"MAILSCOUT_FETCH_TIMEOUT"},
	"output":        {"MAILSCOUT_OUTPUT"},
	"no_table":      {"MAILSCOUT_NO_TABLE"},
	"quiet":         {"MAILSCOUT_QUIET"},
	"log_level":     {"MAILSCOUT_LOG_LEVEL"},
}

func loadFromEnv(cfg *Config) error {
	return applyValues(cfg, "environment", func(key string) (string, bool) {
		var (
			val   string
			found bool
		)
		for _, name := range envNames[key] {
			if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
				val, found = v, true
			}
		}
		return val, found
	})
}

// applyValues sets every key that lookup reports as present.
func applyValues(cfg *Config, layer string, lookup func(key string) (string, bool)) error {
	var errs []error
	invalid := func(key string, err error) {
		errs = append(errs, fmt.Errorf("%s: %s: %v", layer, key, err))
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				invalid(key, err)
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := ParseDelay(v)
			if err != nil {
				invalid(key, err)
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			*dst = parseBool(v)
		}
	}

	str("channel", &cfg.Core.ChannelURL)
	num("max_videos", &cfg.Core.MaxVideos)
	num("threads", &cfg.Core.Workers)
	dur("timeout", &cfg.Core.Timeout)
	dur("delay", &cfg.Rate.Delay)
	if v, ok := lookup("batch_delay"); ok {
		d, n, err := ParseBatchDelay(v)
		if err != nil {
			invalid("batch_delay", err)
		} else {
			cfg.Rate.BatchDelay, cfg.Rate.BatchSize = d, n
		}
	}
	dur("backoff", &cfg.Rate.Backoff)
	str("enumerator", &cfg.Source.Enumerator)
	str("fetcher", &cfg.Source.Fetcher)
	str("ytdlp", &cfg.Source.YtDlpPath)
	str("api_key", &cfg.Source.APIKey)
	num("retries", &cfg.Source.Retries)
	dur("retry_backoff", &cfg.Source.RetryBackoff)
	dur("fetch_timeout", &cfg.Source.FetchTimeout)
	str("output", &cfg.Output.Prefix)
	flag("no_table", &cfg.Output.TableDisabled)
	flag("quiet", &cfg.Output.Quiet)
	str("log_level", &cfg.Log.Level)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func normalize(c *Config) {
	c.Source.Enumerator = strings.ToLower(strings.TrimSpace(c.Source.Enumerator))
	c.Source.Fetcher = strings.ToLower(strings.TrimSpace(c.Source.Fetcher))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Verbose {
		c.Log.Level = "debug"
	}

	// a batch size without a pause is no batching at all
	if c.Rate.BatchDelay == 0 {
		c.Rate.BatchSize = 0
	}

	if url, err := domain.NormalizeChannelURL(c.Core.ChannelURL); err == nil {
		c.Core.ChannelURL = url
	}
}

// Helpers

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func intValue(p *int) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.Itoa(*p), true
}

func boolValue(p *bool) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.FormatBool(*p), true
}
