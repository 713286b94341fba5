// internal/platform/config/help.go
package config

import (
	"fmt"
	"io"
	"runtime"
)

const helpText = `
mailscout - YouTube channel email harvester

USAGE:
  mailscout -c <channel> [options]

IMPORTANT:
  Use double dash (--) for long flag names: --channel, --threads, --delay
  Use single dash (-) for short flags: -c, -t, -d

  ❌ WRONG:  mailscout -channel @somechannel
  ✓  RIGHT:  mailscout --channel @somechannel
  ✓  RIGHT:  mailscout -c https://www.youtube.com/@somechannel/videos

CORE OPTIONS:
  -c, --channel string       Channel URL or handle (required, e.g., @somechannel)
  -m, --max-videos int       Maximum number of videos to analyze (default: 300)
  -t, --threads int          Number of parallel workers (default: 10)
  -T, --timeout duration     Global run timeout, 0=no timeout (default: 0)
      --config string        YAML configuration file

RATE OPTIONS:
  -d, --delay duration       Delay between requests, e.g. '0.5s', '500ms', '1' (default: 0)
      --batch-delay string   Pause after every N requests, 'DELAY/N', e.g. '3s/50'
      --backoff duration     Pause all workers after a rate-limited response (default: 0)

SOURCE OPTIONS:
      --enumerator string    Channel listing backend: ytdlp, webpage, api (default: ytdlp)
      --fetcher string       Video metadata backend: ytdlp, api (default: ytdlp)
      --ytdlp string         Path to the yt-dlp binary (default: yt-dlp)
      --api-key string       YouTube Data API key (required by the api backend)
      --retries int          Retries of transient fetch failures (default: 2)
      --retry-backoff dur    Base backoff between retries, doubled each attempt (default: 1s)
      --fetch-timeout dur    Timeout per video, 0=none (default: 60s)

OUTPUT OPTIONS:
  -o, --output string        Output file prefix (default: "emails_youtube")
  -q, --quiet                No banner, progress bar or summary
      --no-table             Do not print the summary table
      --log-level string     debug, info, warn, error (default: info)
      --verbose              Shortcut for --log-level=debug

INFO:
  -v, --version              Print version information and exit
  -h, --help                 Show this help message

EXAMPLES:
  Basic run:
    mailscout -c @somechannel

  Gentle run for large channels:
    mailscout -c @somechannel -m 1000 -t 4 -d 1s --batch-delay 30s/100 --backoff 60s

  No yt-dlp installed, API key available:
    mailscout -c @somechannel --enumerator api --fetcher api --api-key $KEY

ENVIRONMENT VARIABLES:
  A .env file in the working directory is loaded first.

  YOUTUBE_CHANNEL_URL               Channel URL
  MAX_VIDEOS=300                    Maximum number of videos
  MAX_THREADS=10                    Number of workers
  YOUTUBE_API_KEY                   YouTube Data API key
  MAILSCOUT_CONFIG=/path.yaml       Configuration file
  MAILSCOUT_DELAY=0.5s              Delay between requests
  MAILSCOUT_BATCH_DELAY=3s/50       Batch pause
  MAILSCOUT_BACKOFF=60s             Rate-limit backoff
  MAILSCOUT_ENUMERATOR=webpage      Channel listing backend
  MAILSCOUT_FETCHER=api             Video metadata backend
  MAILSCOUT_OUTPUT=emails           Output file prefix
  MAILSCOUT_LOG_LEVEL=debug         Log level

  Note: CLI flags override environment variables, which override the config file.

OUTPUT:
  <prefix>.json   Run metadata, stats, every video and every unique email
  <prefix>.csv    One row per unique email with its source videos
`

// PrintHelp writes the help message.
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, helpText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer, version, commit, date string) {
	fmt.Fprintf(w, "mailscout %s\n", version)
	fmt.Fprintf(w, "  Commit:  %s\n", commit)
	fmt.Fprintf(w, "  Built:   %s\n", date)
	fmt.Fprintf(w, "  Go:      %s\n", runtime.Version())
}
