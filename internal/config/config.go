package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingGameID is returned when no game id was given.
var ErrMissingGameID = errors.New("missing game id")

// Config holds everything the client needs to join one game.
type Config struct {
	Server       string
	GameID       string
	PlayerID     string
	Variant      string
	DSN          string
	ThemeFile    string
	LogFile      string
	BaseDelay    time.Duration
	MaxAttempts  int
	HighlightFor time.Duration
	ToastTTL     time.Duration
	PingInterval time.Duration
	Headless     bool
	Debug        bool
	Version      bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:       "ws://localhost:8000",
		Variant:      "chaturaji",
		BaseDelay:    2 * time.Second,
		MaxAttempts:  5,
		HighlightFor: 2 * time.Second,
		ToastTTL:     5 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Parse reads flags from args, falling back to CHESS_* environment variables
// for anything not given on the command line.
func Parse(args []string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	cfg.applyEnv(getenv)

	fs := flag.NewFlagSet("chessclient", flag.ContinueOnError)
	fs.StringVar(&cfg.Server, "server", cfg.Server, "game server base URL (ws, wss, http or https)")
	fs.StringVar(&cfg.GameID, "game", cfg.GameID, "game id to join")
	fs.StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "player id (generated when empty)")
	fs.StringVar(&cfg.Variant, "variant", cfg.Variant, "game variant: chaturaji or enochian")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "optional PostgreSQL DSN for theme and move archive")
	fs.StringVar(&cfg.ThemeFile, "theme-file", cfg.ThemeFile, "theme preference file (default under the user config dir)")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file (TUI mode logs here instead of stderr)")
	fs.DurationVar(&cfg.BaseDelay, "base-delay", cfg.BaseDelay, "reconnect base delay; attempt k waits k times this")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "reconnect attempts before giving up")
	fs.DurationVar(&cfg.HighlightFor, "highlight", cfg.HighlightFor, "how long last-move squares stay highlighted")
	fs.DurationVar(&cfg.ToastTTL, "toast-ttl", cfg.ToastTTL, "how long notifications stay visible")
	fs.DurationVar(&cfg.PingInterval, "ping", cfg.PingInterval, "keepalive ping interval (0 disables)")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "log events instead of drawing the board")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	fs.BoolVar(&cfg.Version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Version {
		return cfg, nil
	}
	if fs.NArg() > 0 && cfg.GameID == "" {
		cfg.GameID = fs.Arg(0)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("CHESS_SERVER"); v != "" {
		c.Server = v
	}
	if v := getenv("CHESS_GAME"); v != "" {
		c.GameID = v
	}
	if v := getenv("CHESS_PLAYER"); v != "" {
		c.PlayerID = v
	}
	if v := getenv("CHESS_VARIANT"); v != "" {
		c.Variant = v
	}
	if v := getenv("CHESS_DSN"); v != "" {
		c.DSN = v
	}
	if v := getenv("CHESS_DEBUG"); v != "" {
		c.Debug, _ = strconv.ParseBool(v)
	}
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GameID) == "" {
		return ErrMissingGameID
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative: %d", c.MaxAttempts)
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive: %s", c.BaseDelay)
	}
	switch c.Variant {
	case "chaturaji", "enochian":
	default:
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	if _, err := GameURL(c.Server, c.GameID, "p"); err != nil {
		return err
	}
	return nil
}

// GameURL builds <server>/ws/game/{gameID}?player_id={playerID}. http and
// https servers are mapped to ws and wss.
func GameURL(server, gameID, playerID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(server))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", server)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/game/" + gameID
	u.RawPath = ""
	u.RawQuery = url.Values{"player_id": {playerID}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}
