package peer

import (
	"flag"
	"log"
	"strings"
	"time"
)

const (
	defaultDiscoveryPort = 50999
	defaultBroadcast     = "255.255.255.255"
)

// Config holds peer runtime settings derived from CLI flags.
type Config struct {
	Username      string
	DisplayName   string
	Status        string
	AvatarPath    string
	DiscoveryPort int
	BroadcastAddr string
	AnnounceEvery time.Duration
	SweepEvery    time.Duration
	PeerTimeout   time.Duration
	VerifyTokens  bool
	NoColor       bool
	UseTUI        bool
	UseCLI        bool
	UseWeb        bool
	WebAddr       string
}

// LoadConfig parses CLI flags and returns a populated Config.
func LoadConfig() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Username, "username", "", "local username (required)")
	flag.StringVar(&cfg.DisplayName, "name", "", "display name announced to peers")
	flag.StringVar(&cfg.Status, "status", "", "status line announced to peers")
	flag.StringVar(&cfg.AvatarPath, "avatar", "", "path to an avatar image announced with the profile")
	flag.IntVar(&cfg.DiscoveryPort, "discovery-port", defaultDiscoveryPort, "UDP port shared by all peers for discovery broadcasts")
	flag.StringVar(&cfg.BroadcastAddr, "broadcast", defaultBroadcast, "broadcast address for discovery")
	flag.DurationVar(&cfg.AnnounceEvery, "announce", 30*time.Second, "interval between presence broadcasts")
	flag.DurationVar(&cfg.SweepEvery, "sweep", time.Minute, "interval between liveness sweeps")
	flag.DurationVar(&cfg.PeerTimeout, "peer-timeout", 5*time.Minute, "silence after which a peer is considered gone")
	flag.BoolVar(&cfg.VerifyTokens, "verify-tokens", false, "reject inbound messages without a valid scoped token")
	flag.BoolVar(&cfg.NoColor, "no-color", false, "disable ANSI colors in CLI output")
	flag.BoolVar(&cfg.UseTUI, "tui", false, "enable terminal UI mode")
	flag.BoolVar(&cfg.UseWeb, "web", false, "serve the local web bridge")
	flag.StringVar(&cfg.WebAddr, "web-addr", "127.0.0.1:8081", "address for the web bridge")

	flag.Parse()

	if cfg.Username == "" {
		log.Fatal("missing -username")
	}
	if strings.ContainsAny(cfg.Username, "@|,:\n") {
		log.Fatalf("username %q may not contain @ | , : or newlines", cfg.Username)
	}
	cfg.UseCLI = !cfg.UseTUI

	return cfg
}
