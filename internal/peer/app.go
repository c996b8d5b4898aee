package peer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"lansocial/internal/registry"
	"lansocial/internal/router"
	"lansocial/internal/token"
	"lansocial/internal/transport"
	"lansocial/internal/ui"
)

// App encapsulates the peer runtime components.
type App struct {
	Cfg *Config

	ctx    context.Context
	cancel context.CancelFunc

	Transport *transport.UDP
	Registry  *registry.Registry
	Announcer *registry.Announcer
	Router    *router.Router
	Self      string

	sink ui.Sink
	tui  *ui.TUIDisplay
	web  *ui.WebBridge

	startOnce    sync.Once
	shutdownOnce sync.Once
}

// NewApp wires all peer dependencies according to the provided config.
func NewApp(cfg *Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	tr, err := transport.New(cfg.DiscoveryPort, cfg.BroadcastAddr)
	if err != nil {
		cancel()
		return nil, err
	}
	tr.Start()
	if !tr.HasDiscoverySocket() {
		log.Printf("running without the shared discovery socket; announcements still go out")
	}

	self := fmt.Sprintf("%s@%s", cfg.Username, transport.LocalIP())
	log.Printf("peer %s listening on udp port %d (discovery %d)", self, tr.Port(), cfg.DiscoveryPort)

	reg := registry.NewRegistry(self, cfg.PeerTimeout)
	ann := registry.NewAnnouncer(reg, tr, tr.Port(), cfg.AnnounceEvery, cfg.SweepEvery)

	var verifier token.Verifier = token.NoopVerifier{}
	if cfg.VerifyTokens {
		verifier = token.ScopeVerifier{}
	}

	rt := router.New(router.Options{
		Self:      self,
		Registry:  reg,
		Transport: tr,
		Discovery: ann,
		Verifier:  verifier,
	})

	return &App{
		Cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		Transport: tr,
		Registry:  reg,
		Announcer: ann,
		Router:    rt,
		Self:      self,
	}, nil
}
