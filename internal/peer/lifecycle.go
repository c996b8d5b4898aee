package peer

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"lansocial/internal/ui"
)

// Start launches background goroutines and the configured UI surfaces.
func (a *App) Start() {
	if a == nil {
		return
	}
	a.startOnce.Do(func() {
		var sinks []ui.Sink
		if a.Cfg.UseCLI {
			sinks = append(sinks, ui.NewCLIDisplay(ui.ShouldUseColor(a.Cfg.NoColor)))
		}
		if a.Cfg.UseTUI {
			a.tui = ui.NewTUIDisplay(a.handleLine)
			sinks = append(sinks, a.tui)
			go func() {
				if err := a.tui.Run(a.ctx); err != nil {
					log.Printf("tui error: %v", err)
				}
			}()
		}
		if a.Cfg.UseWeb {
			a.web = ui.NewWebBridge(a.Cfg.WebAddr, a.Self, a.Router, a.presenceSnapshot, a.handleLine)
			sinks = append(sinks, a.web)
			go a.web.Run(a.ctx)
		}
		a.sink = ui.NewMultiSink(sinks...)

		if err := a.Announcer.Announce(); err != nil {
			log.Printf("announce failed: %v", err)
		}
		if err := a.Router.RequestPeerList(); err != nil {
			log.Printf("peer list request failed: %v", err)
		}
		a.announceProfile()

		go a.Announcer.AnnounceLoop(a.ctx)
		go a.Announcer.SweepLoop(a.ctx)
		go a.receiveLoop()
		go a.pumpRouterEvents()
		go a.pumpRegistryEvents()

		if a.Cfg.UseCLI {
			go a.readInput(os.Stdin)
		}
	})
}

// Shutdown stops background goroutines and releases resources.
func (a *App) Shutdown() {
	if a == nil {
		return
	}
	a.shutdownOnce.Do(func() {
		a.cancel()
		if a.web != nil {
			a.web.Close()
		}
		if a.Transport != nil {
			a.Transport.Close()
		}
	})
}

// WaitForShutdown blocks until an interrupt signal arrives, then shuts down
// the peer gracefully.
func WaitForShutdown(app *App) {
	if app == nil {
		return
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")
	app.Shutdown()
}

func (a *App) announceProfile() {
	if a.Cfg.DisplayName == "" && a.Cfg.Status == "" && a.Cfg.AvatarPath == "" {
		return
	}
	avatar, err := loadAvatar(a.Cfg.AvatarPath)
	if err != nil {
		log.Printf("avatar %s: %v", a.Cfg.AvatarPath, err)
	}
	if err := a.Router.UpdateProfile(a.Cfg.DisplayName, a.Cfg.Status, avatar); err != nil {
		log.Printf("profile announce failed: %v", err)
	}
}
