package main

import (
	"log"

	"lansocial/internal/peer"
)

func main() {
	cfg := peer.LoadConfig()
	app, err := peer.NewApp(cfg)
	if err != nil {
		log.Fatalf("start peer: %v", err)
	}
	app.Start()
	peer.WaitForShutdown(app)
}
