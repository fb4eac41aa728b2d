package main

import (
	"context"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/segmentio/ksuid"

	"dockside/client"
	"dockside/relay"
	"dockside/server"
	"dockside/utils"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	if len(os.Args) > 1 && os.Args[1] == "server" {
		if err := server.Run(os.Args[1:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := utils.ReadTOML("config.toml")
	if err != nil {
		log.Fatal(err)
	}

	relayURL := os.Getenv("DOCKSIDE_RELAY_URL")
	relayKey := os.Getenv("DOCKSIDE_RELAY_KEY")
	if relayURL == "" || relayKey == "" {
		log.Fatal("DOCKSIDE_RELAY_URL and DOCKSIDE_RELAY_KEY must be set")
	}

	id := ksuid.New().String()
	game := client.NewGame(cfg, id)

	ebiten.SetWindowSize(cfg.UI.Resolution.X, cfg.UI.Resolution.Y)
	ebiten.SetWindowTitle("Dockside")

	// Dial in the background: a relay that's down leaves the client running
	// with the "connecting" indicator rather than refusing to start.
	go game.Connect(context.Background(), relay.Config{
		URL:      relayURL,
		Key:      relayKey,
		LobbyID:  cfg.Game.Lobby,
		ID:       id,
		Username: cfg.Player.Username,
	})
	defer game.Disconnect()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
