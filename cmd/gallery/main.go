package main

import (
	"os"

	"photobooth/internal/app/gallery"
	"photobooth/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	galleryApp, err := gallery.NewApp(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create gallery")
	}

	if err := galleryApp.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Gallery failed")
	}

	zlog.Logger.Info().Msg("Gallery exited successfully")
	os.Exit(0)
}
