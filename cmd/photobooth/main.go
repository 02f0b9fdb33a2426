package main

import (
	"io"
	"os"

	"photobooth/internal/app"
	"photobooth/internal/config"
	"photobooth/internal/eventbus"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	logs := eventbus.NewLogRing(cfg.Debug.LogBuffer)
	zlog.Logger = zlog.Logger.Output(io.MultiWriter(os.Stdout, logs))

	kiosk, err := app.NewApp(cfg, &zlog.Logger, logs)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create app")
	}

	if err := kiosk.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("App failed")
	}

	zlog.Logger.Info().Msg("App exited successfully")
	os.Exit(0)
}
