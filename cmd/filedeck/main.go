package main

import (
	"errors"
	"os"

	"filedeck/internal/app"
	"filedeck/internal/config"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Str("level", cfg.Log.Level).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	application := app.NewApp(cfg, &zlog.Logger, os.Stdin, os.Stdout)
	if err := application.Run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) {
			os.Exit(2)
		}
		zlog.Logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
