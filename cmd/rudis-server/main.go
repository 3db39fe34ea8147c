// Command rudis-server starts the server: it loads a config file (or the
// built-in defaults), restores persisted data, and serves RESP connections
// until a signal or a SHUTDOWN command ends it. Startup sequence is
// grounded on the teacher's cmd/main.go, trimmed to this module's own
// server.Server rather than a global *common.AppState.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashmaji946/rudis/internal/config"
	"github.com/akashmaji946/rudis/internal/logging"
	"github.com/akashmaji946/rudis/internal/server"
)

const banner = `
   ____  _     _ _
  |  _ \| |   | (_)
  | |_) | |   | |_ ___
  |  _ <| |   | | / __|
  | |_) | |___| | \__ \
  |____/|______|_|___/
`

func main() {
	fmt.Println(banner)
	logger := logging.New()
	logger.Info("rudis server starting")

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	var cfg *config.Config
	if configPath == "" {
		logger.Info("no config file given, using built-in defaults")
		cfg = config.Default()
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			logger.Error("reading config %s: %v", configPath, err)
			os.Exit(1)
		}
		logger.Info("loaded config: %s", configPath)
	}

	srv := server.New(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received %s, shutting down", sig)
		srv.Shutdown(true)
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server exited: %v", err)
		os.Exit(1)
	}
}
