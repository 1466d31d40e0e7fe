package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/swelljoe/wthr-widget/internal/config"
	"github.com/swelljoe/wthr-widget/internal/db"
	"github.com/swelljoe/wthr-widget/internal/tui"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

func main() {
	logFile := flag.String("log", "", "Write logs to this file (default: no logging)")
	noCache := flag.Bool("no-cache", false, "Do not open the local database")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *logFile != "" {
		if logger, err = cfg.NewLoggerTo(*logFile); err != nil {
			fmt.Printf("Error creating logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	var opts []weather.Option
	if !*noCache {
		store, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("database unavailable", zap.String("path", cfg.DBPath), zap.Error(err))
		} else {
			defer store.Close()
			opts = append(opts, weather.WithStore(store, cfg.CacheTTL))
		}
	}

	client := weather.NewClient(cfg.ClientOptions())
	svc := weather.NewService(client, logger.Named("weather"), opts...)

	p := tea.NewProgram(tui.NewModel(svc, logger.Named("tui")), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
