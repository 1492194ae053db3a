package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/netinfo"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/server"
)

func main() {
	configFile := flag.String("config", "", "YAML config file")
	port := flag.String("port", "", "Server port (env PORT, default 3001)")
	host := flag.String("host", "", "Listen host (env HOST, default 0.0.0.0)")
	storageRoot := flag.String("storage", "", "Storage root directory (env STORAGE_ROOT, default ./uploads)")
	maxSize := flag.Int64("max-size", 0, "Per-file upload limit in MB (env MAX_FILE_SIZE_MB, default 100)")
	dev := flag.Bool("dev", false, "Development mode: colored debug logs")
	showQR := flag.Bool("qr", false, "Print a QR code of the LAN URL")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Only flags given on the command line override env and file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "host":
			cfg.Server.Host = *host
		case "storage":
			cfg.Storage.Root = *storageRoot
		case "max-size":
			cfg.Storage.MaxFileSizeMB = *maxSize
		case "dev":
			cfg.Logging.Development = *dev
		}
	})

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	if cfg.Logging.Development && !isSet("LOG_LEVEL") {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	urls := srv.LANURLs()
	fmt.Printf("LanDrop serving %s\n", srv.Store().Root().Dir())
	fmt.Printf("  Local:   http://localhost:%s\n", cfg.Server.Port)
	for _, u := range urls {
		fmt.Printf("  Network: %s\n", u)
	}
	if *showQR && len(urls) > 0 {
		fmt.Println("\nScan to open from a phone:")
		netinfo.PrintQR(os.Stdout, urls[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		srv.Close()
		os.Exit(1)
	}
	srv.Close()
}

func isSet(env string) bool {
	_, ok := os.LookupEnv(env)
	return ok
}
