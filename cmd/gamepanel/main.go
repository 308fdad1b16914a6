package main

import (
	"flag"
	"fmt"
	"os"

	"gamepanel/internal/auth"
	"gamepanel/internal/config"
	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
	"gamepanel/internal/server"
	"gamepanel/internal/version"
)

func main() {
	// 0. Flags
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config.yaml (default: "+config.GetConfigPath()+")")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppDisplayName, version.Version)
		os.Exit(0)
	}

	// 1. Initialize logger
	log := logger.NewLogger(constants.DefaultLogLevel)
	log.Info("%s version %s starting", constants.AppDisplayName, version.Version)

	// 2. Load config
	log.Info("Loading configuration...")
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFrom(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.LogLevel)
	cfg.LogEffectiveValues(log)

	// 3. Build the application: data dir, database, auth, hub
	app, err := server.NewApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize: %v", err)
		os.Exit(1)
	}
	if app.Bootstrap != nil {
		printBootstrap(app.Bootstrap)
	}

	// 4. File logging under the data directory
	if err := log.EnableFileOutput(cfg.DataDir); err != nil {
		log.Warn("Failed to enable file logging: %v", err)
	} else {
		log.Info("File logging enabled in %s", cfg.DataDir)
	}
	defer log.Close()

	// 5. Start HTTP server
	srv := server.NewServer(app, fmt.Sprintf(":%d", cfg.Port))
	log.Info("Starting %s on port %d", constants.AppDisplayName, cfg.Port)
	if err := srv.Start(); err != nil {
		log.Error("Server error: %v", err)
		os.Exit(1)
	}
}

func printBootstrap(b *auth.BootstrapResult) {
	password := b.Password
	if !b.Generated {
		password = "(from configuration)"
	}
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              INITIAL ADMIN CREDENTIALS                       ║")
	fmt.Println("║  Save these now. They will NOT be shown again.               ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Username : %-49s║\n", b.Username)
	fmt.Printf("║  Password : %-49s║\n", password)
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
}
