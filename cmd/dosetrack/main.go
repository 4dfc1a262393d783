package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dosetrack/dosetrack/internal/api"
	"github.com/dosetrack/dosetrack/internal/clock"
	"github.com/dosetrack/dosetrack/internal/config"
	"github.com/dosetrack/dosetrack/internal/medicine"
	"github.com/dosetrack/dosetrack/internal/notify"
	"github.com/dosetrack/dosetrack/internal/reminder"
	"github.com/dosetrack/dosetrack/internal/store"
	"github.com/dosetrack/dosetrack/internal/sweep"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			os.Args = append(os.Args[:1], os.Args[2:]...)
			flag.Parse()
			runServe()
			return
		case "token":
			os.Args = append(os.Args[:1], os.Args[2:]...)
			flag.Parse()
			runToken()
			return
		case "init":
			os.Args = append(os.Args[:1], os.Args[2:]...)
			flag.Parse()
			runInit()
			return
		case "status":
			os.Args = append(os.Args[:1], os.Args[2:]...)
			flag.Parse()
			runStatus()
			return
		case "version":
			fmt.Printf("dosetrack %s\n", version)
			return
		case "help", "-h", "--help":
			printUsage()
			return
		}
	}

	flag.Parse()
	runServe()
}

func printUsage() {
	fmt.Println(`dosetrack - medication reminder scheduling & adherence engine

Usage:
  dosetrack serve [-config path] [-data dir]   Start the HTTP API server
  dosetrack token [-config path] [-data dir]   Mint an API token (prompts for admin password)
  dosetrack init  [-config path] [-data dir]   Write a starter config file
  dosetrack status [-config path] [-data dir]  Show stored data counts
  dosetrack version                            Print version`)
}

func runServe() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	meds, err := medicine.NewStore(st.DB())
	if err != nil {
		logger.Fatal("Failed to init medicine store", zap.Error(err))
	}

	remStore, err := reminder.NewStore(st.DB())
	if err != nil {
		logger.Fatal("Failed to init reminder store", zap.Error(err))
	}
	remStore.WithLogCap(cfg.Reminder.IntakeLogCap)

	dispatcher := buildDispatcher(cfg, st, logger)

	service := reminder.NewService(remStore, meds, dispatcher, clock.System(), logger, reminder.Options{
		HorizonDays:          cfg.Reminder.HorizonDays,
		GraceMinutes:         cfg.Reminder.GraceMinutes,
		DefaultSnoozeMinutes: cfg.Reminder.DefaultSnoozeMinutes,
	})

	watchConfig(cfg, service, logger)

	var runner *sweep.Runner
	if cfg.Sweep.Enabled {
		runner, err = sweep.New(cfg.Sweep.Spec, service, dispatcher, clock.System(), logger)
		if err != nil {
			logger.Fatal("Failed to init sweep", zap.Error(err))
		}
		runner.Start()
	}

	server := api.New(cfg, meds, service, logger)

	go func() {
		logger.Info("Starting API server",
			zap.String("address", cfg.Server.Address),
			zap.Int("port", cfg.Server.Port),
		)
		if err := server.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if runner != nil {
		runner.Stop()
	}
	if err := server.Shutdown(); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}

func buildDispatcher(cfg *config.Config, st *store.Store, logger *zap.Logger) *notify.Dispatcher {
	var senders []notify.Sender

	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramSender(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("Telegram sender unavailable", zap.Error(err))
		} else {
			senders = append(senders, tg)
		}
	}

	if cfg.Notify.Discord.Enabled {
		dc, err := notify.NewDiscordSender(cfg.Notify.Discord.Token, cfg.Notify.Discord.ChannelID, logger)
		if err != nil {
			logger.Warn("Discord sender unavailable", zap.Error(err))
		} else {
			senders = append(senders, dc)
		}
	}

	return notify.NewDispatcher(st.Badger(), senders, cfg.Notify.SendsPerMinute, logger)
}

// watchConfig picks up edits to reminder tunables without a restart.
func watchConfig(cfg *config.Config, service *reminder.Service, logger *zap.Logger) {
	path := *configPath
	if path == "" {
		path = filepath.Join(cfg.Storage.DataDir, "dosetrack.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	err := config.Watch(path, func(fresh *config.Config) {
		service.UpdateOptions(reminder.Options{
			HorizonDays:          fresh.Reminder.HorizonDays,
			GraceMinutes:         fresh.Reminder.GraceMinutes,
			DefaultSnoozeMinutes: fresh.Reminder.DefaultSnoozeMinutes,
		})
		logger.Info("Reminder tunables reloaded",
			zap.Int("horizon_days", fresh.Reminder.HorizonDays),
			zap.Int("grace_minutes", fresh.Reminder.GraceMinutes),
		)
	})
	if err != nil {
		logger.Warn("Config watch unavailable", zap.Error(err))
	}
}

// runToken prompts for the admin password and prints a signed API token.
func runToken() {
	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Security.AdminPassword == "" {
		log.Fatal("security.admin_password is not configured")
	}
	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret is not configured")
	}

	fmt.Fprint(os.Stderr, "Admin password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("failed to read password: %v", err)
	}
	if string(password) != cfg.Security.AdminPassword {
		log.Fatal("invalid password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cli",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(30 * 24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(cfg.Security.JWTSecret))
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(signed)
}

// runStatus prints a quick summary of the stored data.
func runStatus() {
	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	st, err := store.New(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	meds, err := medicine.NewStore(st.DB())
	if err != nil {
		log.Fatalf("failed to init medicine store: %v", err)
	}
	remStore, err := reminder.NewStore(st.DB())
	if err != nil {
		log.Fatalf("failed to init reminder store: %v", err)
	}

	all, err := meds.List("")
	if err != nil {
		log.Fatalf("failed to list medicines: %v", err)
	}
	logCount, err := remStore.CountLog()
	if err != nil {
		log.Fatalf("failed to count intake log: %v", err)
	}

	fmt.Printf("data dir:      %s\n", cfg.Storage.DataDir)
	fmt.Printf("medicines:     %d\n", len(all))
	fmt.Printf("intake log:    %d entries\n", logCount)
	for _, med := range all {
		state := "active"
		if med.Paused {
			state = "paused"
		}
		if !med.Enabled {
			state = "disabled"
		}
		fmt.Printf("  %-20s %-10s %s\n", med.Name, state, med.Mode)
	}
}

// runInit writes a starter config file next to the data directory.
func runInit() {
	dir := *dataDir
	if dir == "" {
		dir = "./data"
	}
	path := *configPath
	if path == "" {
		path = filepath.Join(dir, "dosetrack.yaml")
	}

	if err := config.WriteStarter(path); err != nil {
		log.Fatalf("failed to write config: %v", err)
	}
	fmt.Printf("wrote %s\n", path)
}
