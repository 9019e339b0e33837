package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diegodinero/orderpanel/internal/infrastructure/gateway"
	"github.com/diegodinero/orderpanel/internal/infrastructure/logger"
	"github.com/diegodinero/orderpanel/internal/infrastructure/storage"
	"github.com/diegodinero/orderpanel/internal/usecase"
	"github.com/diegodinero/orderpanel/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Gateway struct {
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"gateway"`
	Panel struct {
		Account              string  `yaml:"account"`
		Symbol               string  `yaml:"symbol"`
		RiskAmount           float64 `yaml:"risk_amount"`
		RewardMultiplier     float64 `yaml:"reward_multiplier"`
		XShift               int     `yaml:"x_shift"`
		YShift               int     `yaml:"y_shift"`
		UIScale              float64 `yaml:"ui_scale"`
		BreakEvenMode        string  `yaml:"break_even_mode"`
		PartialCloseFraction float64 `yaml:"partial_close_fraction"`
	} `yaml:"panel"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level    string `yaml:"level"`
		AuditLog string `yaml:"audit_log"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "panel.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}

	// 4. Init Gateway
	auditLogger := log
	if cfg.Logging.AuditLog != "" {
		auditLogger, err = logger.NewFileLogger(cfg.Logging.AuditLog, "debug")
		if err != nil {
			log.Error("Failed to init audit logger, using default", zap.Error(err))
			auditLogger = log
		}
	}
	broker := gateway.NewBrokerAdapter(
		cfg.Gateway.APIKey,
		cfg.Gateway.APISecret,
		cfg.Gateway.RESTEndpoint,
		cfg.Gateway.WSEndpoint,
		auditLogger,
	)

	// 5. Init Panel Service. The audit logger captures every arm, capture and
	// submission, so the analyzer can replay the session offline.
	panel := usecase.NewPanelService(broker, store, usecase.PanelConfig{
		Account:              cfg.Panel.Account,
		Symbol:               cfg.Panel.Symbol,
		RiskAmount:           cfg.Panel.RiskAmount,
		RewardMultiplier:     cfg.Panel.RewardMultiplier,
		XShift:               cfg.Panel.XShift,
		YShift:               cfg.Panel.YShift,
		UIScale:              cfg.Panel.UIScale,
		BreakEvenMode:        usecase.BEDisplayMode(cfg.Panel.BreakEvenMode),
		PartialCloseFraction: cfg.Panel.PartialCloseFraction,
	}, auditLogger)
	panel.Bind()

	// 6. Seed instrument metrics before the first decision
	metrics, err := broker.GetSymbolMetrics(context.Background(), cfg.Panel.Symbol)
	if err != nil {
		log.Error("Failed to fetch symbol metrics", zap.Error(err))
	} else {
		panel.SetMetrics(*metrics)
	}

	// 7. Connect quote/execution stream
	if err := broker.Subscribe([]string{cfg.Panel.Symbol}); err != nil {
		log.Error("Failed to subscribe to quote stream", zap.Error(err))
	}

	// 8. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, panel, store, broker, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
	store.Close()
}
