package main

import (
	"context"
	"fmt"
	"os"

	"github.com/diegodinero/orderpanel/internal/infrastructure/gateway"
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
		Account string `yaml:"account"`
		Symbol  string `yaml:"symbol"`
	} `yaml:"panel"`
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
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing gateway interaction...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Gateway.RESTEndpoint)

	broker := gateway.NewBrokerAdapter(
		cfg.Gateway.APIKey,
		cfg.Gateway.APISecret,
		cfg.Gateway.RESTEndpoint,
		cfg.Gateway.WSEndpoint,
		zap.NewNop(),
	)

	ctx := context.Background()

	metrics, err := broker.GetSymbolMetrics(ctx, cfg.Panel.Symbol)
	if err != nil {
		fmt.Printf("GetSymbolMetrics failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Metrics for %s: bid=%f ask=%f tickSize=%f tickCost=%f lots=[%f..%f] step=%f\n",
		metrics.Symbol, metrics.Bid, metrics.Ask, metrics.TickSize, metrics.TickCost,
		metrics.MinLot, metrics.MaxLot, metrics.LotStep)

	positions, err := broker.GetPositions(ctx, cfg.Panel.Account)
	if err != nil {
		fmt.Printf("GetPositions failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Open positions: %d\n", len(positions))
	for _, p := range positions {
		fmt.Printf("  %s %s qty=%f entry=%f pnl=%f\n", p.Symbol, p.Side, p.Quantity, p.EntryPrice, p.UnrealizedPnL)
	}
}
