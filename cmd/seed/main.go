// Command seed fills a running storefront with a demo catalog.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/ShopyKart/internal/seed"
	pkgconfig "github.com/utafrali/ShopyKart/pkg/config"
	"github.com/utafrali/ShopyKart/pkg/logger"
)

type seedConfig struct {
	APIURL        string `env:"SEED_API_URL" envDefault:"http://localhost:8080"`
	AdminEmail    string `env:"ADMIN_EMAIL,required"`
	AdminPassword string `env:"ADMIN_PASSWORD,required"`
	Products      int    `env:"SEED_PRODUCTS" envDefault:"50"`
	RandomSeed    uint64 `env:"SEED_RANDOM" envDefault:"42"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg, ".env"); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := seed.NewClient(cfg.APIURL, log)
	if err := client.Login(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("seed login failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	created, err := client.CreateProducts(ctx, seed.Catalog(cfg.Products, cfg.RandomSeed))
	if err != nil {
		log.Error("seeding aborted", slog.Int("created", created), slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seeding complete",
		slog.Int("created", created),
		slog.Int("requested", cfg.Products),
	)
}
