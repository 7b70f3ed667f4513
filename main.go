package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/sandarika/labubananas/config"
	"github.com/sandarika/labubananas/routes"
	"github.com/sandarika/labubananas/utils"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	tokens, err := utils.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
	if err != nil {
		utils.Sugar.Fatalf("token service: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		utils.Sugar.Fatalf("database: %v", err)
	}

	rc := utils.NewRedis(cfg)
	cache := utils.NewCache(rc, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	r := routes.SetupRouter(cfg, db, tokens, cache)

	closeResources := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rc != nil {
			_ = rc.Close()
		}
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, closeResources); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
