package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gradergo/internal/api"
	"gradergo/internal/config"
	"gradergo/internal/service/oracle"
	"gradergo/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("GRADERGO_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	grader, err := oracle.NewService(cfg)
	if err != nil {
		log.Fatalf("init grading oracle: %v", err)
	}

	manager := worker.NewManager(grader, worker.ManagerConfig{
		MinWorkers:        cfg.BasicConfig.MinWorkers,
		MaxWorkers:        cfg.BasicConfig.MaxWorkers,
		WorkerIdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
		BatchTimeout:      time.Duration(cfg.BasicConfig.BatchTimeoutSeconds) * time.Second,
		MaxFileBytes:      cfg.BasicConfig.MaxFileBytes,
	})

	handlers := api.NewHandler(manager, cfg.BasicConfig.MaxFileBytes)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
