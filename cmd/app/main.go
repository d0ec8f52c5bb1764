package main

import (
	"GoodGamingApi/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine in containers where the environment is set
	// by the orchestrator.
	_ = godotenv.Load()

	app.Start()
}
