package main

import (
	"log"

	"github.com/joho/godotenv"

	"datalens/ai"
	"datalens/internal/config"
	"datalens/models"
	"datalens/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Missing OPENAI_API_KEY is fatal: the insight endpoint cannot work
	// without it, and failing late would only surface at request time.
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	aiConfig := &models.AIConfig{
		OpenAIKey:     appConfig.AI.OpenAIKey,
		OpenAIModel:   appConfig.AI.OpenAIModel,
		BaseURL:       appConfig.AI.BaseURL,
		SystemContext: appConfig.AI.SystemContext,
		MaxTokens:     appConfig.AI.MaxTokens,
		Temperature:   appConfig.AI.Temperature,
		PromptsDir:    appConfig.AI.PromptsDir,
	}
	agent := ai.NewInsightAgent(aiConfig)

	server, err := ui.NewServer(appConfig, agent)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	log.Printf("Starting dataset insight server on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
