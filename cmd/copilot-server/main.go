package main

import (
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"support-copilot/internal/composer"
	"support-copilot/internal/config"
	"support-copilot/internal/domain"
	embopenai "support-copilot/internal/embedding/openai"
	genopenai "support-copilot/internal/generation/openai"
	"support-copilot/internal/handler"
	"support-copilot/internal/pkg/logger"
	"support-copilot/internal/retriever"
	"support-copilot/internal/server"
	"support-copilot/internal/triage"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Server.LogFilePath, cfg.Server.Environment == "production")
	defer func() { _ = appLogger.Sync() }()

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var gen domain.Generator
	switch cfg.Generator.Type {
	case "openai", "":
		client, err := genopenai.NewClient(genopenai.Config{
			BaseURL:   cfg.Generator.OpenAI.BaseURL,
			APIKeyEnv: cfg.Generator.OpenAI.APIKeyEnv,
			Model:     cfg.Generator.OpenAI.Model,
			Timeout:   time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		gen = client
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
	}

	var classifier domain.Classifier
	switch cfg.Triage.Type {
	case "keyword", "":
		classifier = triage.NewKeywordClassifier()
	case "http":
		if cfg.Triage.HTTP == nil {
			log.Fatalf("triage http config missing")
		}
		classifier = triage.NewHTTPClassifier(
			cfg.Triage.HTTP.BaseURL,
			time.Duration(cfg.Triage.HTTP.TimeoutSecs)*time.Second,
		)
	default:
		log.Fatalf("unknown triage classifier: %s", cfg.Triage.Type)
	}

	// Index artifacts load lazily on the first query. A failed load is
	// cached for the process lifetime, so after running build-index the
	// server must be restarted to pick up the artifacts.
	handle := retriever.NewIndexHandle(cfg.KB.IndexDir)
	ret := retriever.New(handle, emb, cfg.Retrieval.TopK, cfg.Retrieval.MinScore, appLogger)
	comp := composer.New(ret, gen, composer.Config{
		ContextChars: cfg.Composer.ContextChars,
		SnippetChars: cfg.Composer.SnippetChars,
		MaxCitations: cfg.Composer.MaxCitations,
	}, appLogger)

	tickets := handler.NewTicketHandler(comp, classifier, appLogger)

	srv := server.New(cfg, tickets, appLogger)
	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
