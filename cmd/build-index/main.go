package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"support-copilot/internal/chunker"
	"support-copilot/internal/config"
	"support-copilot/internal/domain"
	"support-copilot/internal/embedding/openai"
	"support-copilot/internal/index"
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

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		client, err := openai.NewClient(openai.Config{
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

	docs, err := chunker.LoadDocuments(cfg.KB.Dir)
	if err != nil {
		log.Fatalf("failed to load knowledge base from %s: %v", cfg.KB.Dir, err)
	}
	if len(docs) == 0 {
		log.Fatalf("no .md or .txt documents found in %s", cfg.KB.Dir)
	}

	ch, err := chunker.NewWindowChunker(cfg.KB.ChunkSize, cfg.KB.Overlap)
	if err != nil {
		log.Fatalf("bad chunking window: %v", err)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, ch.Split(doc)...)
	}
	log.Printf("chunked %d documents into %d chunks", len(docs), len(chunks))

	// If embedding fails nothing is persisted; any previous artifacts stay intact.
	ix, err := index.Build(context.Background(), emb, chunks)
	if err != nil {
		log.Fatalf("index build failed: %v", err)
	}

	if err := ix.Persist(cfg.KB.IndexDir); err != nil {
		log.Fatalf("failed to persist index to %s: %v", cfg.KB.IndexDir, err)
	}
	log.Printf("persisted %d vectors (dimension %d) to %s", ix.Len(), ix.Dimension(), cfg.KB.IndexDir)
}
