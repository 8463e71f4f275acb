package main

import (
	"context"
	"doraform/internal/catalog"
	"doraform/internal/config"
	"doraform/internal/logger"
	"doraform/internal/repository"
	"doraform/internal/service"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()

	path := flag.String("catalog", cfg.CatalogPath, "questionnaire YAML file (empty seeds the built-in DORA catalog)")
	flag.Parse()

	log, err := logger.New("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	q, err := catalog.Load(*path)
	if err != nil {
		log.Fatal("failed to load catalog", "path", *path, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer client.Disconnect(context.Background())

	svc := service.NewQuestionnaireService(repository.NewQuestionnaireRepo(client.Database(cfg.MongoDB)), nil, log)
	if err := svc.Seed(ctx, q); err != nil {
		log.Fatal("failed to seed questionnaire", "error", err)
	}

	log.Info("questionnaire seeded",
		"db", cfg.MongoDB,
		"slug", q.Slug,
		"version", q.Version,
		"categories", len(q.Categories),
		"questions", len(q.Questions),
	)
}
