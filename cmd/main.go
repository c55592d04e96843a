package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"starlight-postoffice/handler"
	"starlight-postoffice/internal/app"
	"starlight-postoffice/internal/config"
	"starlight-postoffice/internal/integrations/openai"
	"starlight-postoffice/internal/integrations/paramstore"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	opts := []openai.Option{
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, openai.WithAPIKey(cfg.OpenAIAPIKey))
	}
	openaiClient, err := openai.NewClient(ssmClient, cfg.ParamPrefix, opts...)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	sessions, err := app.SessionStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to create session store", "err", err, "backend", cfg.SessionBackend)
		os.Exit(1)
	}

	// ---- Handler ----
	postOffice, err := app.Build(cfg, openaiClient, sessions, ssmClient, logger)
	if err != nil {
		slog.Error("failed to build post office", "err", err)
		os.Exit(1)
	}
	defer postOffice.Close()
	postOffice.Indexer.Start(ctx)

	h, err := handler.NewHandler(postOffice.PostOffice)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
