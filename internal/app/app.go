// Package app assembles the post office from configuration. Both the Lambda
// entry point and the local server build through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"starlight-postoffice/internal/config"
	"starlight-postoffice/internal/emotion"
	"starlight-postoffice/internal/integrations/openai"
	"starlight-postoffice/internal/letter"
	"starlight-postoffice/internal/repetition"
	"starlight-postoffice/internal/repository"
	"starlight-postoffice/internal/retrieval"
	"starlight-postoffice/internal/usecase"
	"starlight-postoffice/internal/vectorstore"
)

// App is a wired post office plus the resources it owns.
type App struct {
	PostOffice *usecase.PostOffice
	Indexer    *retrieval.Indexer

	store *vectorstore.SQLiteStore
}

// Build wires every collaborator around llm. params may be nil, in which case
// the built-in persona prompt is used.
func Build(cfg *config.Config, llm *openai.Client, sessions usecase.SessionStore, params usecase.ParamGetter, log *slog.Logger) (*App, error) {
	if cfg == nil || llm == nil || sessions == nil {
		return nil, errors.New("app: config, llm and sessions are required")
	}
	if log == nil {
		log = slog.Default()
	}

	store, err := vectorstore.Open(cfg.VectorDBPath)
	if err != nil {
		return nil, err
	}

	embedder, err := retrieval.NewCachedEmbedder(llm, cfg.Retrieval.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var corpus fs.FS
	if cfg.CorpusDir != "" {
		corpus = os.DirFS(cfg.CorpusDir)
	}
	indexer := retrieval.NewIndexer(corpus, embedder, store, log)
	retriever := retrieval.NewRetriever(embedder, store, retrieval.Options{
		TopK:              cfg.Retrieval.TopK,
		Threshold:         cfg.Retrieval.Threshold,
		FallbackThreshold: cfg.Retrieval.FallbackThreshold,
	})

	po, err := usecase.NewPostOffice(usecase.Deps{
		LLM:        llm,
		Sessions:   sessions,
		Retriever:  retriever,
		Index:      indexer,
		Repetition: repetition.NewDetector(embedder, log),
		Emotion:    emotion.NewDeterminer(emotion.NewEmbeddingClassifier(embedder), log),
		Letters:    letter.NewGenerator(llm, cfg.ChatModel),
		Params:     params,
	}, usecase.Options{
		ChatModel:        cfg.ChatModel,
		ParamPrefix:      cfg.ParamPrefix,
		MinRoomTurns:     cfg.Flow.MinRoomTurns,
		MinDrawerTurns:   cfg.Flow.MinDrawerTurns,
		MaxMessageLength: cfg.MaxMessageLength,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{PostOffice: po, Indexer: indexer, store: store}, nil
}

// Close releases the passage store.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// SessionStore opens the configured session backend.
func SessionStore(ctx context.Context, cfg *config.Config) (usecase.SessionStore, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendFile:
		return repository.NewFileStore(cfg.SessionDir)
	case config.SessionBackendDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		return repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
	default:
		return nil, fmt.Errorf("app: unknown session backend %q", cfg.SessionBackend)
	}
}
