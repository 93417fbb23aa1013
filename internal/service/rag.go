package service

import (
	"context"
	"fmt"

	ragoconfig "github.com/liliang-cn/rago/v2/pkg/config"
	ragodomain "github.com/liliang-cn/rago/v2/pkg/domain"
	"github.com/liliang-cn/rago/v2/pkg/providers"
	"github.com/liliang-cn/rago/v2/pkg/rag"

	"github.com/fitstack/gymchat/internal/config"
	"github.com/fitstack/gymchat/internal/domain"
)

// Retriever fetches passages relevant to a query from the managed document
// index. Implementations must not be relied on for availability: callers
// degrade to an ungrounded answer when retrieval fails.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.Passage, error)
}

// Generator produces the reply text for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// RAGService fronts the managed retrieval and generation backends through
// rago. The server can run without one, in which case every chat degrades
// to the in-band error reply.
type RAGService struct {
	cfg       *config.Config
	ragClient *rag.Client
	generator ragodomain.Generator
}

// NewRAGService builds the rago providers and retrieval client from config
func NewRAGService(cfg *config.Config) (*RAGService, error) {
	ragoCfg := &ragoconfig.Config{
		Sqvect: ragoconfig.SqvectConfig{
			DBPath:    cfg.RAG.DBPath,
			IndexType: cfg.RAG.IndexType,
		},
	}

	factory := providers.NewFactory()

	providerCfg := &ragodomain.OpenAIProviderConfig{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		LLMModel:       cfg.LLM.LLMModel,
	}

	ctx := context.Background()

	embedder, err := factory.CreateEmbedderProvider(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	llmProvider, err := factory.CreateLLMProvider(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	ragClient, err := rag.NewClient(ragoCfg, embedder, llmProvider, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create RAG client: %w", err)
	}

	return &RAGService{
		cfg:       cfg,
		ragClient: ragClient,
		generator: llmProvider,
	}, nil
}

// Retrieve runs a pure vector search without LLM generation and maps the
// hits to passages with their source locators.
func (s *RAGService) Retrieve(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	opts := &rag.QueryOptions{
		TopK:        topK,
		Temperature: 0,
		MaxTokens:   0,
		ShowSources: true,
	}

	resp, err := s.ragClient.Query(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	passages := make([]domain.Passage, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		locator := src.DocumentID
		if src.Metadata != nil {
			if source, ok := src.Metadata["source"].(string); ok && source != "" {
				locator = source
			} else if filename, ok := src.Metadata["filename"].(string); ok && filename != "" {
				locator = filename
			}
		}
		passages = append(passages, domain.Passage{
			Text:    src.Content,
			Locator: locator,
		})
	}

	return passages, nil
}

// Generate produces the reply text for the assembled prompt
func (s *RAGService) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	opts := &ragodomain.GenerationOptions{
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	return s.generator.Generate(ctx, prompt, opts)
}

// Close releases the underlying vector store
func (s *RAGService) Close() error {
	if s.ragClient != nil {
		return s.ragClient.Close()
	}
	return nil
}
