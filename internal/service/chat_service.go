package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/prompt"
	"github.com/fitstack/gymchat/internal/repository"
)

// languageContextTurns is how much history feeds language resolution and
// the prompt transcript.
const languageContextTurns = 10

// ChatOptions bound the downstream calls and generation parameters
type ChatOptions struct {
	TopK        int
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ChatService runs one chat request end to end: resolve the conversation,
// retrieve grounding passages, assemble the prompt, generate, persist, and
// answer. Downstream failures degrade rather than abort: retrieval failure
// means an ungrounded prompt, generation failure means an in-band error
// reply in the resolved language. Both degraded paths still persist the
// exchange and return success.
type ChatService struct {
	conversations *repository.ConversationRepository
	retriever     Retriever
	generator     Generator
	logger        *zap.Logger
	opts          ChatOptions
}

// NewChatService creates a new chat service. Either collaborator may be
// nil, meaning "not configured": retrieval degrades to no passages and
// generation to the in-band error reply.
func NewChatService(
	conversations *repository.ConversationRepository,
	retriever Retriever,
	generator Generator,
	logger *zap.Logger,
	opts ChatOptions,
) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &ChatService{
		conversations: conversations,
		retriever:     retriever,
		generator:     generator,
		logger:        logger,
		opts:          opts,
	}
}

// Chat handles one message from the authenticated user
func (s *ChatService) Chat(ctx context.Context, user *domain.User, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.ErrInvalidRequest
	}

	// A missing conversation id means a fresh conversation, created by
	// SaveExchange in the same transaction as the first message so a failed
	// save leaves nothing behind.
	var history []prompt.Turn
	if req.ConversationID != 0 {
		messages, err := s.conversations.GetHistory(ctx, user.ID, req.ConversationID, languageContextTurns)
		if err != nil {
			return nil, err
		}
		history = make([]prompt.Turn, 0, len(messages))
		for _, m := range messages {
			history = append(history, prompt.Turn{UserMessage: m.UserMessage, BotResponse: m.BotResponse})
		}
	}

	passages := s.retrieve(ctx, message)
	language := prompt.ResolveLanguage(message, history)

	response, citations := s.generate(ctx, message, passages, history, language)

	conversationID, err := s.conversations.SaveExchange(ctx, user.ID, req.ConversationID, message, response, citations)
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		Response:       response,
		Citations:      citations,
		ConversationID: conversationID,
	}, nil
}

// retrieve queries the document index, treating every failure as "no
// documents" rather than an error.
func (s *ChatService) retrieve(ctx context.Context, query string) []domain.Passage {
	if s.retriever == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	passages, err := s.retriever.Retrieve(ctx, query, s.opts.TopK)
	if err != nil {
		s.logger.Warn("retrieval failed, answering without documents", zap.Error(err))
		return nil
	}
	return passages
}

// generate assembles the prompt and calls the generator, synthesizing the
// degraded reply on failure. The citation registry built here is the same
// one the assembler numbers excerpts with, so bracket numbers in the answer
// and the returned citation list always agree.
func (s *ChatService) generate(ctx context.Context, message string, passages []domain.Passage, history []prompt.Turn, language string) (string, []string) {
	texts := make([]string, 0, len(passages))
	locators := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
		locators = append(locators, p.Locator)
	}
	registry := prompt.NewCitationRegistry(locators)

	fullPrompt := prompt.Assemble(prompt.Input{
		UserMessage: message,
		Passages:    texts,
		Locators:    locators,
		History:     history,
		Language:    language,
		Registry:    registry,
	})

	if s.generator == nil {
		return degradedReply(language), []string{}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	response, err := s.generator.Generate(genCtx, fullPrompt, s.opts.MaxTokens, s.opts.Temperature)
	if err != nil {
		s.logger.Error("generation failed, returning degraded reply", zap.Error(err))
		return degradedReply(language), []string{}
	}

	// An empty generation keeps the citations: the retrieved documents are
	// still the ones the fallback answer is grounded in.
	response = strings.TrimSpace(response)
	if response == "" {
		return emptyReply(language), registry.DisplayList()
	}

	return response, registry.DisplayList()
}

func degradedReply(language string) string {
	if language == prompt.LangSpanish {
		return "[Error: No se pudo generar una respuesta. Por favor intenta de nuevo.]"
	}
	return "[Error: Could not generate a response. Please try again.]"
}

func emptyReply(language string) string {
	if language == prompt.LangSpanish {
		return "Lo siento, no pude generar una respuesta."
	}
	return "Sorry, I could not generate a response."
}
