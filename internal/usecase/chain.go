package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const (
	StageCondense   = "condense"
	StageRetrieve   = "retrieve"
	StageSynthesize = "synthesize"
)

// ChainUseCase answers one conversation turn: condense, retrieve, synthesize.
// It keeps no per-conversation state; callers supply the history each turn.
type ChainUseCase struct {
	condenser   *CondenseUseCase
	retriever   port.Retriever
	synthesizer *SynthesizeUseCase
	topK        int
	log         *zap.Logger
}

func NewChainUseCase(
	condenser *CondenseUseCase,
	retriever port.Retriever,
	synthesizer *SynthesizeUseCase,
	topK int,
	log *zap.Logger,
) *ChainUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChainUseCase{
		condenser:   condenser,
		retriever:   retriever,
		synthesizer: synthesizer,
		topK:        topK,
		log:         log,
	}
}

// Answer runs the three stages in order. A stage failure is returned as a
// *domain.StageError wrapping the cause.
func (u *ChainUseCase) Answer(ctx context.Context, turn domain.Turn) (*domain.Answer, error) {
	if strings.TrimSpace(turn.Question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	standalone, err := runStage(ctx, u.log, StageCondense, func(ctx context.Context) (string, error) {
		return u.condenser.Condense(ctx, turn.Question, turn.ChatHistory)
	})
	if err != nil {
		return nil, err
	}

	chunks, err := runStage(ctx, u.log, StageRetrieve, func(ctx context.Context) ([]domain.ScoredChunk, error) {
		return u.retriever.Search(ctx, standalone, u.topK)
	})
	if err != nil {
		return nil, err
	}

	text, err := runStage(ctx, u.log, StageSynthesize, func(ctx context.Context) (string, error) {
		return u.synthesizer.Synthesize(ctx, domain.JoinContext(chunks), turn.ChatHistory, standalone)
	})
	if err != nil {
		return nil, err
	}

	sources := make([]domain.SourceRef, len(chunks))
	for i, c := range chunks {
		sources[i] = domain.SourceRef{Source: c.Chunk.Source, Score: c.Score}
	}

	return &domain.Answer{
		Text:               text,
		StandaloneQuestion: standalone,
		Sources:            sources,
	}, nil
}

// Retrieve runs only the retrieval stage for question.
func (u *ChainUseCase) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = u.topK
	}
	return runStage(ctx, u.log, StageRetrieve, func(ctx context.Context) ([]domain.ScoredChunk, error) {
		return u.retriever.Search(ctx, question, k)
	})
}

func runStage[T any](ctx context.Context, log *zap.Logger, name string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		var zero T
		return zero, &domain.StageError{Stage: name, Err: err}
	}

	log.Debug("stage finished", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return out, nil
}
