// Package dialogue defines the language-model collaborators the game
// engine talks to. The engine treats all of them as best-effort: errors
// degrade a turn (neutral sentiment, canned reply) instead of failing it.
package dialogue

import (
	"context"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// Generator produces the character's free-form reply for a turn.
type Generator interface {
	GenerateReply(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SentimentScorer rates a player message from -3 (hostile) to +3 (warm).
type SentimentScorer interface {
	ScoreSentiment(ctx context.Context, message string) (int, error)
}

// Judge grades player advice and study strategies.
type Judge interface {
	// JudgeAdvice scores advice about a subject problem on [min, max].
	JudgeAdvice(ctx context.Context, advice, subject, problem string, min, max int) (int, error)
	// JudgeStrategy classifies a per-subject exam strategy.
	JudgeStrategy(ctx context.Context, subject domain.Subject, text string) (domain.StrategyQuality, error)
}

// Embedder maps text to a vector for memory retrieval.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Fragment is one retrieved piece of past conversation.
type Fragment struct {
	Text  string
	Score float64
}

// Retriever finds past conversation fragments relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string) ([]Fragment, error)
}
