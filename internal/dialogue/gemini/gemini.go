// Package gemini implements the dialogue collaborators against the
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	gerrors "github.com/dhleesep9/gayoon/internal/errors"
	"github.com/dhleesep9/gayoon/internal/platform/timeouts"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

const (
	defaultGenerativeModel = "gemini-2.5-flash"
	defaultEmbeddingModel  = "text-embedding-004"
)

// Client wraps one genai connection and implements Generator,
// SentimentScorer, Judge and Embedder.
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	embedding *genai.EmbeddingModel
}

// NewClient dials Gemini. modelName falls back to the default flash
// model when empty.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = defaultGenerativeModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	return &Client{
		client:    client,
		model:     client.GenerativeModel(modelName),
		embedding: client.EmbeddingModel(defaultEmbeddingModel),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateReply produces the character's reply. The system prompt
// carries persona and scene context, the user prompt the player turn.
func (c *Client) GenerateReply(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.LLMRequest)
	defer cancel()

	model := *c.model
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}
	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	text, err := firstText(resp)
	if err != nil {
		return "", gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// ScoreSentiment rates a player message from -3 to 3.
func (c *Client) ScoreSentiment(ctx context.Context, message string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.LLMRequest)
	defer cancel()

	prompt := fmt.Sprintf(
		"다음 메시지가 상대방에게 주는 호감을 -3(매우 불쾌)부터 3(매우 따뜻함)까지의 정수 하나로만 평가해줘.\n메시지: %s\n숫자만 출력해.",
		message)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, gerrors.NewExternal(gerrors.CodeSentimentUnavailable, err)
	}
	text, err := firstText(resp)
	if err != nil {
		return 0, gerrors.NewExternal(gerrors.CodeSentimentUnavailable, err)
	}
	score, err := parseScore(text, -3, 3)
	if err != nil {
		return 0, gerrors.NewExternal(gerrors.CodeSentimentUnavailable, err)
	}
	return score, nil
}

// JudgeAdvice scores advice about a subject problem on [min, max].
func (c *Client) JudgeAdvice(ctx context.Context, advice, subject, problem string, min, max int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.LLMRequest)
	defer cancel()

	prompt := fmt.Sprintf(
		"수험생이 %s 과목에서 겪는 문제: %s\n멘토의 조언: %s\n이 조언이 문제 해결에 얼마나 구체적이고 실질적인지 %d부터 %d까지의 정수 하나로만 평가해줘. 숫자만 출력해.",
		subject, problem, advice, min, max)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	text, err := firstText(resp)
	if err != nil {
		return 0, gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	score, err := parseScore(text, min, max)
	if err != nil {
		return 0, gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	return score, nil
}

// JudgeStrategy classifies a per-subject exam strategy.
func (c *Client) JudgeStrategy(ctx context.Context, subject domain.Subject, text string) (domain.StrategyQuality, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.LLMRequest)
	defer cancel()

	prompt := fmt.Sprintf(
		"수능 %s 과목의 학습 전략: %s\n이 전략의 수준을 VERY_GOOD, GOOD, POOR 중 하나로만 평가해줘. 단어 하나만 출력해.",
		subject, text)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return domain.StrategyPoor, gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	raw, err := firstText(resp)
	if err != nil {
		return domain.StrategyPoor, gerrors.NewExternal(gerrors.CodeDialogueUnavailable, err)
	}
	return parseQuality(raw), nil
}

// EmbedText maps text to a vector for memory retrieval.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Embedding)
	defer cancel()

	resp, err := c.embedding.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, gerrors.NewExternal(gerrors.CodeRetrievalUnavailable, err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, gerrors.NewExternal(gerrors.CodeRetrievalUnavailable,
			fmt.Errorf("empty embedding response"))
	}
	return resp.Embedding.Values, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part %T", resp.Candidates[0].Content.Parts[0])
	}
	return string(text), nil
}

// parseScore extracts the first signed integer from model output and
// clamps it to [min, max].
func parseScore(raw string, min, max int) (int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return (r < '0' || r > '9') && r != '-' && r != '+'
	})
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		if n < min {
			n = min
		}
		if n > max {
			n = max
		}
		return n, nil
	}
	return 0, fmt.Errorf("no score in model output %q", raw)
}

func parseQuality(raw string) domain.StrategyQuality {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, string(domain.StrategyVeryGood)):
		return domain.StrategyVeryGood
	case strings.Contains(upper, string(domain.StrategyGood)):
		return domain.StrategyGood
	default:
		return domain.StrategyPoor
	}
}
