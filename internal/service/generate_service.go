package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/transfer"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrGenerationNotConfigured is returned when no LLM credentials are set.
var ErrGenerationNotConfigured = errors.New("OpenAI API key is missing. Please add the OPENAI_API_KEY environment variable")

type GenerateService interface {
	GenerateContent(ctx context.Context, req transfer.GenerateContentRequest) (*transfer.GenerateResult, error)
	ExtractKeywords(ctx context.Context, topic string) ([]transfer.KeywordData, error)
}

type generateService struct {
	model llms.Model
}

func NewGenerateService(cfg config.Config) GenerateService {
	var model llms.Model
	if cfg.OpenAIAPIKey != "" {
		llm, err := openai.New(openai.WithToken(cfg.OpenAIAPIKey))
		if err != nil {
			slog.Info(err.Error())
		} else {
			model = llm
		}
	}
	return &generateService{model: model}
}

// NewGenerateServiceWithModel is used by tests to inject a fake model.
func NewGenerateServiceWithModel(model llms.Model) GenerateService {
	return &generateService{model: model}
}

var fallbackKeywords = []transfer.KeywordData{
	{Keyword: "content marketing", Relevance: 95},
	{Keyword: "digital marketing", Relevance: 90},
	{Keyword: "SEO", Relevance: 85},
	{Keyword: "content strategy", Relevance: 80},
	{Keyword: "marketing", Relevance: 75},
}

func contentSpec(contentType string) string {
	switch contentType {
	case models.ContentTypeBlog:
		return "a blog post of 200-400 words with a clear structure and an engaging opening"
	case models.ContentTypeLinkedin:
		return "a LinkedIn post of 150-200 words with a hook in the first line and a call to action at the end"
	case models.ContentTypeNewsletter:
		return "a newsletter section of 200-1000 words with a friendly, conversational tone"
	default:
		return "a short piece of marketing content"
	}
}

// GenerateContent asks the model for a draft. When the model call fails the
// caller still gets usable placeholder text, flagged as a fallback, so a
// transient API outage never blocks drafting.
func (s *generateService) GenerateContent(ctx context.Context, req transfer.GenerateContentRequest) (*transfer.GenerateResult, error) {
	if s.model == nil {
		return nil, ErrGenerationNotConfigured
	}

	title := strings.TrimSpace(req.Topic.Title)
	if title == "" {
		return nil, errors.New("topic title is required")
	}

	// Seed plus timestamp keep repeated generations for the same topic from
	// collapsing into identical drafts.
	seed := rand.Intn(10000)
	prompt := fmt.Sprintf(
		"Write %s about \"%s\".\nKeywords to weave in naturally: %s.\nDo not use markdown headings. Variation seed: %d-%d.",
		contentSpec(req.ContentType),
		title,
		strings.Join(req.Topic.Keywords, ", "),
		seed,
		time.Now().UnixMilli(),
	)

	text, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(0.9),
		llms.WithMaxTokens(1000),
	)
	if err != nil {
		slog.Info(fmt.Sprintf("content generation failed, using fallback: %s", err.Error()))
		return &transfer.GenerateResult{
			Text:     fallbackContent(title, req.ContentType),
			Fallback: true,
		}, nil
	}

	return &transfer.GenerateResult{Text: strings.TrimSpace(text)}, nil
}

// ExtractKeywords asks the model for a relevance-ranked keyword list. Any
// failure, including unparseable model output, falls back to a generic
// marketing keyword set.
func (s *generateService) ExtractKeywords(ctx context.Context, topic string) ([]transfer.KeywordData, error) {
	if s.model == nil {
		return fallbackKeywords, nil
	}

	prompt := fmt.Sprintf(
		"Extract 5 SEO keywords for the topic \"%s\". Respond with only a JSON array of objects with \"keyword\" (string) and \"relevance\" (number 0-100) fields, sorted by relevance descending.",
		topic,
	)

	text, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(300),
	)
	if err != nil {
		slog.Info(fmt.Sprintf("keyword extraction failed, using fallback: %s", err.Error()))
		return fallbackKeywords, nil
	}

	keywords, err := parseKeywordJSON(text)
	if err != nil {
		slog.Info(fmt.Sprintf("keyword response was not valid JSON, using fallback: %s", err.Error()))
		return fallbackKeywords, nil
	}

	return keywords, nil
}

// parseKeywordJSON tolerates the model wrapping its answer in a fenced code
// block.
func parseKeywordJSON(text string) ([]transfer.KeywordData, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var keywords []transfer.KeywordData
	if err := json.Unmarshal([]byte(cleaned), &keywords); err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, errors.New("empty keyword list")
	}
	return keywords, nil
}

func fallbackContent(title, contentType string) string {
	switch contentType {
	case models.ContentTypeLinkedin:
		return fmt.Sprintf("Thinking about %s lately.\n\nIt's one of those areas where small, consistent improvements compound fast. Start with one change this week and measure what happens.\n\nWhat has worked for you? Share your experience in the comments.", title)
	case models.ContentTypeNewsletter:
		return fmt.Sprintf("This week we're looking at %s.\n\nIt's a topic that comes up again and again with our readers, and for good reason: getting it right pays off across everything else you do. Below are the essentials to get started, plus a few pitfalls to avoid.\n\nAs always, hit reply if you have questions.", title)
	default:
		return fmt.Sprintf("An introduction to %s.\n\n%s matters more than most teams realize. In this post we cover what it is, why it's worth your attention, and the first practical steps to take. Start small, measure results, and iterate from there.", title, title)
	}
}
