// Package oracle wraps the LLM judge behind a narrow grading contract:
// reference text plus submission text in, a validated GradeResult out.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"gradergo/internal/config"
	"gradergo/internal/models"
)

const defaultRateLimitBackoff = 2 * time.Second

// Service issues one logical comparison request per grading call. It is
// stateless between calls; no conversation context crosses submissions.
type Service struct {
	chatModel      model.BaseChatModel
	requestTimeout time.Duration
	backoff        time.Duration
}

// Indirection so tests can stand in a stub chat model.
var chatModelFactory = newChatModel

func NewService(cfg *config.Config) (*Service, error) {
	chatModel, err := chatModelFactory(cfg.BasicConfig.Provider, cfg.Grading())
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &Service{
		chatModel:      chatModel,
		requestTimeout: time.Duration(cfg.BasicConfig.RequestTimeoutSeconds) * time.Second,
		backoff:        defaultRateLimitBackoff,
	}, nil
}

func newChatModel(provider string, prov config.ProviderConfig) (model.BaseChatModel, error) {
	ctx := context.Background()
	switch provider {
	case "openai":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: prov.BaseURL,
			Model:   prov.Model,
			APIKey:  prov.APIKey,
		})
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: prov.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  prov.Model,
		})
	case "claude":
		var baseURLPtr *string
		if prov.BaseURL != "" {
			baseURLPtr = &prov.BaseURL
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:    prov.APIKey,
			Model:     prov.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
}

// Grade compares a submission against the reference solution. A response
// failing schema validation gets exactly one retry with a stricter
// reformatting instruction; a second failure is terminal. Out-of-range
// scores are clamped rather than rejected.
func (s *Service) Grade(ctx context.Context, referenceText, submissionText string) *models.GradeResult {
	messages := []*schema.Message{
		{Role: schema.System, Content: gradingSystemPrompt},
		{Role: schema.User, Content: gradingPrompt(referenceText, submissionText)},
	}

	for attempt := 0; attempt < 2; attempt++ {
		resp, failure := s.generate(ctx, messages)
		if failure != "" {
			return models.Failed(failure)
		}
		j, err := parseJudgment(resp.Content)
		if err == nil {
			return j.result()
		}
		if attempt == 0 {
			messages = append(messages, resp, &schema.Message{
				Role:    schema.User,
				Content: reformatPrompt,
			})
		}
	}
	return models.Failed(models.FailMalformedResponse)
}

// generate performs one oracle invocation, retrying once with a fixed
// backoff for rate limiting only. Other transport failures are surfaced
// immediately; per-item isolation belongs to the orchestrator.
func (s *Service) generate(ctx context.Context, messages []*schema.Message) (*schema.Message, models.FailureReason) {
	resp, err := s.call(ctx, messages)
	if err == nil {
		return resp, ""
	}
	failure := classify(err)
	if failure != models.FailRateLimited {
		return nil, failure
	}
	select {
	case <-time.After(s.backoff):
	case <-ctx.Done():
		return nil, models.FailRateLimited
	}
	resp, err = s.call(ctx, messages)
	if err != nil {
		return nil, classify(err)
	}
	return resp, ""
}

func (s *Service) call(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	return s.chatModel.Generate(ctx, messages)
}

// ExtractStudentInfo asks the model to pull a student id and name out of
// document text when the regex pass found nothing. Only the head of the
// text is sent; identity lines sit at the top of submissions.
func (s *Service) ExtractStudentInfo(ctx context.Context, text string) (id, name string, err error) {
	sample := text
	if len(sample) > studentInfoSampleBytes {
		sample = sample[:studentInfoSampleBytes]
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: studentInfoSystemPrompt},
		{Role: schema.User, Content: studentInfoPrompt(sample)},
	}
	resp, err := s.call(ctx, messages)
	if err != nil {
		return "", "", fmt.Errorf("extract student info: %w", err)
	}
	return parseStudentInfo(resp.Content)
}
