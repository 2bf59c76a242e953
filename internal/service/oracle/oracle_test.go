package oracle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradergo/internal/config"
	"gradergo/internal/models"
)

type stubTurn struct {
	content string
	err     error
}

// stubChatModel replays scripted turns and records what it was asked.
type stubChatModel struct {
	mu    sync.Mutex
	turns []stubTurn
	calls int
	last  []*schema.Message
}

func (s *stubChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.turns) {
		return nil, fmt.Errorf("unexpected call %d", s.calls+1)
	}
	turn := s.turns[s.calls]
	s.calls++
	s.last = in
	if turn.err != nil {
		return nil, turn.err
	}
	return &schema.Message{Role: schema.Assistant, Content: turn.content}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("stream not supported")
}

func (s *stubChatModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestService(turns ...stubTurn) (*Service, *stubChatModel) {
	stub := &stubChatModel{turns: turns}
	return &Service{
		chatModel:      stub,
		requestTimeout: 5 * time.Second,
		backoff:        time.Millisecond,
	}, stub
}

func TestGradeValidResponse(t *testing.T) {
	svc, stub := newTestService(stubTurn{content: `{
		"score": 70,
		"feedback": "Partially correct.",
		"deductions": [
			{"reason": "missing edge case", "points_lost": 20},
			{"reason": "style", "points_lost": 10}
		]
	}`})

	res := svc.Grade(context.Background(), "reference", "submission")
	require.Equal(t, models.StatusSucceeded, res.Status)
	require.NotNil(t, res.Score)
	assert.Equal(t, 70, *res.Score)
	assert.Equal(t, "Partially correct.", res.Feedback)
	// Deductions already sum to 100-score and pass through untouched.
	require.Len(t, res.Deductions, 2)
	assert.Equal(t, 20.0, res.Deductions[0].PointsLost)
	assert.Equal(t, 1, stub.callCount())
}

func TestGradeClampsScore(t *testing.T) {
	svc, _ := newTestService(stubTurn{content: `{"score": 137, "feedback": "great"}`})
	res := svc.Grade(context.Background(), "ref", "sub")
	require.Equal(t, models.StatusSucceeded, res.Status)
	assert.Equal(t, 100, *res.Score)

	svc, _ = newTestService(stubTurn{content: `{"score": -5, "feedback": "poor"}`})
	res = svc.Grade(context.Background(), "ref", "sub")
	require.Equal(t, models.StatusSucceeded, res.Status)
	assert.Equal(t, 0, *res.Score)
}

func TestGradeRetriesMalformedOnce(t *testing.T) {
	svc, stub := newTestService(
		stubTurn{content: "I think this deserves about an 85."},
		stubTurn{content: `{"score": 85, "feedback": "solid"}`},
	)

	res := svc.Grade(context.Background(), "ref", "sub")
	require.Equal(t, models.StatusSucceeded, res.Status)
	assert.Equal(t, 85, *res.Score)
	assert.Equal(t, 2, stub.callCount())

	// The retry carries the bad answer plus a stricter instruction.
	require.Len(t, stub.last, 4)
	assert.Equal(t, schema.Assistant, stub.last[2].Role)
	assert.Equal(t, reformatPrompt, stub.last[3].Content)
}

func TestGradeTwoMalformedIsTerminal(t *testing.T) {
	svc, stub := newTestService(
		stubTurn{content: "no json here"},
		stubTurn{content: "still no json"},
	)

	res := svc.Grade(context.Background(), "ref", "sub")
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, models.FailMalformedResponse, res.FailureReason)
	assert.Nil(t, res.Score)
	assert.Equal(t, 2, stub.callCount())
}

func TestGradeNegativeDeductionIsMalformed(t *testing.T) {
	svc, stub := newTestService(
		stubTurn{content: `{"score": 90, "deductions": [{"reason": "x", "points_lost": -10}]}`},
		stubTurn{content: `{"score": 90, "feedback": "ok", "deductions": [{"reason": "x", "points_lost": 10}]}`},
	)

	res := svc.Grade(context.Background(), "ref", "sub")
	require.Equal(t, models.StatusSucceeded, res.Status)
	assert.Equal(t, 90, *res.Score)
	assert.Equal(t, 2, stub.callCount())
}

func TestGradeRateLimitRetriesAfterBackoff(t *testing.T) {
	svc, stub := newTestService(
		stubTurn{err: fmt.Errorf("429 too many requests")},
		stubTurn{content: `{"score": 60, "feedback": "fine"}`},
	)

	res := svc.Grade(context.Background(), "ref", "sub")
	require.Equal(t, models.StatusSucceeded, res.Status)
	assert.Equal(t, 60, *res.Score)
	assert.Equal(t, 2, stub.callCount())
}

func TestGradeRateLimitTwiceFails(t *testing.T) {
	svc, stub := newTestService(
		stubTurn{err: fmt.Errorf("rate limit exceeded")},
		stubTurn{err: fmt.Errorf("rate limit exceeded")},
	)

	res := svc.Grade(context.Background(), "ref", "sub")
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, models.FailRateLimited, res.FailureReason)
	assert.Equal(t, 2, stub.callCount())
}

func TestGradeAuthErrorNoRetry(t *testing.T) {
	svc, stub := newTestService(stubTurn{err: fmt.Errorf("401 invalid api key")})

	res := svc.Grade(context.Background(), "ref", "sub")
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, models.FailAuthError, res.FailureReason)
	assert.Equal(t, 1, stub.callCount())
}

func TestGradeTransportErrorNoRetry(t *testing.T) {
	svc, stub := newTestService(stubTurn{err: fmt.Errorf("dial tcp: connection refused")})

	res := svc.Grade(context.Background(), "ref", "sub")
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, models.FailTransportError, res.FailureReason)
	assert.Equal(t, 1, stub.callCount())
}

func TestGradeFencedJSON(t *testing.T) {
	svc, _ := newTestService(stubTurn{content: "```json\n{\"score\": 55, \"feedback\": \"needs work\"}\n```"})

	res := svc.Grade(context.Background(), "ref", "sub")
	require.Equal(t, models.StatusSucceeded, res.Status)
	assert.Equal(t, 55, *res.Score)
}

func TestExtractStudentInfo(t *testing.T) {
	svc, stub := newTestService(stubTurn{content: `{"student_id": "ab123", "student_name": "Alice Smith"}`})

	id, name, err := svc.ExtractStudentInfo(context.Background(), "Homework 1 by Alice Smith (ab123)")
	require.NoError(t, err)
	assert.Equal(t, "ab123", id)
	assert.Equal(t, "Alice Smith", name)
	assert.Equal(t, 1, stub.callCount())
}

func TestExtractStudentInfoTruncatesSample(t *testing.T) {
	svc, stub := newTestService(stubTurn{content: `{"student_id": "unknown", "student_name": ""}`})

	long := make([]byte, studentInfoSampleBytes*2)
	for i := range long {
		long[i] = 'a'
	}
	id, name, err := svc.ExtractStudentInfo(context.Background(), string(long))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, name)
	// Only the head of the document goes over the wire.
	userMsg := stub.last[len(stub.last)-1].Content
	assert.LessOrEqual(t, len(userMsg), studentInfoSampleBytes+len(studentInfoPrompt("")))
}

func TestNewServiceInvalidProvider(t *testing.T) {
	orig := chatModelFactory
	defer func() { chatModelFactory = orig }()

	chatModelFactory = func(provider string, prov config.ProviderConfig) (model.BaseChatModel, error) {
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	cfg := &config.Config{}
	cfg.BasicConfig.Provider = "nope"
	_, err := NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init chat model")
}

func TestNewServiceUsesFactory(t *testing.T) {
	orig := chatModelFactory
	defer func() { chatModelFactory = orig }()

	stub := &stubChatModel{}
	chatModelFactory = func(provider string, prov config.ProviderConfig) (model.BaseChatModel, error) {
		return stub, nil
	}
	cfg := &config.Config{}
	cfg.BasicConfig.Provider = "openai"
	cfg.BasicConfig.RequestTimeoutSeconds = 30
	svc, err := NewService(cfg)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, svc.requestTimeout)
	assert.Equal(t, defaultRateLimitBackoff, svc.backoff)
}
