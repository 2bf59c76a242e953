package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gradergo/internal/models"
)

// judgment is the structured verdict the oracle must return.
type judgment struct {
	Score      *float64           `json:"score"`
	Feedback   string             `json:"feedback"`
	Deductions []models.Deduction `json:"deductions"`
}

// parseJudgment validates a raw model response against the grading schema.
// A missing score or a negative points_lost counts as a schema failure and
// feeds the retry path; an out-of-range score does not.
func parseJudgment(content string) (*judgment, error) {
	body := jsonBody(content)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var j judgment
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return nil, fmt.Errorf("decode judgment: %w", err)
	}
	if j.Score == nil {
		return nil, fmt.Errorf("judgment missing score")
	}
	for _, d := range j.Deductions {
		if d.PointsLost < 0 {
			return nil, fmt.Errorf("negative points_lost %v", d.PointsLost)
		}
	}
	return &j, nil
}

// result converts a validated judgment into a GradeResult: the score is
// clamped to [0, 100] and deduction sums are reconciled with 100-score.
func (j *judgment) result() *models.GradeResult {
	score := int(math.Round(*j.Score))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	deductions := normalizeDeductions(j.Deductions, score)
	return models.Succeeded(score, j.Feedback, deductions)
}

// normalizeDeductions rescales point losses so they sum to 100-score. The
// model is asked to do this itself but frequently gets the arithmetic
// wrong; numeric drift is a quality issue, not a protocol violation.
func normalizeDeductions(deductions []models.Deduction, score int) []models.Deduction {
	if len(deductions) == 0 {
		return deductions
	}
	expected := float64(100 - score)
	actual := 0.0
	for _, d := range deductions {
		actual += d.PointsLost
	}
	if math.Abs(actual-expected) <= 0.1 {
		return deductions
	}

	out := make([]models.Deduction, len(deductions))
	copy(out, deductions)
	if actual > 0 {
		scale := expected / actual
		for i := range out {
			out[i].PointsLost = round1(out[i].PointsLost * scale)
		}
	} else {
		per := round1(expected / float64(len(out)))
		for i := range out {
			out[i].PointsLost = per
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type studentInfo struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

func parseStudentInfo(content string) (id, name string, err error) {
	body := jsonBody(content)
	if body == "" {
		return "", "", fmt.Errorf("no JSON object in student info response")
	}
	var info studentInfo
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		return "", "", fmt.Errorf("decode student info: %w", err)
	}
	id = strings.TrimSpace(info.StudentID)
	if strings.EqualFold(id, "unknown") {
		id = ""
	}
	name = strings.TrimSpace(info.StudentName)
	if len(name) < 2 {
		name = ""
	}
	return id, name, nil
}

// jsonBody strips markdown fences and surrounding prose, keeping the
// outermost JSON object.
func jsonBody(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// classify maps a transport error from the model call to a failure reason.
// Vendor SDKs do not expose a shared error taxonomy, so classification goes
// by status codes and well-known phrases in the error text.
func classify(err error) models.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.FailTransportError
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "permission denied"):
		return models.FailAuthError
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") || strings.Contains(msg, "quota"):
		return models.FailRateLimited
	}
	return models.FailTransportError
}
