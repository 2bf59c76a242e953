package models

// GradeStatus marks a submission's terminal state in the batch report.
type GradeStatus string

const (
	StatusSucceeded GradeStatus = "succeeded"
	StatusFailed    GradeStatus = "failed"
)

// FailureReason identifies why a submission could not be graded.
type FailureReason string

const (
	FailCorruptFile         FailureReason = "corrupt_file"
	FailUnsupported         FailureReason = "unsupported"
	FailUnknownFormat       FailureReason = "unknown_format"
	FailTooLarge            FailureReason = "too_large"
	FailMalformedResponse   FailureReason = "malformed_response"
	FailTransportError      FailureReason = "transport_error"
	FailAuthError           FailureReason = "auth_error"
	FailRateLimited         FailureReason = "rate_limited"
	FailTimeout             FailureReason = "timeout"
	FailReferenceExtraction FailureReason = "reference_extraction_failed"
)

// Deduction is one point loss called out by the grading oracle.
type Deduction struct {
	Reason     string  `json:"reason"`
	PointsLost float64 `json:"points_lost"`
}

// GradeResult is one submission's outcome. A failed result carries no
// score: Score stays nil so a failure can never read as a zero grade.
type GradeResult struct {
	Status        GradeStatus   `json:"status"`
	Score         *int          `json:"score,omitempty"`
	Feedback      string        `json:"feedback,omitempty"`
	Deductions    []Deduction   `json:"deductions,omitempty"`
	FailureReason FailureReason `json:"failure_reason,omitempty"`
}

func Succeeded(score int, feedback string, deductions []Deduction) *GradeResult {
	return &GradeResult{
		Status:     StatusSucceeded,
		Score:      &score,
		Feedback:   feedback,
		Deductions: deductions,
	}
}

func Failed(reason FailureReason) *GradeResult {
	return &GradeResult{Status: StatusFailed, FailureReason: reason}
}

// BatchEntry pairs a submission filename with its grade. StudentID and
// StudentName are kept even when grading fails so the report can still be
// matched to a roster.
type BatchEntry struct {
	Filename    string `json:"filename"`
	StudentID   string `json:"student_id,omitempty"`
	StudentName string `json:"student_name,omitempty"`
	GradeResult
}

// BatchReport aggregates one grading request. Entries follow submission
// upload order and every submitted filename appears exactly once.
// AuthFailure is set when any entry failed on credentials, so the caller
// can surface a systemic problem instead of a per-file one.
type BatchReport struct {
	Entries     []BatchEntry `json:"results"`
	AuthFailure bool         `json:"auth_failure,omitempty"`
}
