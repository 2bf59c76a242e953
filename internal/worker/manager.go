// Package worker orchestrates batch grading: one reference document and N
// submissions go in, one ordered BatchReport comes out. Submissions are
// graded concurrently by a bounded pool; a failure in one never voids its
// siblings, and a batch deadline force-resolves whatever is still pending.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"gradergo/internal/extract"
	"gradergo/internal/metadata"
	"gradergo/internal/models"
)

// Grader is the oracle surface the orchestrator needs.
type Grader interface {
	Grade(ctx context.Context, referenceText, submissionText string) *models.GradeResult
	ExtractStudentInfo(ctx context.Context, text string) (id, name string, err error)
}

type ManagerConfig struct {
	MinWorkers        int
	MaxWorkers        int
	WorkerIdleTimeout time.Duration
	BatchTimeout      time.Duration
	MaxFileBytes      int64
}

type Manager struct {
	grader Grader
	cfg    ManagerConfig
	pool   *jobChannelPool
}

// Test seams, mirroring the factory variable used for the chat model.
var (
	extractFile = extract.Dispatch
	identifyDoc = metadata.Identify
)

func NewManager(grader Grader, cfg ManagerConfig) *Manager {
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}
	m := &Manager{grader: grader, cfg: cfg}
	m.pool = newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout, m)
	return m
}

// RunBatch grades every submission against the reference. The report
// enumerates each submitted filename exactly once, in upload order, with
// either a complete grade or a specific failure reason.
func (m *Manager) RunBatch(ctx context.Context, reference models.RawFile, submissions []models.RawFile) *models.BatchReport {
	report := &models.BatchReport{Entries: make([]models.BatchEntry, len(submissions))}
	names := uniqueNames(submissions)
	for i := range report.Entries {
		report.Entries[i].Filename = names[i]
	}
	if len(submissions) == 0 {
		return report
	}

	// Grading without a valid reference is meaningless: a reference
	// extraction failure fails the whole batch before any submission is
	// touched.
	refDoc, err := extractFile(reference.Name, reference.Content, m.cfg.MaxFileBytes)
	if err != nil {
		log.Printf("reference extraction failed for %s: %v", reference.Name, err)
		for i := range report.Entries {
			report.Entries[i].GradeResult = *models.Failed(models.FailReferenceExtraction)
		}
		return report
	}
	referenceText := refDoc.FullText()

	batchCtx := ctx
	if m.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, m.cfg.BatchTimeout)
		defer cancel()
	}

	batch := newBatchState(len(submissions))
	go func() {
		for i, sub := range submissions {
			if batch.isClosed() {
				return
			}
			task := &gradeTask{
				ctx:           batchCtx,
				batch:         batch,
				index:         i,
				file:          sub,
				referenceText: referenceText,
			}
			ch := m.pool.acquire()
			ch <- Job{Type: JobGrade, Grade: task}
		}
	}()

	select {
	case <-batch.done:
	case <-batchCtx.Done():
		batch.resolvePending(models.FailTimeout)
	}

	for i, slot := range batch.snapshot() {
		entry := &report.Entries[i]
		entry.GradeResult = *slot.result
		entry.StudentID = slot.studentID
		entry.StudentName = slot.studentName
		if slot.result.FailureReason == models.FailAuthError {
			report.AuthFailure = true
		}
	}
	return report
}

// handleGrade runs one submission end to end: extract, identify, grade.
// Every failure is caught here and becomes this submission's terminal
// result; nothing propagates across the batch boundary.
func (m *Manager) handleGrade(t *gradeTask) {
	if t.ctx.Err() != nil {
		t.batch.setSlot(t.index, &slotResult{result: models.Failed(models.FailTimeout)})
		return
	}

	doc, err := extractFile(t.file.Name, t.file.Content, m.cfg.MaxFileBytes)
	if err != nil {
		debugLog("[batch] extraction failed for %s: %v", t.file.Name, err)
		t.batch.setSlot(t.index, &slotResult{result: models.Failed(extractionFailure(err))})
		return
	}
	doc = identifyDoc(doc)
	if doc.StudentID == "" && doc.StudentName == "" {
		// LLM fallback; absence of identity is never an error.
		if id, name, err := m.grader.ExtractStudentInfo(t.ctx, doc.FullText()); err == nil {
			doc.StudentID, doc.StudentName = id, name
		} else {
			debugLog("[batch] student info fallback failed for %s: %v", t.file.Name, err)
		}
	}

	res := m.grader.Grade(t.ctx, t.referenceText, doc.FullText())
	t.batch.setSlot(t.index, &slotResult{
		result:      res,
		studentID:   doc.StudentID,
		studentName: doc.StudentName,
	})
}

func extractionFailure(err error) models.FailureReason {
	switch extract.KindOf(err) {
	case extract.KindUnsupported:
		return models.FailUnsupported
	case extract.KindUnknownFormat:
		return models.FailUnknownFormat
	case extract.KindTooLarge:
		return models.FailTooLarge
	}
	return models.FailCorruptFile
}

// uniqueNames disambiguates duplicate upload filenames so report keys stay
// unique within the batch.
func uniqueNames(submissions []models.RawFile) []string {
	names := make([]string, len(submissions))
	seen := make(map[string]int, len(submissions))
	for i, sub := range submissions {
		name := sub.Name
		if name == "" {
			name = fmt.Sprintf("submission-%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		names[i] = name
	}
	return names
}
