package worker

import (
	"context"
	"sync"

	"gradergo/internal/models"
)

type gradeTask struct {
	ctx           context.Context
	batch         *batchState
	index         int
	file          models.RawFile
	referenceText string
}

type slotResult struct {
	result      *models.GradeResult
	studentID   string
	studentName string
}

// batchState collects per-submission outcomes indexed by upload position,
// so report order never depends on completion order.
type batchState struct {
	mu        sync.Mutex
	slots     []*slotResult
	remaining int
	closed    bool
	done      chan struct{}
}

func newBatchState(n int) *batchState {
	return &batchState{
		slots:     make([]*slotResult, n),
		remaining: n,
		done:      make(chan struct{}),
	}
}

// setSlot records one submission's outcome. Writes after the batch closed
// (deadline hit) or into an already-filled slot are dropped.
func (b *batchState) setSlot(i int, res *slotResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.slots[i] != nil {
		return
	}
	b.slots[i] = res
	b.remaining--
	if b.remaining == 0 {
		b.closed = true
		close(b.done)
	}
}

// resolvePending force-fills every unresolved slot with the given failure
// and closes the batch. The batch call always returns, never hangs.
func (b *batchState) resolvePending(reason models.FailureReason) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for i, s := range b.slots {
		if s == nil {
			b.slots[i] = &slotResult{result: models.Failed(reason)}
		}
	}
	close(b.done)
}

func (b *batchState) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// snapshot returns the filled slots. Valid only after done is closed.
func (b *batchState) snapshot() []*slotResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*slotResult, len(b.slots))
	copy(out, b.slots)
	return out
}
