package worker

type JobType string

const (
	JobGrade JobType = "grade"
	JobStop  JobType = "stop"
)

type Job struct {
	Type  JobType
	Grade *gradeTask
}

type worker struct {
	manager    *Manager
	pool       *jobChannelPool
	jobChannel chan Job
}

func newWorker(pool *jobChannelPool, manager *Manager) *worker {
	return &worker{
		manager:    manager,
		pool:       pool,
		jobChannel: make(chan Job),
	}
}

func (w *worker) start() {
	go func() {
		for job := range w.jobChannel {
			switch job.Type {
			case JobStop:
				w.pool.retire(w.jobChannel)
				return
			case JobGrade:
				w.manager.handleGrade(job.Grade)
			}
			w.pool.Release(w.jobChannel)
		}
	}()
}
