package engine

import (
	"container/heap"
	"time"
)

// JobKind names a scheduled transition. The numeric order is the tie-break
// when several jobs fall on the same simulated instant.
type JobKind int

const (
	JobHideNotification JobKind = iota
	JobProgress
	JobAutoMatch
	JobAdmission
)

// String returns the string representation of JobKind
func (k JobKind) String() string {
	switch k {
	case JobHideNotification:
		return "HIDE_NOTIFICATION"
	case JobProgress:
		return "PROGRESS"
	case JobAutoMatch:
		return "AUTO_MATCH"
	case JobAdmission:
		return "ADMISSION"
	default:
		return "UNKNOWN"
	}
}

// Job is one pending transition on the simulated clock.
type Job struct {
	At    time.Duration // Simulated time since start
	Kind  JobKind
	Gen   uint64        // Caller-defined generation token
	Every time.Duration // >0 for interval jobs

	seq uint64
}

type jobQueue []*Job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].At != q[j].At {
		return q[i].At < q[j].At
	}
	if q[i].Kind != q[j].Kind {
		return q[i].Kind < q[j].Kind
	}
	return q[i].seq < q[j].seq
}

func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *jobQueue) Push(x any) { *q = append(*q, x.(*Job)) }

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return job
}

// Scheduler is a discrete-event queue over a simulated clock.
// It is not safe for concurrent use; the simulator owns it.
type Scheduler struct {
	now     time.Duration
	queue   jobQueue
	nextSeq uint64
}

// NewScheduler creates a scheduler at simulated time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Every schedules kind to fire each period, first at now+period.
func (s *Scheduler) Every(kind JobKind, period time.Duration) {
	if period <= 0 {
		return
	}
	s.push(&Job{At: s.now + period, Kind: kind, Every: period})
}

// After schedules a one-shot job carrying gen.
func (s *Scheduler) After(kind JobKind, delay time.Duration, gen uint64) {
	if delay < 0 {
		delay = 0
	}
	s.push(&Job{At: s.now + delay, Kind: kind, Gen: gen})
}

// Advance moves the clock forward by d, firing every job due on the way in
// (At, Kind, insertion) order. While fire runs, Now() equals the job's At,
// so anything it schedules is relative to that instant. It returns the number
// of jobs fired.
func (s *Scheduler) Advance(d time.Duration, fire func(Job)) int {
	if d < 0 {
		d = 0
	}
	target := s.now + d
	fired := 0

	for len(s.queue) > 0 && s.queue[0].At <= target {
		job := heap.Pop(&s.queue).(*Job)
		s.now = job.At
		if job.Every > 0 {
			s.push(&Job{At: job.At + job.Every, Kind: job.Kind, Every: job.Every})
		}
		fire(*job)
		fired++
	}

	s.now = target
	return fired
}

// Pending returns how many jobs are queued.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// NextAt returns when the next job fires.
func (s *Scheduler) NextAt() (time.Duration, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].At, true
}

func (s *Scheduler) push(job *Job) {
	s.nextSeq++
	job.seq = s.nextSeq
	heap.Push(&s.queue, job)
}
