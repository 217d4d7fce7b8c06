package mesh

import (
	"errors"
	"runtime"
	"sync"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/atomic"
)

// ErrPoolClosed задача отправлена в закрытый пул
var ErrPoolClosed = errors.New("mesh: пул закрыт")

// Job задача построения меша
type Job struct {
	Coords    vec.Vec3
	Data      *world.ChunkData
	Timestamp uint64
	Priority  bool // правки игрока обрабатываются раньше подгрузки области
}

// Result результат построения меша
type Result struct {
	Coords    vec.Vec3
	Mesh      Mesh
	Timestamp uint64
}

// PoolStats счётчики пула
type PoolStats struct {
	Workers   int    `json:"workers"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Pending   int    `json:"pending"`
}

// WorkerPool фиксированный набор горутин с неограниченными очередями задач и результатов
type WorkerPool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	priority []Job
	jobs     []Job
	results  []Result
	closed   bool

	build   func(*world.ChunkData) Mesh
	workers int
	wg      sync.WaitGroup

	submitted atomic.Uint64
	completed atomic.Uint64
}

// DefaultWorkers число логических ядер
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// NewWorkerPool запускает пул; workers <= 0 означает число ядер
func NewWorkerPool(workers int) *WorkerPool {
	return newWorkerPool(workers, Build)
}

func newWorkerPool(workers int, build func(*world.ChunkData) Mesh) *WorkerPool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	p := &WorkerPool{build: build, workers: workers}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	logging.Debug("Пул построения мешей: %d воркеров", workers)
	return p
}

// Submit ставит задачу в очередь. Никогда не блокируется.
func (p *WorkerPool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	if job.Priority {
		p.priority = append(p.priority, job)
	} else {
		p.jobs = append(p.jobs, job)
	}
	p.submitted.Inc()
	p.cond.Signal()
	return nil
}

// Drain забирает все готовые результаты без ожидания
func (p *WorkerPool) Drain() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := p.results
	p.results = nil
	return results
}

// Stats возвращает счётчики пула
func (p *WorkerPool) Stats() PoolStats {
	p.mu.Lock()
	pending := len(p.priority) + len(p.jobs)
	p.mu.Unlock()
	return PoolStats{
		Workers:   p.workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Pending:   pending,
	}
}

// Close останавливает воркеры. Задачи из очереди отбрасываются, начатые завершаются.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.priority = nil
	p.jobs = nil
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *WorkerPool) next() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.closed && len(p.priority) == 0 && len(p.jobs) == 0 {
		p.cond.Wait()
	}
	if p.closed {
		return Job{}, false
	}
	var job Job
	if len(p.priority) > 0 {
		job, p.priority = p.priority[0], p.priority[1:]
	} else {
		job, p.jobs = p.jobs[0], p.jobs[1:]
	}
	return job, true
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		result := Result{Coords: job.Coords, Mesh: p.build(job.Data), Timestamp: job.Timestamp}

		p.mu.Lock()
		p.results = append(p.results, result)
		p.mu.Unlock()
		p.completed.Inc()
	}
}
