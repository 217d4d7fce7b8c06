package api

import (
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo снимок состояния процесса для /api/server
type ProcessInfo struct {
	Uptime     string   `json:"uptime"`
	HeapAlloc  string   `json:"heap_alloc"`
	Goroutines int      `json:"goroutines"`
	CPUPercent *float64 `json:"cpu_percent,omitempty"`
}

type processProbe struct {
	started time.Time
	proc    *process.Process
}

func newProcessProbe() *processProbe {
	p := &processProbe{started: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		p.proc = proc
	}
	return p
}

func (p *processProbe) read() ProcessInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := ProcessInfo{
		Uptime:     time.Since(p.started).Truncate(time.Second).String(),
		HeapAlloc:  humanize.Bytes(mem.HeapAlloc),
		Goroutines: runtime.NumGoroutine(),
	}
	if pct, ok := p.cpuPercent(); ok {
		info.CPUPercent = &pct
	}
	return info
}

// cpuPercent берёт загрузку процесса, при ошибке загрузку всей системы.
func (p *processProbe) cpuPercent() (float64, bool) {
	if p.proc != nil {
		if pct, err := p.proc.CPUPercent(); err == nil {
			return pct, true
		}
	}
	all, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(all) == 0 {
		return 0, false
	}
	return all[0], true
}
