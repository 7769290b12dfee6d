package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// Usage holds a point-in-time CPU and memory sample for one process.
type Usage struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	MemoryRSS  uint64    `json:"memory_rss"`
	MemoryVMS  uint64    `json:"memory_vms"`
	NumThreads int32     `json:"num_threads"`
	NumFDs     int32     `json:"num_fds,omitempty"` // Unix only
	Timestamp  time.Time `json:"timestamp"`
}

// Sample reads CPU and memory usage for pid. It is used one-shot by
// status reporting and periodically by UsageSampler.
func Sample(pid int32) (*Usage, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}
	u := &Usage{PID: pid, Timestamp: time.Now()}
	if cpu, err := proc.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("memory info for %d: %w", pid, err)
	}
	u.MemoryRSS = mem.RSS
	u.MemoryVMS = mem.VMS
	u.MemoryMB = float64(mem.RSS) / 1024 / 1024
	if n, err := proc.NumThreads(); err == nil {
		u.NumThreads = n
	}
	if runtime.GOOS != "windows" {
		if n, err := proc.NumFDs(); err == nil {
			u.NumFDs = n
		}
	}
	return u, nil
}

// UsageSampler periodically samples one process and exposes the result
// as gauges. The daemon runs one against its own PID so /metrics shows
// engine resource usage.
type UsageSampler struct {
	pid      int32
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	cpuPercent prometheus.Gauge
	memoryMB   prometheus.Gauge
	numThreads prometheus.Gauge
	numFDs     prometheus.Gauge
}

// NewUsageSampler builds a sampler for pid. interval defaults to 5s.
func NewUsageSampler(pid int32, interval time.Duration) *UsageSampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &UsageSampler{
		pid:      pid,
		interval: interval,
		stopCh:   make(chan struct{}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "cpu_percent",
			Help:      "CPU usage percentage of the daemon process.",
		}),
		memoryMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "memory_mb",
			Help:      "Resident memory of the daemon process in MB.",
		}),
		numThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "num_threads",
			Help:      "Thread count of the daemon process.",
		}),
		numFDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "num_fds",
			Help:      "Open file descriptors of the daemon process (Unix only).",
		}),
	}
}

// RegisterMetricsDefault registers the sampler gauges with the default
// registry.
func (s *UsageSampler) RegisterMetricsDefault() error {
	return s.RegisterMetrics(prometheus.DefaultRegisterer)
}

// RegisterMetrics registers the sampler gauges with r.
func (s *UsageSampler) RegisterMetrics(r prometheus.Registerer) error {
	cs := []prometheus.Collector{s.cpuPercent, s.memoryMB, s.numThreads}
	if runtime.GOOS != "windows" {
		cs = append(cs, s.numFDs)
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Start begins periodic sampling until ctx is done or Stop is called.
func (s *UsageSampler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.sampleOnce()
			}
		}
	}()
}

// Stop halts sampling and waits for the loop to exit.
func (s *UsageSampler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *UsageSampler) sampleOnce() {
	u, err := Sample(s.pid)
	if err != nil {
		slog.Debug("usage sample failed", "pid", s.pid, "error", err)
		return
	}
	s.cpuPercent.Set(u.CPUPercent)
	s.memoryMB.Set(u.MemoryMB)
	s.numThreads.Set(float64(u.NumThreads))
	if runtime.GOOS != "windows" && u.NumFDs > 0 {
		s.numFDs.Set(float64(u.NumFDs))
	}
}
