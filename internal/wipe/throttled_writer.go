package wipe

import (
	"sync"
	"time"
)

// ThrottledTarget ограничивает скорость записи в цель (thread-safe)
type ThrottledTarget struct {
	target       Target
	maxSpeedMBps float64
	lastWrite    time.Time
	mu           sync.Mutex
}

// NewThrottledTarget оборачивает цель с ограничением скорости записи
func NewThrottledTarget(target Target, maxSpeedMBps float64) *ThrottledTarget {
	return &ThrottledTarget{
		target:       target,
		maxSpeedMBps: maxSpeedMBps,
		lastWrite:    time.Now(),
	}
}

// WriteAt записывает данные по смещению с ограничением скорости
func (tt *ThrottledTarget) WriteAt(data []byte, off int64) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	tt.mu.Lock()
	defer tt.mu.Unlock()

	now := time.Now()
	if tt.maxSpeedMBps > 0 {
		bytesPerSec := tt.maxSpeedMBps * 1024 * 1024
		if bytesPerSec > 0 {
			expected := time.Duration(float64(len(data)) / bytesPerSec * float64(time.Second))
			actual := now.Sub(tt.lastWrite)
			if actual < expected {
				time.Sleep(expected - actual)
			}
		}
	}

	n, err := tt.target.WriteAt(data, off)
	tt.lastWrite = time.Now()
	return n, err
}

// ReadAt читает данные по смещению без ограничения скорости
func (tt *ThrottledTarget) ReadAt(data []byte, off int64) (int, error) {
	return tt.target.ReadAt(data, off)
}

// Sync синхронизирует данные на носитель
func (tt *ThrottledTarget) Sync() error {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	return tt.target.Sync()
}
