package wipe

import (
	"runtime"
	"sync"
)

// BufferPool управляет пулом чанковых буферов для снижения аллокаций
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

var globalBufferPool = &BufferPool{
	pools: make(map[int]*sync.Pool),
}

// GetBuffer получает буфер из пула или создает новый
func GetBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}

	return globalBufferPool.getBuffer(size)
}

// PutBuffer возвращает буфер в пул. Перед возвратом буфер обнуляется:
// в нём могли остаться паттерны и случайные данные прохода.
func PutBuffer(buf []byte) {
	if len(buf) == 0 {
		return
	}

	globalBufferPool.putBuffer(buf)
}

// getBuffer получает буфер нужного размера
func (bp *BufferPool) getBuffer(size int) []byte {
	// Находим ближайший размер из существующих пулов
	poolSize := bp.getPoolSize(size)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		// Double-check
		pool, exists = bp.pools[poolSize]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, poolSize)
				},
			}
			bp.pools[poolSize] = pool
		}
		bp.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	return buf[:size] // Возвращаем слайс нужного размера
}

// putBuffer возвращает буфер в соответствующий пул
func (bp *BufferPool) putBuffer(buf []byte) {
	capacity := cap(buf)
	poolSize := bp.getPoolSize(capacity)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if exists {
		ZeroBuffer(buf[:capacity])
		pool.Put(buf[:capacity])
	}
}

// getPoolSize определяет размер пула для буфера
func (bp *BufferPool) getPoolSize(size int) int {
	// Стандартные размеры пулов (степени двойки)
	sizes := []int{1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	for _, poolSize := range sizes {
		if size <= poolSize {
			return poolSize
		}
	}

	// Если размер больше максимального, создаем пул точного размера
	return ((size + 4095) / 4096) * 4096 // Округляем до 4KB
}

// TilePattern заполняет буфер повторением единицы паттерна
// (повторить и усечь до длины буфера)
func TilePattern(buf []byte, unit []byte) {
	if len(buf) == 0 || len(unit) == 0 {
		return
	}

	n := copy(buf, unit)
	for n < len(buf) {
		n += copy(buf[n:], buf[:n])
	}
}

// ZeroBuffer обнуляет буфер. runtime.KeepAlive не даёт компилятору
// выбросить обнуление как мёртвую запись.
func ZeroBuffer(buf []byte) {
	if len(buf) == 0 {
		return
	}
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
