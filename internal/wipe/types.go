package wipe

import (
	"io"
	"time"
)

// Статусы операции затирания
const (
	StatusRunning   = "RUNNING"
	StatusSuccess   = "SUCCESS"
	StatusPartial   = "PARTIAL"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// SectorSize — учётный размер сектора для отчётности (не для выравнивания I/O)
const SectorSize = 512

// Границы размера буфера записи
const (
	MinBufferSize     = 1
	MaxBufferSize     = 100 * 1024 * 1024 // 100MB
	DefaultBufferSize = 1024 * 1024       // 1MB
)

// Target — затираемая цель: адресуемый по смещению диапазон байт
// известной длины, открытый на чтение и запись. *os.File подходит.
type Target interface {
	io.WriterAt
	io.ReaderAt
	Sync() error
}

// ProgressFunc вызывается один раз на чанк с прогрессом текущего прохода
type ProgressFunc func(bytesWritten uint64, totalBytes uint64, pass int)

// WipeJob — состояние выполняющейся операции. Принадлежит исключительно
// исполнителю на время запуска, после завершения не сохраняется.
type WipeJob struct {
	Target     Target
	TotalSize  int64
	BufferSize int64
	Algorithm  *Algorithm
	Pass       int    // текущий проход
	BytesWiped uint64 // записано в текущем проходе
	ErrorCount int
}

// SkippedRange — регион, оставшийся без подтверждённой перезаписи
// в конкретном проходе из-за ошибки записи
type SkippedRange struct {
	Pass   int   `json:"pass"`
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// WipeResult — неизменяемый итог завершённой операции затирания.
// Единственная нагрузка, передаваемая внешнему сервису сертификации.
type WipeResult struct {
	OperationID     string              `json:"operation_id"`
	Algorithm       string              `json:"algorithm"`
	PassesPlanned   int                 `json:"passes_planned"`
	PassesCompleted int                 `json:"passes_completed"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	Duration        string              `json:"duration"`
	Status          string              `json:"status"`
	TotalBytes      int64               `json:"total_bytes"`
	BytesWiped      uint64              `json:"bytes_wiped"`
	SectorsWiped    uint64              `json:"sectors_wiped"`
	ErrorCount      int                 `json:"error_count"`
	Errors          []string            `json:"errors,omitempty"`
	Warnings        []string            `json:"warnings,omitempty"`
	SkippedRanges   []SkippedRange      `json:"skipped_ranges,omitempty"`
	Verification    *VerificationResult `json:"verification_result,omitempty"`
}
