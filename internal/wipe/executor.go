package wipe

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wipeout_enterprise/internal/logging"
)

// Request — параметры запуска операции затирания
type Request struct {
	Algorithm  *Algorithm
	BufferSize int64 // 0 = DefaultBufferSize
	Verify     bool  // проверить затирание после завершения
}

// Executor выполняет многопроходное затирание цели. Однопоточный,
// синхронный; проходы строго последовательны — проход k+1 не начинается,
// пока данные прохода k не зафиксированы на носителе барьером Sync.
type Executor struct {
	logger       *logging.AuditLogger
	progress     ProgressFunc
	maxSpeedMBps float64
}

// NewExecutor создает новый исполнитель затирания
func NewExecutor(logger *logging.AuditLogger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Executor{logger: logger}
}

// SetProgress устанавливает callback прогресса (вызывается раз на чанк)
func (e *Executor) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// SetMaxSpeed ограничивает скорость записи (0 = без ограничения)
func (e *Executor) SetMaxSpeed(mbps float64) {
	e.maxSpeedMBps = mbps
}

// Wipe перезаписывает все size байт цели по таблице проходов алгоритма.
// Ошибка возвращается только для невалидных аргументов вызова; любой сбой
// самой операции превращается в WipeResult со статусом FAILED — исключение
// не покидает публичную границу.
func (e *Executor) Wipe(ctx context.Context, target Target, size int64, req Request) (result *WipeResult, err error) {
	if target == nil {
		return nil, fmt.Errorf("target is required")
	}
	if size < 0 {
		return nil, fmt.Errorf("target size cannot be negative, got %d", size)
	}
	if req.Algorithm == nil {
		return nil, fmt.Errorf("algorithm is required")
	}
	if req.BufferSize == 0 {
		req.BufferSize = DefaultBufferSize
	}
	if req.BufferSize < MinBufferSize || req.BufferSize > MaxBufferSize {
		return nil, fmt.Errorf("buffer size must be between %d and %d bytes, got %d",
			MinBufferSize, MaxBufferSize, req.BufferSize)
	}

	result = &WipeResult{
		OperationID:   uuid.NewString(),
		Algorithm:     req.Algorithm.Name(),
		PassesPlanned: req.Algorithm.Passes(),
		StartTime:     time.Now().UTC(),
		Status:        StatusRunning,
		TotalBytes:    size,
	}

	// Паника из цикла записи не должна уронить вызывающего:
	// конвертируем в FAILED результат
	defer func() {
		if r := recover(); r != nil {
			e.logger.Log("ERROR", "Паника при затирании", "panic", fmt.Sprintf("%v", r))
			e.fail(result, fmt.Sprintf("wipe operation failed: %v", r))
		}
	}()

	job := &WipeJob{
		Target:     target,
		TotalSize:  size,
		BufferSize: req.BufferSize,
		Algorithm:  req.Algorithm,
	}

	e.logger.Log("INFO", "Начало затирания",
		"operation", result.OperationID,
		"algorithm", req.Algorithm.Name(),
		"passes", req.Algorithm.Passes(),
		"size", size,
		"buffer", req.BufferSize)

	var writer Target = target
	if e.maxSpeedMBps > 0 {
		writer = NewThrottledTarget(target, e.maxSpeedMBps)
	}

	buf := GetBuffer(int(req.BufferSize))
	defer PutBuffer(buf)

	for pass := 0; pass < req.Algorithm.Passes(); pass++ {
		pattern, perr := req.Algorithm.GetPattern(pass)
		if perr != nil {
			e.fail(result, perr.Error())
			return result, nil
		}

		e.logger.Log("INFO", "Проход затирания",
			"pass", pass+1,
			"total", req.Algorithm.Passes(),
			"pattern", req.Algorithm.PatternDescription(pass))

		// Фиксированный паттерн тиражируется в буфер один раз на проход;
		// случайные данные генерируются заново для каждого чанка
		if pattern.Kind == PatternFixed {
			TilePattern(buf, pattern.Bytes)
		}

		job.Pass = pass
		job.BytesWiped = 0

		var offset int64
		for offset < size {
			select {
			case <-ctx.Done():
				// Кооперативная отмена: новые записи не выдаются,
				// записанное фиксируется на носителе
				if serr := target.Sync(); serr != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("sync on cancel: %v", serr))
					job.ErrorCount++
				}
				result.Warnings = append(result.Warnings, "operation cancelled")
				result.BytesWiped = job.BytesWiped
				result.SectorsWiped = job.BytesWiped / SectorSize
				result.ErrorCount = job.ErrorCount
				result.Status = StatusCancelled
				e.finalize(result)
				e.logger.Log("INFO", "Затирание отменено", "operation", result.OperationID, "pass", pass+1)
				return result, nil
			default:
			}

			chunkLen := size - offset
			if chunkLen > req.BufferSize {
				chunkLen = req.BufferSize
			}
			chunk := buf[:chunkLen]

			if pattern.Kind == PatternRandom {
				if _, rerr := rand.Read(chunk); rerr != nil {
					e.fail(result, fmt.Sprintf("random data generation failed: %v", rerr))
					return result, nil
				}
			}

			n, werr := writer.WriteAt(chunk, offset)
			if n > 0 {
				offset += int64(n)
				job.BytesWiped += uint64(n)
			}

			switch {
			case werr != nil:
				// Ошибка записи не фатальна: регистрируем, пропускаем
				// оставшуюся часть чанка и идем дальше. Пропущенный регион
				// явно фиксируется в результате — он остался без
				// подтверждённой перезаписи в этом проходе.
				msg := fmt.Sprintf("write error at offset %d: %v", offset, werr)
				e.logger.Log("ERROR", "Ошибка записи", "offset", offset, "pass", pass+1, "error", werr.Error())
				result.Errors = append(result.Errors, msg)
				job.ErrorCount++
				if skipped := chunkLen - int64(n); skipped > 0 {
					result.SkippedRanges = append(result.SkippedRanges, SkippedRange{
						Pass:   pass,
						Offset: offset,
						Length: skipped,
					})
					offset += skipped
				}
			case n == 0:
				// Запись вернула 0 байт без ошибки — считаем регион
				// недоступным, иначе цикл не завершится
				msg := fmt.Sprintf("write returned 0 bytes without error at offset %d", offset)
				e.logger.Log("ERROR", "Нулевая запись", "offset", offset, "pass", pass+1)
				result.Errors = append(result.Errors, msg)
				job.ErrorCount++
				result.SkippedRanges = append(result.SkippedRanges, SkippedRange{
					Pass:   pass,
					Offset: offset,
					Length: chunkLen,
				})
				offset += chunkLen
			case int64(n) < chunkLen:
				// Короткая запись: прогресс только на фактически
				// записанные байты, остаток допишет следующая итерация
				e.logger.Log("WARN", "Частичная запись", "written", n, "expected", chunkLen, "pass", pass+1)
			}

			if e.progress != nil {
				e.progress(job.BytesWiped, uint64(size), pass)
			}
		}

		// Барьер долговечности: следующий проход не начинается, пока
		// данные этого прохода не стабильны на носителе
		if serr := target.Sync(); serr != nil {
			e.fail(result, fmt.Sprintf("durability barrier failed after pass %d: %v", pass+1, serr))
			return result, nil
		}

		result.PassesCompleted++
		result.BytesWiped = job.BytesWiped
		result.SectorsWiped = job.BytesWiped / SectorSize
		result.ErrorCount = job.ErrorCount

		e.logger.Log("INFO", "Проход завершён",
			"pass", pass+1,
			"total", req.Algorithm.Passes(),
			"bytes", job.BytesWiped,
			"errors", job.ErrorCount)
	}

	if job.ErrorCount > 0 {
		result.Status = StatusPartial
	} else {
		result.Status = StatusSuccess
	}

	if req.Verify {
		e.verify(target, size, req.Algorithm, result)
	}

	e.finalize(result)
	e.logger.Log("INFO", "Затирание завершено",
		"operation", result.OperationID,
		"status", result.Status,
		"bytes", result.BytesWiped,
		"errors", result.ErrorCount)
	return result, nil
}

// verify выполняет пост-проверку затирания. Ожидаемое содержимое
// параметризуется паттерном последнего прохода; для случайного последнего
// прохода статистическая проверка остатков не имеет смысла и пропускается.
func (e *Executor) verify(target Target, size int64, alg *Algorithm, result *WipeResult) {
	last, err := alg.GetPattern(alg.Passes() - 1)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("verification skipped: %v", err))
		return
	}

	if last.Kind == PatternRandom {
		e.logger.Log("WARN", "Верификация пропущена: последний проход случайный", "algorithm", alg.Name())
		result.Verification = &VerificationResult{
			Skipped:   true,
			Success:   true,
			Timestamp: time.Now().UTC(),
		}
		result.Warnings = append(result.Warnings,
			"residual verification skipped: final pass writes random data")
		return
	}

	e.logger.Log("INFO", "Начало верификации затирания", "expected", last.String())
	result.Verification = VerifyWipe(target, size, e.logger, VerifyOptions{Expected: &last})
	if !result.Verification.Success {
		result.Warnings = append(result.Warnings, "wipe verification failed")
		e.logger.Log("WARN", "Верификация затирания не пройдена",
			"non_zero_samples", result.Verification.NonZeroSamples,
			"errors", result.Verification.ErrorCount)
	}
}

func (e *Executor) fail(result *WipeResult, msg string) {
	result.Errors = append(result.Errors, msg)
	result.ErrorCount = len(result.Errors)
	result.Status = StatusFailed
	e.finalize(result)
}

func (e *Executor) finalize(result *WipeResult) {
	if !result.EndTime.IsZero() {
		return
	}
	result.EndTime = time.Now().UTC()
	result.Duration = result.EndTime.Sub(result.StartTime).String()
}
