package wipe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"wipeout_enterprise/internal/logging"
)

// Параметры разреженной выборки
const (
	DefaultSampleSize = 1024 * 1024 // 1MB
	MinSamples        = 10
	MaxSamples        = 1000
	// NonZeroTolerance — допустимая доля «грязных» выборок
	// (изолированные сбойные секторы не проваливают проверку)
	NonZeroTolerance = 0.05
)

// VerifyOptions — параметры проверки остаточного содержимого
type VerifyOptions struct {
	SampleSize int64 // 0 = DefaultSampleSize
	// Expected — ожидаемый паттерн финального содержимого цели.
	// nil означает исторический вариант: все байты нулевые.
	Expected *Pattern
}

// VerificationResult — итог разреженной проверки остаточного содержимого
type VerificationResult struct {
	Success        bool      `json:"success"`
	Skipped        bool      `json:"skipped,omitempty"`
	SamplesChecked int       `json:"samples_checked"`
	NonZeroSamples int       `json:"non_zero_samples"`
	ErrorCount     int       `json:"error_count"`
	Errors         []string  `json:"errors,omitempty"`
	SampleSize     int64     `json:"sample_size"`
	NumSamples     int       `json:"num_samples"`
	SampleInterval int64     `json:"sample_interval"`
	MaxAllowed     float64   `json:"max_allowed_non_zero"`
	Timestamp      time.Time `json:"timestamp"`
}

// PatternCheckResult — итог точечной проверки записанного паттерна
type PatternCheckResult struct {
	Success       bool      `json:"success"`
	Pattern       string    `json:"pattern"`
	Offset        int64     `json:"offset"`
	Length        int64     `json:"length"`
	BytesVerified int64     `json:"bytes_verified"`
	Mismatches    int64     `json:"mismatches"`
	Errors        []string  `json:"errors,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HashResult — итог вычисления хэша содержимого цели
type HashResult struct {
	Success        bool      `json:"success"`
	HashAlgorithm  string    `json:"hash_algorithm"`
	HashValue      string    `json:"hash_value,omitempty"`
	BytesProcessed int64     `json:"bytes_processed"`
	ErrorCount     int       `json:"error_count"`
	Errors         []string  `json:"errors,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// VerifyWipe выполняет разреженную статистическую проверку: читает
// ограниченное число выборок, равномерно распределённых по цели, и
// оценивает, осталось ли на ней содержимое, отличное от ожидаемого.
// Ошибки чтения учитываются, но выборка продолжается. Успех: «грязных»
// выборок не больше max(1, checked*0.05) и ошибок чтения нет.
func VerifyWipe(target io.ReaderAt, size int64, logger *logging.AuditLogger, opts VerifyOptions) *VerificationResult {
	if logger == nil {
		logger = logging.Discard()
	}

	result := &VerificationResult{
		Timestamp: time.Now().UTC(),
	}

	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if sampleSize > size {
		sampleSize = size
	}
	result.SampleSize = sampleSize

	if size <= 0 || sampleSize <= 0 {
		result.Errors = append(result.Errors, "target is empty, nothing to verify")
		return result
	}

	// Число выборок: минимум 10, максимум 1000
	numSamples := size / (sampleSize * 100)
	if numSamples < MinSamples {
		numSamples = MinSamples
	}
	if numSamples > MaxSamples {
		numSamples = MaxSamples
	}
	interval := size / numSamples
	result.NumSamples = int(numSamples)
	result.SampleInterval = interval

	logger.Log("INFO", "Проверка остаточного содержимого",
		"samples", numSamples, "sample_size", sampleSize, "interval", interval)

	// Таблица допустимых байтов: байт вне множества ожидаемого паттерна
	// делает выборку «грязной»
	var allowed [256]bool
	if opts.Expected == nil || len(opts.Expected.Bytes) == 0 {
		allowed[0] = true
	} else {
		for _, b := range opts.Expected.Bytes {
			allowed[b] = true
		}
	}

	buf := GetBuffer(int(sampleSize))
	defer PutBuffer(buf)

	for i := int64(0); i < numSamples; i++ {
		position := i * interval
		if position+sampleSize > size {
			position = size - sampleSize
		}
		if position < 0 {
			position = 0
		}

		n, err := target.ReadAt(buf[:sampleSize], position)
		if err != nil && err != io.EOF {
			result.ErrorCount++
			result.Errors = append(result.Errors,
				fmt.Sprintf("error reading sample %d at position %d: %v", i, position, err))
			logger.Log("ERROR", "Ошибка чтения выборки", "sample", i, "position", position, "error", err.Error())
			continue
		}
		if n == 0 {
			break
		}

		result.SamplesChecked++

		dirty := 0
		for _, b := range buf[:n] {
			if !allowed[b] {
				dirty++
			}
		}
		if dirty > 0 {
			result.NonZeroSamples++
			logger.Log("DEBUG", "Выборка с остаточными данными",
				"sample", i, "position", position, "dirty_bytes", dirty)
		}
	}

	result.MaxAllowed = float64(result.SamplesChecked) * NonZeroTolerance
	if result.MaxAllowed < 1 {
		result.MaxAllowed = 1
	}

	if float64(result.NonZeroSamples) <= result.MaxAllowed && result.ErrorCount == 0 {
		result.Success = true
		logger.Log("INFO", "Верификация пройдена",
			"non_zero", result.NonZeroSamples, "checked", result.SamplesChecked)
	} else {
		logger.Log("WARN", "Верификация не пройдена",
			"non_zero", result.NonZeroSamples, "checked", result.SamplesChecked, "errors", result.ErrorCount)
	}

	return result
}

// VerifyPatternWrite — точечная проверка: читает [offset, offset+length),
// тиражирует ожидаемый паттерн на ту же длину и считает побайтовые
// несовпадения. Успех только при нуле несовпадений.
func VerifyPatternWrite(target io.ReaderAt, pattern []byte, offset, length int64, logger *logging.AuditLogger) *PatternCheckResult {
	if logger == nil {
		logger = logging.Discard()
	}

	result := &PatternCheckResult{
		Pattern:   hex.EncodeToString(pattern),
		Offset:    offset,
		Length:    length,
		Timestamp: time.Now().UTC(),
	}

	if len(pattern) == 0 {
		result.Errors = append(result.Errors, "empty pattern")
		return result
	}
	if length <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid length %d", length))
		return result
	}

	data := GetBuffer(int(length))
	defer PutBuffer(data)

	n, err := target.ReadAt(data[:length], offset)
	if err != nil && err != io.EOF {
		result.Errors = append(result.Errors, fmt.Sprintf("read failed at offset %d: %v", offset, err))
		return result
	}
	if int64(n) != length {
		result.Errors = append(result.Errors,
			fmt.Sprintf("could only read %d bytes instead of %d", n, length))
		return result
	}

	expected := GetBuffer(int(length))
	defer PutBuffer(expected)
	TilePattern(expected[:length], pattern)

	var mismatches int64
	for i := int64(0); i < length; i++ {
		if data[i] != expected[i] {
			mismatches++
		}
	}

	result.BytesVerified = length
	result.Mismatches = mismatches
	result.Success = mismatches == 0

	if result.Success {
		logger.Log("DEBUG", "Проверка паттерна пройдена", "offset", offset, "length", length)
	} else {
		logger.Log("WARN", "Проверка паттерна не пройдена",
			"offset", offset, "mismatches", mismatches, "length", length)
	}

	return result
}

// DeviceHash вычисляет SHA-256 всего содержимого цели для аудита
func DeviceHash(target io.ReaderAt, size int64, logger *logging.AuditLogger, chunkSize int64) *HashResult {
	if logger == nil {
		logger = logging.Discard()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultSampleSize
	}

	result := &HashResult{
		HashAlgorithm: "sha256",
		Timestamp:     time.Now().UTC(),
	}

	hasher := sha256.New()
	buf := GetBuffer(int(chunkSize))
	defer PutBuffer(buf)

	var processed int64
	for processed < size {
		remaining := size - processed
		cur := chunkSize
		if remaining < cur {
			cur = remaining
		}

		n, err := target.ReadAt(buf[:cur], processed)
		if n > 0 {
			hasher.Write(buf[:n])
			processed += int64(n)
		}
		if err != nil && err != io.EOF {
			result.ErrorCount++
			result.Errors = append(result.Errors,
				fmt.Sprintf("error reading chunk at position %d: %v", processed, err))
			logger.Log("ERROR", "Ошибка чтения при хэшировании", "position", processed, "error", err.Error())
			break
		}
		if n == 0 {
			break
		}
	}

	result.BytesProcessed = processed
	result.HashValue = hex.EncodeToString(hasher.Sum(nil))
	result.Success = processed == size && result.ErrorCount == 0

	if result.Success {
		logger.Log("INFO", "Хэш вычислен", "hash", result.HashValue)
	} else {
		logger.Log("WARN", "Хэширование неполное", "processed", processed, "total", size)
	}

	return result
}
