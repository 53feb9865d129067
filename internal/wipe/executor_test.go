package wipe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"wipeout_enterprise/internal/logging"
)

// memTarget — цель в памяти с управляемой инъекцией сбоев записи
type memTarget struct {
	data    []byte
	syncs   int
	syncErr error
	failAt  map[int64]error // однократная ошибка записи по смещению
	zeroAt  map[int64]bool  // однократная запись 0 байт без ошибки
}

func newMemTarget(size int64) *memTarget {
	return &memTarget{data: make([]byte, size)}
}

func (m *memTarget) WriteAt(p []byte, off int64) (int, error) {
	if err, ok := m.failAt[off]; ok {
		delete(m.failAt, off)
		return 0, err
	}
	if m.zeroAt[off] {
		delete(m.zeroAt, off)
		return 0, nil
	}
	if off < 0 || off > int64(len(m.data)) {
		return 0, errors.New("offset out of range")
	}
	return copy(m.data[off:], p), nil
}

func (m *memTarget) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memTarget) Sync() error {
	m.syncs++
	return m.syncErr
}

func TestWipeCleanRun(t *testing.T) {
	const size = 256 * 1024
	target := newMemTarget(size)
	exec := NewExecutor(logging.Discard())

	// Финальный callback каждого прохода должен покрывать весь размер
	passTotals := make(map[int]uint64)
	exec.SetProgress(func(written, total uint64, pass int) {
		passTotals[pass] = written
		require.Equal(t, uint64(size), total)
	})

	alg, err := NewAlgorithm(AlgorithmNIST, 0)
	require.NoError(t, err)

	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm:  alg,
		BufferSize: 16 * 1024,
	})
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, 3, result.PassesPlanned)
	require.Equal(t, 3, result.PassesCompleted)
	require.Equal(t, uint64(size), result.BytesWiped)
	require.Equal(t, uint64(size/SectorSize), result.SectorsWiped)
	require.Zero(t, result.ErrorCount)
	require.Empty(t, result.Errors)
	require.Empty(t, result.SkippedRanges)
	require.NotEmpty(t, result.OperationID)
	require.False(t, result.EndTime.IsZero())

	// Барьер Sync после каждого из трёх проходов
	require.GreaterOrEqual(t, target.syncs, 3)

	for pass := 0; pass < 3; pass++ {
		require.Equal(t, uint64(size), passTotals[pass], "pass %d must cover the whole target", pass)
	}
}

func TestWipeFinalContent(t *testing.T) {
	const size = 64 * 1024
	target := newMemTarget(size)
	for i := range target.data {
		target.data[i] = 0x5A
	}

	alg, err := NewCustom([]Pattern{
		FixedPattern(0xAB),
		FixedPattern(0xCD),
	})
	require.NoError(t, err)

	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm:  alg,
		BufferSize: 8 * 1024,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)

	// После завершения носитель содержит паттерн последнего прохода
	require.Equal(t, bytes.Repeat([]byte{0xCD}, size), target.data)
}

func TestWipePartialOnWriteErrors(t *testing.T) {
	const size = 128 * 1024
	const bufSize = 16 * 1024

	target := newMemTarget(size)
	target.failAt = map[int64]error{
		16 * 1024: errors.New("injected I/O error"),
		48 * 1024: errors.New("injected I/O error"),
		96 * 1024: errors.New("injected I/O error"),
	}

	alg := NewNISTClear()
	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm:  alg,
		BufferSize: bufSize,
	})
	require.NoError(t, err)

	require.Equal(t, StatusPartial, result.Status)
	require.Equal(t, 1, result.PassesCompleted)
	require.Equal(t, 3, result.ErrorCount)
	require.Len(t, result.Errors, 3)
	require.Len(t, result.SkippedRanges, 3)

	for _, r := range result.SkippedRanges {
		require.Equal(t, 0, r.Pass)
		require.Equal(t, int64(bufSize), r.Length)
	}

	// Пропущенные байты не засчитаны как затёртые
	require.Equal(t, uint64(size-3*bufSize), result.BytesWiped)
}

func TestWipeZeroWriteDoesNotHang(t *testing.T) {
	const size = 64 * 1024
	target := newMemTarget(size)
	target.zeroAt = map[int64]bool{0: true}

	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm:  NewNISTClear(),
		BufferSize: 16 * 1024,
	})
	require.NoError(t, err)

	require.Equal(t, StatusPartial, result.Status)
	require.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.SkippedRanges, 1)
	require.Equal(t, int64(0), result.SkippedRanges[0].Offset)
	require.Equal(t, int64(16*1024), result.SkippedRanges[0].Length)
}

func TestWipeCancellation(t *testing.T) {
	const size = 256 * 1024
	target := newMemTarget(size)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(ctx, target, size, Request{
		Algorithm:  NewNISTClear(),
		BufferSize: 16 * 1024,
	})
	require.NoError(t, err)

	require.Equal(t, StatusCancelled, result.Status)
	require.Contains(t, result.Warnings, "operation cancelled")
	require.Zero(t, result.PassesCompleted)
	require.Zero(t, result.BytesWiped)
	require.False(t, result.EndTime.IsZero())
	// Записанное на момент отмены зафиксировано на носителе
	require.GreaterOrEqual(t, target.syncs, 1)
}

func TestWipeMidRunCancellation(t *testing.T) {
	const size = 256 * 1024
	target := newMemTarget(size)

	ctx, cancel := context.WithCancel(context.Background())
	exec := NewExecutor(logging.Discard())
	exec.SetProgress(func(written, total uint64, pass int) {
		if written >= total/2 {
			cancel()
		}
	})

	result, err := exec.Wipe(ctx, target, size, Request{
		Algorithm:  NewNISTClear(),
		BufferSize: 16 * 1024,
	})
	require.NoError(t, err)

	require.Equal(t, StatusCancelled, result.Status)
	require.Greater(t, result.BytesWiped, uint64(0))
	require.Less(t, result.BytesWiped, uint64(size))
}

func TestWipeSyncFailureIsFatal(t *testing.T) {
	target := newMemTarget(64 * 1024)
	target.syncErr = errors.New("device vanished")

	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), target, 64*1024, Request{
		Algorithm: NewNISTClear(),
	})
	require.NoError(t, err)

	require.Equal(t, StatusFailed, result.Status)
	require.NotEmpty(t, result.Errors)
	require.Contains(t, result.Errors[0], "durability barrier failed after pass 1")
}

func TestWipeArgumentValidation(t *testing.T) {
	exec := NewExecutor(logging.Discard())
	ctx := context.Background()
	alg := NewNISTClear()
	target := newMemTarget(1024)

	_, err := exec.Wipe(ctx, nil, 1024, Request{Algorithm: alg})
	require.Error(t, err)

	_, err = exec.Wipe(ctx, target, -1, Request{Algorithm: alg})
	require.Error(t, err)

	_, err = exec.Wipe(ctx, target, 1024, Request{})
	require.Error(t, err)

	_, err = exec.Wipe(ctx, target, 1024, Request{Algorithm: alg, BufferSize: MaxBufferSize + 1})
	require.Error(t, err)

	// Нулевой размер буфера заменяется значением по умолчанию
	result, err := exec.Wipe(ctx, target, 1024, Request{Algorithm: alg})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
}

func TestWipeEmptyTarget(t *testing.T) {
	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), newMemTarget(0), 0, Request{
		Algorithm: NewNISTClear(),
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Zero(t, result.BytesWiped)
	require.Equal(t, 1, result.PassesCompleted)
}

func TestWipeNISTEndToEnd(t *testing.T) {
	const size = 10 * 1024 * 1024
	target := newMemTarget(size)

	alg, err := NewAlgorithm(AlgorithmNIST, 0)
	require.NoError(t, err)

	exec := NewExecutor(logging.Discard())
	passTotals := make(map[int]uint64)
	exec.SetProgress(func(written, total uint64, pass int) {
		passTotals[pass] = written
	})

	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm:  alg,
		BufferSize: DefaultBufferSize,
	})
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, 3, result.PassesCompleted)
	require.Equal(t, uint64(size), result.BytesWiped)
	for pass := 0; pass < 3; pass++ {
		require.Equal(t, uint64(size), passTotals[pass])
	}
}

func TestWipeVerifyFixedLastPass(t *testing.T) {
	const size = 128 * 1024
	target := newMemTarget(size)
	for i := range target.data {
		target.data[i] = 0xEE
	}

	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm: NewNISTClear(),
		Verify:    true,
	})
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status)
	require.NotNil(t, result.Verification)
	require.False(t, result.Verification.Skipped)
	require.True(t, result.Verification.Success)
	require.Zero(t, result.Verification.NonZeroSamples)
}

func TestWipeVerifyRandomLastPassSkipped(t *testing.T) {
	const size = 128 * 1024
	target := newMemTarget(size)

	alg, err := NewAlgorithm(AlgorithmNIST, 0)
	require.NoError(t, err)

	exec := NewExecutor(logging.Discard())
	result, err := exec.Wipe(context.Background(), target, size, Request{
		Algorithm: alg,
		Verify:    true,
	})
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, result.Status)
	require.NotNil(t, result.Verification)
	require.True(t, result.Verification.Skipped)
	require.True(t, result.Verification.Success)
	require.NotEmpty(t, result.Warnings)
}

func TestThrottledTargetPassthrough(t *testing.T) {
	target := newMemTarget(4096)
	throttled := NewThrottledTarget(target, 1000)

	n, err := throttled.WriteAt(bytes.Repeat([]byte{0xAA}, 4096), 0)
	require.NoError(t, err)
	require.Equal(t, 4096, n)
	require.Equal(t, bytes.Repeat([]byte{0xAA}, 4096), target.data)

	buf := make([]byte, 4096)
	n, err = throttled.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 4096, n)

	require.NoError(t, throttled.Sync())
	require.Equal(t, 1, target.syncs)
}
