package wipe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPoolReuse(t *testing.T) {
	buf := GetBuffer(8192)
	require.Len(t, buf, 8192)
	require.GreaterOrEqual(t, cap(buf), 8192)

	for i := range buf {
		buf[i] = 0xFF
	}
	PutBuffer(buf)

	// Буфер из пула возвращается обнулённым
	again := GetBuffer(8192)
	for _, b := range again {
		require.Zero(t, b)
	}
	PutBuffer(again)
}

func TestBufferPoolOddSizes(t *testing.T) {
	require.Nil(t, GetBuffer(0))
	require.Nil(t, GetBuffer(-1))

	buf := GetBuffer(3000)
	require.Len(t, buf, 3000)
	PutBuffer(buf)

	// Размер больше максимального класса пулов
	big := GetBuffer(20 * 1024 * 1024)
	require.Len(t, big, 20*1024*1024)
	PutBuffer(big)
}

func TestZeroBuffer(t *testing.T) {
	buf := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	ZeroBuffer(buf)
	require.Equal(t, []byte{0, 0, 0, 0}, buf)
}
