package pix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16CCITTFalse(t *testing.T) {
	// Standard check value for CRC-16/CCITT-FALSE.
	require.Equal(t, uint16(0x29B1), crc16([]byte("123456789")))
	require.Equal(t, uint16(0xFFFF), crc16(nil))
}
