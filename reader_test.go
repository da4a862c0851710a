package fitstream

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/fitstream/internal/crc16"
)

func TestByteReader_ReadByteCountsAndFeedsCRC(t *testing.T) {
	br := newByteReader(bytes.NewReader([]byte{0x01, 0x02, 0x03}))

	b, err := br.readByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)
	assert.EqualValues(t, 1, br.n)

	require.NoError(t, br.readFull(make([]byte, 2)))
	assert.EqualValues(t, 3, br.n)
	assert.Equal(t, crc16.Checksum([]byte{0x01, 0x02, 0x03}), br.sum16())
}

func TestByteReader_ReadFull_ShortReadIsEOFError(t *testing.T) {
	br := newByteReader(bytes.NewReader([]byte{0x01}))
	err := br.readFull(make([]byte, 4))
	require.Error(t, err)
	var eofErr *EOFError
	require.ErrorAs(t, err, &eofErr)
}

func TestByteReader_ReadUint16_BothEndians(t *testing.T) {
	br := newByteReader(bytes.NewReader([]byte{0x01, 0x02}))
	v, err := br.readUint16(binary.LittleEndian)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0201, v)

	br2 := newByteReader(bytes.NewReader([]byte{0x01, 0x02}))
	v2, err := br2.readUint16(binary.BigEndian)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0102, v2)
}

func TestByteReader_ResetCRC(t *testing.T) {
	br := newByteReader(bytes.NewReader([]byte{0x01, 0x02}))
	require.NoError(t, br.readFull(make([]byte, 2)))
	assert.NotZero(t, br.sum16())
	br.resetCRC()
	assert.Zero(t, br.sum16())
}
