package fitstream

import (
	"encoding/binary"
	"io"

	"github.com/halvorsen/fitstream/internal/crc16"
)

// byteReader wraps an io.Reader, feeding every byte read through a running
// CRC-16 and counting total bytes consumed, grounded on tormoder-gofit's
// reader.go d.r/d.n/readByte/readFull helpers. Each successful read updates
// the CRC directly; no io.TeeReader is involved.
type byteReader struct {
	r   io.Reader
	crc *crc16.Hash
	n   int64
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: r, crc: crc16.New()}
}

func (br *byteReader) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, wrapEOF(err)
	}
	br.crc.UpdateByte(b[0])
	br.n++
	return b[0], nil
}

func (br *byteReader) readFull(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := io.ReadFull(br.r, buf)
	br.n += int64(n)
	if err != nil {
		return wrapEOF(err)
	}
	br.crc.Update(buf)
	return nil
}

func (br *byteReader) readUint16(order binary.ByteOrder) (uint16, error) {
	var tmp [2]byte
	if err := br.readFull(tmp[:]); err != nil {
		return 0, err
	}
	return order.Uint16(tmp[:]), nil
}

func (br *byteReader) readUint32(order binary.ByteOrder) (uint32, error) {
	var tmp [4]byte
	if err := br.readFull(tmp[:]); err != nil {
		return 0, err
	}
	return order.Uint32(tmp[:]), nil
}

func (br *byteReader) resetCRC() { br.crc.Reset() }
func (br *byteReader) sum16() uint16 { return br.crc.Sum16() }
