package fitstream

import (
	"encoding/binary"
	"fmt"

	"github.com/halvorsen/fitstream/internal/crc16"
)

const fitMagic = ".FIT"

// Header is the FIT file header (spec.md §4.3).
type Header struct {
	Size         uint8
	ProtocolVer  uint8
	ProfileVer   uint16
	DataSize     uint32
	HeaderCRC    uint16
	HasHeaderCRC bool
}

// ProtocolVersion renders the BCD protocol_version byte as "major.minor".
func (h Header) ProtocolVersion() string {
	return fmt.Sprintf("%d.%d", h.ProtocolVer>>4, h.ProtocolVer&0x0F)
}

// ProfileVersion renders the little-endian profile_version as "v/100.v%100".
func (h Header) ProfileVersion() string {
	return fmt.Sprintf("%d.%02d", h.ProfileVer/100, h.ProfileVer%100)
}

// parseHeader reads and validates one FIT file header from br, per spec.md
// §4.3: the 4-byte ".FIT" literal must be present, header_size must be 12
// or >=14, and a present-and-nonzero header CRC must match the CRC computed
// over the first 12 bytes.
func parseHeader(br *byteReader) (Header, error) {
	var sizeBuf [1]byte
	if err := br.readFull(sizeBuf[:]); err != nil {
		return Header{}, err
	}
	size := sizeBuf[0]
	if size < 12 || (size > 12 && size < 14) {
		return Header{}, &HeaderError{Msg: fmt.Sprintf("irregular header_size %d", size)}
	}

	rest := make([]byte, int(size)-1)
	if err := br.readFull(rest); err != nil {
		return Header{}, err
	}

	h := Header{Size: size}
	h.ProtocolVer = rest[0]
	h.ProfileVer = binary.LittleEndian.Uint16(rest[1:3])
	h.DataSize = binary.LittleEndian.Uint32(rest[3:7])
	if string(rest[7:11]) != fitMagic {
		return Header{}, &HeaderError{Msg: "bad magic", Err: ErrBadMagic}
	}

	if size >= 14 {
		crc := binary.LittleEndian.Uint16(rest[11:13])
		h.HasHeaderCRC = true
		h.HeaderCRC = crc
		if crc != 0 {
			want := headerCRC(sizeBuf[0], rest[:11])
			if want != crc {
				return Header{}, &CRCError{Want: want, Got: crc}
			}
		}
	}

	return h, nil
}

// headerCRC computes the CRC-16 over the first 12 header bytes (size byte
// plus the 11 bytes following it), independent of the running file CRC kept
// on br: the header CRC field is excluded from this sum, while the running
// file CRC takes in every header byte, the header CRC field included.
func headerCRC(sizeByte byte, rest []byte) uint16 {
	h := crc16.New()
	h.UpdateByte(sizeByte)
	h.Update(rest)
	return h.Sum16()
}
