package fitstream

import (
	"encoding/binary"

	"github.com/halvorsen/fitstream/internal/crc16"
)

// Synthetic byte-stream builders used by this package's tests. There is no
// literal fixture corpus in reach (the retrieved pack ships no raw .fit
// binaries), so every stream is hand-assembled here byte by byte against
// the field layouts profile/messages.go registers.

type fieldSpec struct {
	defNum   uint8
	size     uint8
	baseType byte
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// defMsg builds one definition message record.
func defMsg(localNum uint8, isDevData, bigEndian bool, globalMesgNum uint16, fields []fieldSpec, devFields []fieldSpec) []byte {
	hdr := byte(0x40)
	if isDevData {
		hdr |= 0x20
	}
	hdr |= localNum & 0x0F

	out := []byte{hdr, 0x00} // header, reserved
	if bigEndian {
		out = append(out, 0x01)
		out = append(out, be16(globalMesgNum)...)
	} else {
		out = append(out, 0x00)
		out = append(out, le16(globalMesgNum)...)
	}
	out = append(out, byte(len(fields)))
	for _, f := range fields {
		out = append(out, f.defNum, f.size, f.baseType)
	}
	if isDevData {
		out = append(out, byte(len(devFields)))
		for _, f := range devFields {
			out = append(out, f.defNum, f.size, f.baseType)
		}
	}
	return out
}

// dataMsg builds one data message record. timeOffset, when non-nil,
// produces the compressed-timestamp header form instead.
func dataMsg(localNum uint8, isDevData bool, timeOffset *uint8, fields ...[]byte) []byte {
	var hdr byte
	if timeOffset != nil {
		hdr = 0x80 | (localNum&0x03)<<5 | (*timeOffset & 0x1F)
	} else {
		hdr = localNum & 0x0F
		if isDevData {
			hdr |= 0x20
		}
	}
	out := []byte{hdr}
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// fileHeader builds a FIT file header. When withCRC is true a correct
// 14-byte header is produced; crcOverride, if non-zero, replaces the
// computed CRC (used to exercise the mismatch path).
func fileHeader(dataSize uint32, withCRC bool, crcOverride uint16) []byte {
	size := byte(12)
	if withCRC {
		size = 14
	}
	h := []byte{size, 0x10}
	h = append(h, le16(2158)...) // profile_version 21.58
	h = append(h, le32(dataSize)...)
	h = append(h, []byte(".FIT")...)
	if withCRC {
		crc := crcOverride
		if crc == 0 {
			crc = crc16.Checksum(h)
		}
		h = append(h, le16(crc)...)
	}
	return h
}

// buildFile assembles a complete one-file FIT stream: header, body, and a
// correct trailing CRC over header+body.
func buildFile(body []byte) []byte {
	h := fileHeader(uint32(len(body)), true, 0)
	all := append(append([]byte{}, h...), body...)
	trailer := crc16.Checksum(all)
	return append(all, le16(trailer)...)
}

// buildFileNoHeaderCRC is buildFile but with a bare 12-byte header.
func buildFileNoHeaderCRC(body []byte) []byte {
	h := fileHeader(uint32(len(body)), false, 0)
	all := append(append([]byte{}, h...), body...)
	trailer := crc16.Checksum(all)
	return append(all, le16(trailer)...)
}
