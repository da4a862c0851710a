package fitstream

// MessageHeader is the one-byte record header preceding every definition
// and data message (spec.md §4.4).
type MessageHeader struct {
	IsDefinition    bool
	IsDeveloperData bool
	LocalMesgNum    uint8
	TimeOffset      *uint8 // non-nil only for the compressed-timestamp form
}

// decodeMessageHeader classifies one header byte, grounded on
// tormoder-gofit/reader.go's mask checks (compressedHeaderMask,
// headerTypeMask, mesgDefinitionMask, mesgHeaderMask) but folded into one
// function returning a value type instead of branching inline in the
// read loop.
func decodeMessageHeader(b byte) MessageHeader {
	if b&0x80 != 0 {
		off := b & 0x1F
		return MessageHeader{
			LocalMesgNum: (b >> 5) & 0x03,
			TimeOffset:   &off,
		}
	}
	return MessageHeader{
		IsDefinition:    b&0x40 != 0,
		IsDeveloperData: b&0x20 != 0,
		LocalMesgNum:    b & 0x0F,
	}
}
