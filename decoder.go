package fitstream

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/halvorsen/fitstream/profile"
)

var debug, _ = strconv.ParseBool(os.Getenv("FITSTREAM_DEBUG"))

// DecoderConfig configures a Decoder, mirroring canboat.DecoderConfig /
// canboat.NewDecoderWithConfig's constructor-function shape.
type DecoderConfig struct {
	// CheckCRC verifies the per-file CRC trailer. Default true.
	CheckCRC bool
	// CheckDeveloperData controls strict vs. lenient developer-data
	// resolution (spec.md §4.8). Default true (strict).
	CheckDeveloperData bool
	// Processor overrides the default value-rendering pipeline. Nil uses
	// defaultProcessor.
	Processor Processor
}

// DefaultDecoderConfig is the zero-value-safe default: CRC checking and
// strict developer-data resolution on, the bare (non-unit-converting)
// processor.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{CheckCRC: true, CheckDeveloperData: true}
}

// Decoder streams DataMessages out of a FIT byte stream (spec.md §4.10).
// It owns all per-file mutable state: local-message definition slots,
// the developer-data registry, and the compressed-timestamp/component
// accumulators (spec.md §5).
type Decoder struct {
	config DecoderConfig
	closer io.Closer

	br        *byteReader
	header    Header
	bodyStart int64
	started   bool

	defs           map[uint8]*DefinitionMessage
	devs           *devRegistry
	componentAccum map[accumKey]uint32
	timestampAccum uint32
	processor      Processor

	warnings []Warning
	done     bool
	tmp      [1]byte
}

// Open opens the file at path and returns a Decoder reading from it. The
// underlying file is closed automatically on EOF, a fatal error, or an
// explicit Close() call, matching interface.go's RawMessageReader.Close
// contract.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d := NewDecoderWithConfig(f, DefaultDecoderConfig())
	d.closer = f
	return d, nil
}

// NewDecoder returns a Decoder with the default configuration.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithConfig(r, DefaultDecoderConfig())
}

// NewDecoderFromBytes returns a Decoder reading from an in-memory buffer.
func NewDecoderFromBytes(b []byte) *Decoder {
	return NewDecoder(bytes.NewReader(b))
}

// NewDecoderWithConfig returns a Decoder reading from r with cfg applied.
func NewDecoderWithConfig(r io.Reader, cfg DecoderConfig) *Decoder {
	proc := cfg.Processor
	if proc == nil {
		proc = defaultProcessor{}
	}
	d := &Decoder{
		config:         cfg,
		br:             newByteReader(r),
		defs:           map[uint8]*DefinitionMessage{},
		devs:           newDevRegistry(!cfg.CheckDeveloperData),
		componentAccum: map[accumKey]uint32{},
		processor:      proc,
	}
	return d
}

func (d *Decoder) warn(msg string) {
	d.addWarning(Warning{Msg: msg})
}

func (d *Decoder) addWarning(w Warning) {
	d.warnings = append(d.warnings, w)
	if debug {
		log.Printf("fitstream: warning: %s", w.Msg)
	}
}

// Warnings returns every non-fatal condition accumulated so far.
func (d *Decoder) Warnings() []Warning { return d.warnings }

// Header returns the most recently parsed file header.
func (d *Decoder) Header() Header { return d.header }

// ProtocolVersion renders the current file's protocol version string.
func (d *Decoder) ProtocolVersion() string { return d.header.ProtocolVersion() }

// ProfileVersion renders the current file's profile version string.
func (d *Decoder) ProfileVersion() string { return d.header.ProfileVersion() }

// Close releases the underlying stream, if the Decoder owns one.
func (d *Decoder) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// resetFileState clears all per-file mutable state, used both before the
// first header and when a chained file begins (spec.md §4.3).
func (d *Decoder) resetFileState() {
	d.defs = map[uint8]*DefinitionMessage{}
	d.devs.reset()
	d.componentAccum = map[accumKey]uint32{}
	d.timestampAccum = 0
	d.br.resetCRC()
}

// Next decodes and returns the next DataMessage, skipping definition
// messages transparently. It returns io.EOF once the stream (including any
// chained files) is exhausted.
func (d *Decoder) Next() (DataMessage, error) {
	for {
		msg, ok, err := d.nextRecord()
		if err != nil {
			d.done = true
			_ = d.Close()
			return DataMessage{}, err
		}
		if !ok {
			continue // was a definition message; loop for the next record
		}
		if msg == nil {
			d.done = true
			_ = d.Close()
			return DataMessage{}, io.EOF
		}
		return *msg, nil
	}
}

// nextRecord decodes one record. ok is false when a definition message was
// consumed (caller should loop); msg is nil at clean end of stream.
func (d *Decoder) nextRecord() (msg *DataMessage, ok bool, err error) {
	if d.done {
		return nil, false, io.EOF
	}

	if !d.started {
		if err := d.startFile(); err != nil {
			return nil, false, err
		}
		d.started = true
	}

	if d.atBodyEnd() {
		if err := d.finishFile(); err != nil {
			return nil, false, err
		}
		if err := d.startFile(); err != nil {
			if err == io.EOF {
				return nil, false, io.EOF
			}
			return nil, false, err
		}
	}

	b, err := d.br.readByte()
	if err != nil {
		return nil, false, err
	}
	hdr := decodeMessageHeader(b)

	if hdr.IsDefinition {
		def, err := d.decodeDefinition(hdr)
		if err != nil {
			return nil, false, err
		}
		d.defs[hdr.LocalMesgNum] = def
		return nil, false, nil
	}

	dm, err := d.decodeDataMessage(hdr)
	if err != nil {
		return nil, false, err
	}
	return &dm, true, nil
}

// atBodyEnd reports whether the current file's data_size bytes have all
// been consumed (the body-start offset is tracked via bodyStart).
func (d *Decoder) atBodyEnd() bool {
	return d.br.n-d.bodyStart >= int64(d.header.DataSize)
}

// startFile parses the next file header (the first file, or the header of
// a chained file), resetting per-file state. It returns io.EOF if the
// stream has nothing left to offer (a clean end after a prior file).
func (d *Decoder) startFile() error {
	if d.started {
		d.resetFileState()
	}
	h, err := parseHeader(d.br)
	if err != nil {
		if _, eof := err.(*EOFError); eof && d.started {
			return io.EOF
		}
		return err
	}
	d.header = h
	d.bodyStart = d.br.n
	return nil
}

// finishFile verifies the trailing file CRC, per spec.md §4.3.
func (d *Decoder) finishFile() error {
	want := d.br.sum16()
	got, err := d.br.readUint16(binary.LittleEndian)
	if err != nil {
		d.warn("stream ended before trailing file CRC; stopping without enforcing it")
		d.done = true
		return io.EOF
	}
	if d.config.CheckCRC && got != 0 && got != want {
		return &CRCError{Want: want, Got: got}
	}
	return nil
}

// All parses the stream to exhaustion and returns every decoded message.
func (d *Decoder) All() ([]DataMessage, error) {
	var out []DataMessage
	for {
		msg, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
}

// Cached returns a caching decorator over d (spec.md §4.10).
func (d *Decoder) Cached() *CachedDecoder {
	return &CachedDecoder{d: d}
}

// MessageFilter selects which messages NextFiltered returns, by name or by
// global message number, following nmea.FieldValues.FindByID's linear-scan
// idiom (fieldvalue.go) generalized to a lookup set for O(1) membership
// given message counts that can run into the thousands.
type MessageFilter struct {
	names map[string]struct{}
	nums  map[profile.MesgNum]struct{}
}

// NewMessageFilter builds a filter matching any of the given message names.
func NewMessageFilter(names ...string) MessageFilter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return MessageFilter{names: set}
}

// NewMessageNumFilter builds a filter matching any of the given global
// message numbers.
func NewMessageNumFilter(nums ...profile.MesgNum) MessageFilter {
	set := make(map[profile.MesgNum]struct{}, len(nums))
	for _, n := range nums {
		set[n] = struct{}{}
	}
	return MessageFilter{nums: set}
}

func (f MessageFilter) matches(msg DataMessage) bool {
	if len(f.names) == 0 && len(f.nums) == 0 {
		return true
	}
	if _, ok := f.names[msg.MesgName]; ok {
		return true
	}
	_, ok := f.nums[msg.MesgNum]
	return ok
}

// NextFiltered returns the next message matching f, skipping non-matching
// messages transparently.
func (d *Decoder) NextFiltered(f MessageFilter) (DataMessage, error) {
	for {
		msg, err := d.Next()
		if err != nil {
			return DataMessage{}, err
		}
		if f.matches(msg) {
			return msg, nil
		}
	}
}
