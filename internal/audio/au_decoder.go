package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Sun/NeXT .au container: a 24-byte big-endian header followed by the
// sample payload. Narration clips exported by legacy sound tools still
// ship in this container, almost always with a G.711 μ-law payload.
type auHeader struct {
	Magic      uint32 // ".snd"
	DataOffset uint32 // byte offset of the payload, at least 24
	DataSize   uint32 // payload size, 0xFFFFFFFF when unknown
	Encoding   uint32 // payload encoding id
	SampleRate uint32
	Channels   uint32
}

const (
	auMagic         = 0x2e736e64 // ".snd"
	auEncodingULaw  = 1          // 8-bit G.711 μ-law
	auEncodingPCM16 = 3          // 16-bit linear PCM, not decoded here
	auSizeUnknown   = 0xffffffff
	auHeaderSize    = 24
)

// mulawTable maps a μ-law byte to its 16-bit linear sample. Filled at
// startup from the G.711 expansion formula.
var mulawTable [256]int16

func init() {
	for b := 0; b < 256; b++ {
		u := ^byte(b)
		exp := (u >> 4) & 0x07
		mant := u & 0x0f
		mag := ((int32(mant)<<3 + 0x84) << exp) - 0x84
		if u&0x80 != 0 {
			mag = -mag
		}
		mulawTable[b] = int16(mag)
	}
}

// AUDecoder is the in-memory PCM stream produced by DecodeAU. It
// implements io.ReadSeeker plus the Length method Ebitengine players
// expect, with samples stored as 16-bit little-endian.
type AUDecoder struct {
	pcm        []byte
	sampleRate int64
	channels   int
	pos        int64
}

// DecodeAU parses an .au file and expands its μ-law payload to 16-bit
// PCM. Only μ-law encoding is handled; mono and stereo layouts are
// both accepted and reported through Channels.
func DecodeAU(r io.Reader) (*AUDecoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read AU stream: %w", err)
	}
	if len(data) < auHeaderSize {
		return nil, fmt.Errorf("AU stream truncated: %d bytes, header needs %d", len(data), auHeaderSize)
	}

	h := auHeader{
		Magic:      binary.BigEndian.Uint32(data[0:]),
		DataOffset: binary.BigEndian.Uint32(data[4:]),
		DataSize:   binary.BigEndian.Uint32(data[8:]),
		Encoding:   binary.BigEndian.Uint32(data[12:]),
		SampleRate: binary.BigEndian.Uint32(data[16:]),
		Channels:   binary.BigEndian.Uint32(data[20:]),
	}
	switch {
	case h.Magic != auMagic:
		return nil, fmt.Errorf("not an AU stream: magic 0x%08x", h.Magic)
	case h.Encoding != auEncodingULaw:
		return nil, fmt.Errorf("AU encoding %d not supported, only μ-law (%d)", h.Encoding, auEncodingULaw)
	case h.Channels != 1 && h.Channels != 2:
		return nil, fmt.Errorf("AU channel count %d not supported", h.Channels)
	case h.DataOffset < auHeaderSize || int64(h.DataOffset) > int64(len(data)):
		return nil, fmt.Errorf("AU data offset %d out of range for %d-byte stream", h.DataOffset, len(data))
	}

	payload := data[h.DataOffset:]
	if h.DataSize != auSizeUnknown && int64(h.DataSize) < int64(len(payload)) {
		payload = payload[:h.DataSize]
	}

	// One output sample (2 bytes LE) per μ-law byte.
	pcm := make([]byte, len(payload)*2)
	for i, b := range payload {
		s := mulawTable[b]
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	return &AUDecoder{
		pcm:        pcm,
		sampleRate: int64(h.SampleRate),
		channels:   int(h.Channels),
	}, nil
}

func (d *AUDecoder) Read(p []byte) (int, error) {
	if d.pos >= int64(len(d.pcm)) {
		return 0, io.EOF
	}
	n := copy(p, d.pcm[d.pos:])
	d.pos += int64(n)
	return n, nil
}

// Seek repositions the stream. Seeking past the end is allowed; the
// next Read reports io.EOF.
func (d *AUDecoder) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = d.pos + offset
	case io.SeekEnd:
		pos = int64(len(d.pcm)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position: %d", pos)
	}
	d.pos = pos
	return pos, nil
}

// Length reports the decoded PCM size in bytes.
func (d *AUDecoder) Length() int64 { return int64(len(d.pcm)) }

// SampleRate reports the source sample rate in Hz.
func (d *AUDecoder) SampleRate() int64 { return d.sampleRate }

// Channels reports the source channel count (1 or 2).
func (d *AUDecoder) Channels() int { return d.channels }
