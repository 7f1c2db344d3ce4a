package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// buildAU assembles a minimal AU file with the given header fields and payload.
func buildAU(t *testing.T, encoding, rate, channels uint32, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	h := auHeader{
		Magic:      auMagic,
		DataOffset: 24,
		DataSize:   uint32(len(payload)),
		Encoding:   encoding,
		SampleRate: rate,
		Channels:   channels,
	}
	if err := binary.Write(&buf, binary.BigEndian, h); err != nil {
		t.Fatalf("Failed to write AU header: %v", err)
	}
	buf.Write(payload)
	return buf.Bytes()
}

// TestDecodeAU_Success tests decoding a valid μ-law mono file
func TestDecodeAU_Success(t *testing.T) {
	// μ-law bytes 0x00 and 0x80 map to the extreme values,
	// 0x7f and 0xff map to zero
	data := buildAU(t, auEncodingULaw, 8000, 1, []byte{0x00, 0x7f, 0xff, 0x80})

	d, err := DecodeAU(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode AU file: %v", err)
	}

	if d.SampleRate() != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", d.SampleRate())
	}
	if d.Channels() != 1 {
		t.Errorf("Expected 1 channel, got %d", d.Channels())
	}
	if d.Length() != 8 {
		t.Errorf("Expected 8 bytes of PCM (4 samples x 2 bytes), got %d", d.Length())
	}

	pcm, err := io.ReadAll(d)
	if err != nil {
		t.Fatalf("Failed to read PCM data: %v", err)
	}
	want := []int16{-32124, 0, 0, 32124}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		if got != w {
			t.Errorf("Sample %d: expected %d, got %d", i, w, got)
		}
	}
}

// TestDecodeAU_InvalidMagic tests rejection of non-AU data
func TestDecodeAU_InvalidMagic(t *testing.T) {
	data := buildAU(t, auEncodingULaw, 8000, 1, []byte{0x00})
	data[0] = 'X'

	if _, err := DecodeAU(bytes.NewReader(data)); err == nil {
		t.Error("Expected error for invalid magic number, got nil")
	}
}

// TestDecodeAU_UnsupportedEncoding tests rejection of non-μ-law encodings
func TestDecodeAU_UnsupportedEncoding(t *testing.T) {
	data := buildAU(t, auEncodingPCM16, 8000, 1, []byte{0x00, 0x00})

	if _, err := DecodeAU(bytes.NewReader(data)); err == nil {
		t.Error("Expected error for PCM16 encoding, got nil")
	}
}

// TestDecodeAU_TooShort tests rejection of truncated files
func TestDecodeAU_TooShort(t *testing.T) {
	if _, err := DecodeAU(bytes.NewReader([]byte{0x2e, 0x73, 0x6e, 0x64})); err == nil {
		t.Error("Expected error for truncated file, got nil")
	}
}

// TestAUDecoder_Seek tests seeking within the decoded PCM stream
func TestAUDecoder_Seek(t *testing.T) {
	data := buildAU(t, auEncodingULaw, 8000, 1, []byte{0x7f, 0x7f, 0x00, 0x7f})
	d, err := DecodeAU(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode AU file: %v", err)
	}

	// Seek to the third sample (offset 4) and read it
	pos, err := d.Seek(4, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos != 4 {
		t.Errorf("Expected position 4, got %d", pos)
	}

	var sample [2]byte
	if _, err := io.ReadFull(d, sample[:]); err != nil {
		t.Fatalf("Read after seek failed: %v", err)
	}
	if got := int16(binary.LittleEndian.Uint16(sample[:])); got != -32124 {
		t.Errorf("Expected sample -32124 after seek, got %d", got)
	}

	// SeekEnd should report the total length
	pos, err = d.Seek(0, io.SeekEnd)
	if err != nil {
		t.Fatalf("Seek to end failed: %v", err)
	}
	if pos != d.Length() {
		t.Errorf("Expected end position %d, got %d", d.Length(), pos)
	}

	if _, err := d.Seek(-1, io.SeekStart); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}
