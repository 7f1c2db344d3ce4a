package audio

import "io"

// monoToStereo wraps a mono 16-bit PCM stream and duplicates each
// sample to both channels, producing the interleaved 2-channel
// layout the audio context expects. Seek offsets are mapped so that
// callers operate in stereo byte space (twice the mono offsets).
type monoToStereo struct {
	src io.ReadSeeker
	buf []byte
}

// NewMonoToStereo converts a mono 16-bit PCM stream to stereo.
func NewMonoToStereo(src io.ReadSeeker) io.ReadSeeker {
	return &monoToStereo{src: src}
}

// Read fills p with stereo frames built from the mono source.
// Implements io.Reader interface.
func (m *monoToStereo) Read(p []byte) (int, error) {
	monoLen := len(p) / 2
	monoLen -= monoLen % 2 // whole 16-bit samples only
	if monoLen == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.ErrShortBuffer
	}

	if cap(m.buf) < monoLen {
		m.buf = make([]byte, monoLen)
	}
	buf := m.buf[:monoLen]

	n, err := m.src.Read(buf)
	if n%2 == 1 {
		// Push the torn byte back so the next read starts on a
		// sample boundary.
		if _, serr := m.src.Seek(-1, io.SeekCurrent); serr == nil {
			n--
		}
	}

	for i := 0; i < n; i += 2 {
		j := i * 2
		p[j] = buf[i]
		p[j+1] = buf[i+1]
		p[j+2] = buf[i]
		p[j+3] = buf[i+1]
	}
	return n * 2, err
}

// Seek sets the read position. Offsets are interpreted in stereo
// byte space and must be aligned to 4-byte frames.
// Implements io.Seeker interface.
func (m *monoToStereo) Seek(offset int64, whence int) (int64, error) {
	pos, err := m.src.Seek(offset/2, whence)
	return pos * 2, err
}
