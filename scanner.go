package thumbcore

import (
	"bytes"
	"encoding/binary"
	"io"
)

// JPEG markers relevant to metadata scanning
const (
	markerSOI  = 0xFFD8 // start of image
	markerEOI  = 0xFFD9 // end of image
	markerSOS  = 0xFFDA // start of scan; compressed data follows
	markerAPP1 = 0xFFE1 // application segment carrying Exif
	markerRST0 = 0xFFD0 // restart markers 0xFFD0-0xFFD7 have no payload
	markerRST7 = 0xFFD7
)

// Total bytes the scanner will hold before giving up. Metadata segments sit
// well under this; exceeding it means the stream is not worth scanning.
const maxScanBuffer = 1024 * 1024

var exifSignature = []byte{'E', 'x', 'i', 'f'}

// An APP1 payload opens with the signature plus two NUL bytes.
const exifSignatureLen = 6

type scanState int

const (
	stateSeekSOI scanState = iota
	stateScanMarkers
	stateCaptureAPP1
	stateSkipSegment
	stateDone
)

// ExifScanner is a pass-through io.Reader that watches the bytes a codec
// reads from a JPEG codestream and captures the Exif APP1 payload if one
// appears before the compressed data. The codec always sees exactly the bytes
// the underlying reader produced; the scanner never injects an error of its
// own. On any anomaly it stops observing and the capture is simply absent.
type ExifScanner struct {
	r   io.Reader
	log Logger

	state   scanState
	buf     []byte // unconsumed observed bytes, bounded by maxScanBuffer
	skip    int    // bytes left to discard in stateSkipSegment
	payload int    // full APP1 payload length in stateCaptureAPP1
	pos     int64  // bytes handed to the caller so far
	capture []byte // pooled; nil until a capture succeeds
}

// NewExifScanner wraps r for observation. The scanner only supports a
// strictly forward read pattern starting at offset 0 of r.
func NewExifScanner(r io.Reader, log Logger) *ExifScanner {
	if log == nil {
		log = nopLogger{}
	}
	return &ExifScanner{r: r, log: log}
}

// Read satisfies io.Reader. Bytes and errors from the underlying reader are
// returned unchanged.
func (s *ExifScanner) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		if s.state != stateDone {
			s.observe(p[:n])
		}
		s.pos += int64(n)
	}
	return n, err
}

// Seek forwards to the underlying reader when it supports seeking. Moving the
// position anywhere but where sequential reading left it ends observation;
// the seek itself is unaffected.
func (s *ExifScanner) Seek(offset int64, whence int) (int64, error) {
	sk, ok := s.r.(io.Seeker)
	if !ok {
		return 0, errNotSeekable
	}
	pos, err := sk.Seek(offset, whence)
	if err == nil {
		if pos != s.pos {
			s.abort("non-sequential read")
		}
		s.pos = pos
	}
	return pos, err
}

// Payload returns the captured Exif payload with the signature prefix
// stripped, or nil if nothing was captured. The returned slice comes from the
// package buffer pool; release it with PutBuffer once the orientation has
// been resolved.
func (s *ExifScanner) Payload() []byte {
	return s.capture
}

// Done reports whether scanning has permanently stopped.
func (s *ExifScanner) Done() bool {
	return s.state == stateDone
}

// abort permanently stops observation without a capture.
func (s *ExifScanner) abort(reason string) {
	if s.state == stateDone {
		return
	}
	s.log.Debug("exif scan stopped", "reason", reason)
	s.state = stateDone
	s.buf = nil
}

// observe feeds freshly read bytes to the state machine. A panic here must
// never disrupt the codec's read, so it degrades to "no capture".
func (s *ExifScanner) observe(p []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.abort("scan anomaly")
		}
	}()

	for len(p) > 0 && s.state != stateDone {
		if s.state == stateSkipSegment {
			n := s.skip
			if n > len(p) {
				n = len(p)
			}
			p = p[n:]
			s.skip -= n
			if s.skip == 0 {
				s.state = stateScanMarkers
			}
			continue
		}
		if len(s.buf)+len(p) > maxScanBuffer {
			s.abort("buffer limit exceeded")
			return
		}
		s.buf = append(s.buf, p...)
		p = nil
		s.step()
	}
}

// step consumes as much of the buffered bytes as the current state allows.
func (s *ExifScanner) step() {
	for {
		switch s.state {
		case stateSeekSOI:
			if len(s.buf) < 2 {
				return
			}
			if binary.BigEndian.Uint16(s.buf) != markerSOI {
				s.abort("not a JPEG codestream")
				return
			}
			s.buf = s.buf[2:]
			s.state = stateScanMarkers

		case stateScanMarkers:
			if len(s.buf) < 2 {
				return
			}
			marker := binary.BigEndian.Uint16(s.buf)
			if marker&0xFF00 != 0xFF00 {
				s.abort("invalid marker")
				return
			}
			if marker >= markerRST0 && marker <= markerRST7 {
				s.buf = s.buf[2:]
				continue
			}
			if marker == markerSOS || marker == markerEOI {
				// Metadata must precede compressed data.
				s.abort("reached image data")
				return
			}
			if len(s.buf) < 4 {
				return
			}
			// The length field includes itself.
			length := int(binary.BigEndian.Uint16(s.buf[2:]))
			if length < 2 {
				s.abort("invalid segment length")
				return
			}
			payload := length - 2
			s.buf = s.buf[4:]
			if marker == markerAPP1 && payload >= exifSignatureLen {
				s.payload = payload
				s.state = stateCaptureAPP1
			} else {
				s.startSkip(payload)
			}

		case stateCaptureAPP1:
			if len(s.buf) < len(exifSignature) {
				return
			}
			if !bytes.Equal(s.buf[:len(exifSignature)], exifSignature) {
				// Not Exif-signed; treat like any other segment.
				s.startSkip(s.payload)
				continue
			}
			if len(s.buf) < s.payload {
				return
			}
			captured := GetBuffer(s.payload - exifSignatureLen)
			copy(captured, s.buf[exifSignatureLen:s.payload])
			s.capture = captured
			s.state = stateDone
			s.buf = nil
			return

		case stateSkipSegment:
			n := s.skip
			if n > len(s.buf) {
				n = len(s.buf)
			}
			s.buf = s.buf[n:]
			s.skip -= n
			if s.skip > 0 {
				return
			}
			s.state = stateScanMarkers

		case stateDone:
			return
		}
	}
}

// startSkip discards n upcoming payload bytes, consuming buffered ones first.
func (s *ExifScanner) startSkip(n int) {
	s.skip = n
	s.state = stateSkipSegment
	if s.skip == 0 {
		s.state = stateScanMarkers
	}
}
