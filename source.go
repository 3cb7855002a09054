package thumbcore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

var errNotSeekable = errors.New("source does not support seeking")

// Default read-ahead size for sequential access. The scanner and the codec
// both read the header region front to back, so one range request usually
// covers all metadata.
const defaultReadAheadSize = 64 * 1024

// HTTPRangeReader implements io.ReadSeeker over HTTP range requests, letting
// remote originals be thumbnailed without downloading them whole. A
// read-ahead buffer turns the scanner's many small sequential reads into few
// range requests.
type HTTPRangeReader struct {
	url    string
	client *fasthttp.Client
	size   int64
	mu     sync.Mutex
	pos    int64

	// Read-ahead buffer; pooled via GetBuffer
	buffer      []byte
	bufferStart int64 // start position of buffer in file
	bufferEnd   int64 // end position of buffer in file (exclusive)
}

// NewHTTPRangeReader creates a range reader for url. A nil client gets
// conservative timeouts.
func NewHTTPRangeReader(url string, client *fasthttp.Client) *HTTPRangeReader {
	if client == nil {
		client = &fasthttp.Client{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
	}
	rr := &HTTPRangeReader{
		url:         url,
		client:      client,
		bufferStart: -1,
		bufferEnd:   -1,
	}
	rr.size = rr.fetchSize()
	return rr
}

// fetchSize gets the file size using a HEAD request.
func (rr *HTTPRangeReader) fetchSize() int64 {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rr.url)
	req.Header.SetMethod("HEAD")

	if err := rr.client.Do(req, resp); err != nil {
		return -1
	}
	if length := resp.Header.ContentLength(); length > 0 {
		return int64(length)
	}
	return -1
}

// Read reads from the current position, serving from the read-ahead buffer
// when it can.
func (rr *HTTPRangeReader) Read(p []byte) (int, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.size > 0 && rr.pos >= rr.size {
		return 0, io.EOF
	}

	toRead := len(p)
	if rr.size > 0 && rr.pos+int64(toRead) > rr.size {
		toRead = int(rr.size - rr.pos)
	}

	if rr.buffer != nil && rr.pos >= rr.bufferStart && rr.pos < rr.bufferEnd {
		offset := int(rr.pos - rr.bufferStart)
		available := int(rr.bufferEnd - rr.pos)
		if available > toRead {
			available = toRead
		}
		n := copy(p[:available], rr.buffer[offset:offset+available])
		rr.pos += int64(n)
		return n, nil
	}

	return rr.fillAndRead(p, toRead)
}

// fillAndRead fetches a read-ahead window from the network and serves the
// request out of it.
func (rr *HTTPRangeReader) fillAndRead(p []byte, toRead int) (int, error) {
	readSize := defaultReadAheadSize
	if readSize < toRead {
		readSize = toRead
	}
	if rr.size > 0 && rr.pos+int64(readSize) > rr.size {
		readSize = int(rr.size - rr.pos)
	}

	data, err := rr.fetchRange(rr.pos, rr.pos+int64(readSize)-1)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		PutBuffer(data)
		return 0, io.EOF
	}

	if rr.buffer != nil {
		PutBuffer(rr.buffer)
	}
	rr.buffer = data
	rr.bufferStart = rr.pos
	rr.bufferEnd = rr.pos + int64(len(data))

	if toRead > len(data) {
		toRead = len(data)
	}
	n := copy(p[:toRead], data[:toRead])
	rr.pos += int64(n)
	return n, nil
}

// fetchRange fetches a byte range from the server into a pooled buffer.
func (rr *HTTPRangeReader) fetchRange(start, end int64) ([]byte, error) {
	if rr.size > 0 && end >= rr.size {
		end = rr.size - 1
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rr.url)
	req.Header.SetMethod("GET")
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	if err := rr.client.Do(req, resp); err != nil {
		return nil, err
	}
	status := resp.StatusCode()
	if status != fasthttp.StatusPartialContent && status != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", status)
	}

	// Copy the body since the response is released on return.
	body := resp.Body()
	result := GetBuffer(len(body))
	copy(result, body)
	return result, nil
}

// Seek sets the offset for the next Read. Seeking outside the buffered range
// invalidates the read-ahead buffer.
func (rr *HTTPRangeReader) Seek(offset int64, whence int) (int64, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = rr.pos + offset
	case io.SeekEnd:
		if rr.size < 0 {
			return 0, fmt.Errorf("cannot seek from end: file size unknown")
		}
		newPos = rr.size + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("negative position: %d", newPos)
	}

	if rr.buffer != nil && (newPos < rr.bufferStart || newPos >= rr.bufferEnd) {
		PutBuffer(rr.buffer)
		rr.buffer = nil
		rr.bufferStart = -1
		rr.bufferEnd = -1
	}

	rr.pos = newPos
	return rr.pos, nil
}

// Close releases the read-ahead buffer back to the pool.
func (rr *HTTPRangeReader) Close() error {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.buffer != nil {
		PutBuffer(rr.buffer)
		rr.buffer = nil
		rr.bufferStart = -1
		rr.bufferEnd = -1
	}
	return nil
}

// Size returns the remote file size, or -1 if unknown.
func (rr *HTTPRangeReader) Size() int64 {
	return rr.size
}

// openSource resolves a file path or an http(s) URL to a seekable byte
// source. Callers own the returned ReadCloser.
func openSource(pathOrURL string, client *fasthttp.Client) (io.ReadSeekCloser, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return NewHTTPRangeReader(pathOrURL, client), nil
	}
	file, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}
