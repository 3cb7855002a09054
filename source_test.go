package thumbcore

import (
	"bytes"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
)

// rangeServer serves data with Range request support.
func rangeServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "test.bin", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *fasthttp.Client {
	return &fasthttp.Client{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func TestHTTPRangeReader(t *testing.T) {
	data := make([]byte, 200*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	srv := rangeServer(t, data)

	rr := NewHTTPRangeReader(srv.URL, testClient())
	defer rr.Close()

	if rr.Size() != int64(len(data)) {
		t.Fatalf("Expected size %d, got %d", len(data), rr.Size())
	}

	// Sequential reads across the read-ahead boundary.
	got, err := io.ReadAll(rr)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("read data does not match served data")
	}

	// Seek back and reread a window.
	pos, err := rr.Seek(100, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos != 100 {
		t.Errorf("Expected position 100, got %d", pos)
	}
	window := make([]byte, 64)
	if _, err := io.ReadFull(rr, window); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}
	if !bytes.Equal(window, data[100:164]) {
		t.Error("window read does not match served data")
	}
}

func TestHTTPRangeReaderSeekWhence(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 4096)
	srv := rangeServer(t, data)

	rr := NewHTTPRangeReader(srv.URL, testClient())
	defer rr.Close()

	if pos, err := rr.Seek(-96, io.SeekEnd); err != nil || pos != 4000 {
		t.Errorf("SeekEnd: pos=%d err=%v", pos, err)
	}
	if pos, err := rr.Seek(10, io.SeekCurrent); err != nil || pos != 4010 {
		t.Errorf("SeekCurrent: pos=%d err=%v", pos, err)
	}
	if _, err := rr.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected an error for a negative position")
	}
	if _, err := rr.Seek(0, 42); err == nil {
		t.Error("expected an error for an invalid whence")
	}
}

func TestProcessPathHTTP(t *testing.T) {
	data := createJPEG(t, image.NewNRGBA(image.Rect(0, 0, 400, 300)))
	srv := rangeServer(t, data)

	p := NewPipeline(Config{}, nil)
	out, err := p.ProcessPath(srv.URL, testClient(), Request{TargetWidth: 100, TargetHeight: 75})
	if err != nil {
		t.Fatalf("ProcessPath failed: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 100 || b.Dy() != 75 {
		t.Errorf("Expected 100x75, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessPathFile(t *testing.T) {
	data := createJPEGWithOrientation(t, image.NewNRGBA(image.Rect(0, 0, 400, 300)), OrientationRightTop)
	path := filepath.Join(t.TempDir(), "oriented.jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	p := NewPipeline(Config{ExifWorkaround: true}, nil)
	out, err := p.ProcessPath(path, nil, Request{UseOrientation: true})
	if err != nil {
		t.Fatalf("ProcessPath failed: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 300 || b.Dy() != 400 {
		t.Errorf("Expected 300x400, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessPathMissingFile(t *testing.T) {
	p := NewPipeline(Config{}, nil)
	if _, err := p.ProcessPath(filepath.Join(t.TempDir(), "absent.jpg"), nil, Request{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}
