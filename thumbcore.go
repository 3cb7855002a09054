// Package thumbcore implements the acquisition-and-resize pipeline beneath a
// thumbnail generator: it decodes an encoded raster image, corrects it for
// embedded orientation metadata, and produces a pixel buffer resized to a
// caller-specified target.
package thumbcore

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/valyala/fasthttp"
)

// Pipeline executes thumbnail decode requests. A Pipeline is cheap and
// stateless between requests; concurrent use is safe as long as each call
// gets its own source reader.
type Pipeline struct {
	cfg   Config
	codec Codec
}

// NewPipeline creates a Pipeline with the given configuration. A nil codec
// selects ImageCodec.
func NewPipeline(cfg Config, codec Codec) *Pipeline {
	if codec == nil {
		codec = ImageCodec{}
	}
	return &Pipeline{cfg: cfg, codec: codec}
}

// ProcessPath resolves a file path or http(s) URL and runs the request
// against it. Remote sources are read via HTTP range requests.
func (p *Pipeline) ProcessPath(pathOrURL string, client *fasthttp.Client, req Request) (image.Image, error) {
	src, err := openSource(pathOrURL, client)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return p.Process(src, req)
}

// Process runs one decode-and-resize request against src. Non-seekable
// sources are buffered in memory first; the header pass and the pixel pass
// each read the stream from offset 0.
func (p *Pipeline) Process(src io.Reader, req Request) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("process: source is nil")
	}
	log := p.cfg.logger()

	rs, ok := src.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	// Header pass: the scanner observes the bytes the codec reads for its
	// dimension probe. Exif APP1 segments precede the frame header, so any
	// capture is complete by the time the probe finishes.
	var payload []byte
	var rawWidth, rawHeight int
	if p.cfg.ExifWorkaround && req.UseOrientation {
		scanner := NewExifScanner(rs, log)
		w, h, err := p.codec.Config(scanner)
		if err != nil {
			return nil, err
		}
		rawWidth, rawHeight = w, h
		payload = scanner.Payload()
		if payload != nil {
			defer PutBuffer(payload)
		}
	} else {
		w, h, err := p.codec.Config(rs)
		if err != nil {
			return nil, err
		}
		rawWidth, rawHeight = w, h
	}

	orientation := OrientationTopLeft
	if req.UseOrientation {
		orientation = ResolveOrientation(func() (Orientation, error) {
			return p.codec.Orientation(rs)
		}, payload, log)
	}

	displayWidth, displayHeight := rawWidth, rawHeight
	if orientation.SwapsDimensions() {
		displayWidth, displayHeight = rawHeight, rawWidth
	}
	crop := Rectangle{Width: displayWidth, Height: displayHeight}
	if req.Crop != nil {
		crop = clampRegion(*req.Crop, displayWidth, displayHeight)
	}
	rawRegion := MapRegionToRaw(crop, orientation, rawWidth, rawHeight)

	estimated := int64(rawWidth) * int64(rawHeight) * 4
	plan := PlanSubsampling(rawWidth, rawHeight, req, estimated,
		p.cfg.memoryLimit(), p.cfg.MemoryWorkaround, log)
	if p.cfg.Debug {
		log.Debug("decode plan",
			"orientation", int(orientation),
			"region", rawRegion,
			"stride", plan.Stride)
	}

	// Pixel pass.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind source: %w", err)
	}
	img, err := p.codec.DecodeRegion(rs, rawRegion, plan.Stride)
	if err != nil {
		return nil, err
	}
	if req.UseOrientation {
		img = ApplyOrientation(img, orientation)
	}

	bounds := img.Bounds()
	targetWidth, targetHeight := bounds.Dx(), bounds.Dy()
	switch {
	case req.hasTargetSize():
		targetWidth, targetHeight = req.TargetWidth, req.TargetHeight
	case req.hasScaleFactors():
		sx, sy := req.ScaleX, req.ScaleY
		if plan.Adjusted {
			sx, sy = plan.ScaleX, plan.ScaleY
		}
		targetWidth = scaledDimension(bounds.Dx(), sx)
		targetHeight = scaledDimension(bounds.Dy(), sy)
	}

	return ResizeTo(img, targetWidth, targetHeight)
}

// scaledDimension applies a scale factor to a pixel extent, minimum 1.
func scaledDimension(extent int, scale float64) int {
	v := int(math.Round(float64(extent) * scale))
	if v < 1 {
		v = 1
	}
	return v
}
