package thumbcore

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Codec turns compressed bytes into raw pixels. Implementations are assumed
// correct; decode failures from them surface to the caller unchanged.
type Codec interface {
	// Config reports the raw dimensions without decoding pixel data.
	Config(r io.Reader) (width, height int, err error)
	// DecodeRegion decodes the given raw-space region at the given
	// subsampling stride. A stride below 1 is treated as 1.
	DecodeRegion(r io.Reader, region Rectangle, stride int) (image.Image, error)
	// Orientation reports the codec's native orientation metadata. Errors
	// here are recoverable: the caller falls back to the captured payload.
	Orientation(r io.ReadSeeker) (Orientation, error)
}

// ImageCodec is the default Codec, backed by the standard image registry.
// Registry decoders have no native region-of-interest or stride support, so
// DecodeRegion decodes fully and then crops and stride-samples; codecs with
// native support should implement Codec directly.
type ImageCodec struct{}

func (ImageCodec) Config(r io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func (ImageCodec) DecodeRegion(r io.Reader, region Rectangle, stride int) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if stride < 1 {
		stride = 1
	}
	bounds := img.Bounds()
	region = clampRegion(region, bounds.Dx(), bounds.Dy())
	if stride == 1 && region == (Rectangle{Width: bounds.Dx(), Height: bounds.Dy()}) {
		return img, nil
	}

	outWidth := (region.Width + stride - 1) / stride
	outHeight := (region.Height + stride - 1) / stride
	out := image.NewNRGBA(image.Rect(0, 0, outWidth, outHeight))
	for y := 0; y < outHeight; y++ {
		srcY := bounds.Min.Y + region.Y + y*stride
		for x := 0; x < outWidth; x++ {
			srcX := bounds.Min.X + region.X + x*stride
			out.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(srcX, srcY)).(color.NRGBA))
		}
	}
	return out, nil
}

func (ImageCodec) Orientation(r io.ReadSeeker) (Orientation, error) {
	if r == nil {
		return 0, fmt.Errorf("no seekable source for metadata")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	meta, err := exif.Decode(r)
	if err != nil {
		return 0, err
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 0, err
	}
	value, err := tag.Int(0)
	if err != nil {
		return 0, err
	}
	o := Orientation(value)
	if !o.Valid() {
		return 0, fmt.Errorf("orientation value out of range: %d", value)
	}
	return o, nil
}
