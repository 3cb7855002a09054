package thumbcore

import (
	"encoding/binary"
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is the Exif orientation tag value (1-8). It records the
// transform a decoder must apply to raw pixel data to present it right side
// up.
type Orientation int

const (
	// OrientationTopLeft is the identity: row 0 is top, column 0 is left.
	OrientationTopLeft Orientation = iota + 1
	// OrientationTopRight is mirrored horizontally.
	OrientationTopRight
	// OrientationBottomRight is rotated 180 degrees.
	OrientationBottomRight
	// OrientationBottomLeft is mirrored vertically.
	OrientationBottomLeft
	// OrientationLeftTop is transposed (mirrored about the main diagonal).
	OrientationLeftTop
	// OrientationRightTop is rotated 90 degrees clockwise.
	OrientationRightTop
	// OrientationRightBottom is transversed (mirrored about the anti-diagonal).
	OrientationRightBottom
	// OrientationLeftBottom is rotated 270 degrees clockwise.
	OrientationLeftBottom
)

// Valid reports whether o is one of the eight canonical tag values.
func (o Orientation) Valid() bool {
	return o >= OrientationTopLeft && o <= OrientationLeftBottom
}

// SwapsDimensions reports whether presenting at this orientation exchanges
// width and height.
func (o Orientation) SwapsDimensions() bool {
	return transformFor(o).swap
}

// ResolveOrientation produces the orientation for a decode request. The
// decoder-native lookup is attempted first; if it fails for any reason and a
// fallback payload was captured from the stream, the payload is parsed
// directly. Every failure path degrades to the identity orientation: this
// function never fails.
func ResolveOrientation(native func() (Orientation, error), payload []byte, log Logger) Orientation {
	if log == nil {
		log = nopLogger{}
	}
	if native != nil {
		o, err := native()
		if err == nil && o.Valid() {
			return o
		}
		if err != nil {
			log.Debug("native orientation lookup failed", "error", err)
		}
	}
	if len(payload) > 0 {
		if o, ok := parseOrientation(payload); ok {
			return o
		}
		log.Debug("captured exif payload unusable, assuming identity")
	}
	return OrientationTopLeft
}

// Exif directory constants for the fallback parse.
const (
	tiffMagic          = 42
	orientationTag     = 0x0112
	typeUnsignedShort  = 3
	directoryEntrySize = 12
)

// parseOrientation reads the orientation entry out of a captured Exif
// payload (a TIFF-structured block). It is deliberately bounds-paranoid:
// malformed input yields ok=false, never a panic.
func parseOrientation(data []byte) (Orientation, bool) {
	if len(data) < 8 {
		return 0, false
	}
	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return 0, false
	}
	if order.Uint16(data[2:4]) != tiffMagic {
		return 0, false
	}
	ifdOffset := int(order.Uint32(data[4:8]))
	if ifdOffset < 8 || ifdOffset+2 > len(data) {
		return 0, false
	}

	entries := int(order.Uint16(data[ifdOffset : ifdOffset+2]))
	for i := 0; i < entries; i++ {
		entry := ifdOffset + 2 + i*directoryEntrySize
		if entry+directoryEntrySize > len(data) {
			return 0, false
		}
		if order.Uint16(data[entry:entry+2]) != orientationTag {
			continue
		}
		if order.Uint16(data[entry+2:entry+4]) != typeUnsignedShort {
			return 0, false
		}
		// A SHORT fits inline in the first two value bytes.
		o := Orientation(order.Uint16(data[entry+8 : entry+10]))
		if !o.Valid() {
			return 0, false
		}
		return o, true
	}
	return 0, false
}

// ApplyOrientation transforms raw decoded pixels into display orientation.
// Identity and unknown values return img unchanged.
func ApplyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationTopRight:
		return imaging.FlipH(img)
	case OrientationBottomRight:
		return imaging.Rotate180(img)
	case OrientationBottomLeft:
		return imaging.FlipV(img)
	case OrientationLeftTop:
		return imaging.Transpose(img)
	case OrientationRightTop:
		// imaging rotates counter-clockwise; 90 CW is its Rotate270.
		return imaging.Rotate270(img)
	case OrientationRightBottom:
		return imaging.Transverse(img)
	case OrientationLeftBottom:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
