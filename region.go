package thumbcore

// Rectangle represents a region in pixel space. Whether the coordinates are
// display space (after orientation correction) or raw space (as decoded) is
// contextual; the two are only ever converted through MapRegionToRaw and
// MapRegionToDisplay.
type Rectangle struct {
	X      int // X coordinate of top-left corner
	Y      int // Y coordinate of top-left corner
	Width  int // Width in pixels
	Height int // Height in pixels
}

// axisTransform is the decomposition of an orientation into axis operations.
// Swap is applied before the flips when mapping display space to raw space.
type axisTransform struct {
	flipH bool
	flipV bool
	swap  bool
}

// One entry per orientation value 1-8; index 0 is unused.
var axisTransforms = [9]axisTransform{
	OrientationTopLeft:     {},
	OrientationTopRight:    {flipH: true},
	OrientationBottomRight: {flipH: true, flipV: true},
	OrientationBottomLeft:  {flipV: true},
	OrientationLeftTop:     {swap: true},
	OrientationRightTop:    {flipV: true, swap: true},
	OrientationRightBottom: {flipH: true, flipV: true, swap: true},
	OrientationLeftBottom:  {flipH: true, swap: true},
}

func transformFor(o Orientation) axisTransform {
	if !o.Valid() {
		return axisTransform{}
	}
	return axisTransforms[o]
}

// MapRegionToRaw converts a display-space crop into the raw-space rectangle
// the codec must decode. The result is always clamped inside the raw image
// and never has an extent below 1; out-of-bounds input is clamped, never
// rejected.
func MapRegionToRaw(display Rectangle, o Orientation, rawWidth, rawHeight int) Rectangle {
	t := transformFor(o)
	r := display
	if t.swap {
		r = Rectangle{X: r.Y, Y: r.X, Width: r.Height, Height: r.Width}
	}
	if t.flipH {
		r.X = rawWidth - r.X - r.Width
	}
	if t.flipV {
		r.Y = rawHeight - r.Y - r.Height
	}
	return clampRegion(r, rawWidth, rawHeight)
}

// MapRegionToDisplay is the inverse of MapRegionToRaw: it reports where a
// raw-space rectangle appears in display space. The flips and the swap are
// involutions, so the inverse applies them in reverse order.
func MapRegionToDisplay(raw Rectangle, o Orientation, rawWidth, rawHeight int) Rectangle {
	t := transformFor(o)
	r := raw
	if t.flipH {
		r.X = rawWidth - r.X - r.Width
	}
	if t.flipV {
		r.Y = rawHeight - r.Y - r.Height
	}
	if t.swap {
		r = Rectangle{X: r.Y, Y: r.X, Width: r.Height, Height: r.Width}
	}
	displayWidth, displayHeight := rawWidth, rawHeight
	if t.swap {
		displayWidth, displayHeight = rawHeight, rawWidth
	}
	return clampRegion(r, displayWidth, displayHeight)
}

// clampRegion bounds r to the given image dimensions. The origin stays in
// [0, dim-1] and the extents shrink to fit, never below 1.
func clampRegion(r Rectangle, width, height int) Rectangle {
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.X > width-1 {
		r.X = width - 1
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.Y > height-1 {
		r.Y = height - 1
	}
	if r.X+r.Width > width {
		r.Width = width - r.X
	}
	if r.Y+r.Height > height {
		r.Height = height - r.Y
	}
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	return r
}
