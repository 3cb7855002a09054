package thumbcore

import "testing"

func TestRegionRoundTrip(t *testing.T) {
	const rawWidth, rawHeight = 4000, 3000

	// Rectangles strictly inside the display space of every orientation, so
	// clamping never fires and the mapping must invert exactly.
	regions := []Rectangle{
		{X: 0, Y: 0, Width: 100, Height: 100},
		{X: 500, Y: 700, Width: 320, Height: 240},
		{X: 1200, Y: 900, Width: 1, Height: 1},
		{X: 0, Y: 0, Width: 3000, Height: 3000},
	}
	for o := OrientationTopLeft; o <= OrientationLeftBottom; o++ {
		for _, display := range regions {
			raw := MapRegionToRaw(display, o, rawWidth, rawHeight)
			back := MapRegionToDisplay(raw, o, rawWidth, rawHeight)
			if back != display {
				t.Errorf("orientation %d: %+v -> %+v -> %+v", o, display, raw, back)
			}
		}
	}
}

func TestMapRegionToRaw(t *testing.T) {
	cases := []struct {
		name       string
		display    Rectangle
		o          Orientation
		rawW, rawH int
		want       Rectangle
	}{
		{
			name:    "identity",
			display: Rectangle{X: 10, Y: 20, Width: 30, Height: 40},
			o:       OrientationTopLeft,
			rawW:    100, rawH: 100,
			want: Rectangle{X: 10, Y: 20, Width: 30, Height: 40},
		},
		{
			name:    "mirrored",
			display: Rectangle{X: 10, Y: 20, Width: 30, Height: 40},
			o:       OrientationTopRight,
			rawW:    100, rawH: 100,
			want: Rectangle{X: 60, Y: 20, Width: 30, Height: 40},
		},
		{
			name:    "rotated 180",
			display: Rectangle{X: 0, Y: 0, Width: 10, Height: 10},
			o:       OrientationBottomRight,
			rawW:    100, rawH: 80,
			want: Rectangle{X: 90, Y: 70, Width: 10, Height: 10},
		},
		{
			// A portrait phone photo: raw 4000x3000 presented as 3000x4000.
			// The top-left display quadrant sits along the raw bottom-left.
			name:    "rotated 90 cw",
			display: Rectangle{X: 0, Y: 0, Width: 1000, Height: 1000},
			o:       OrientationRightTop,
			rawW:    4000, rawH: 3000,
			want: Rectangle{X: 0, Y: 2000, Width: 1000, Height: 1000},
		},
		{
			name:    "rotated 270 cw",
			display: Rectangle{X: 0, Y: 0, Width: 1000, Height: 1000},
			o:       OrientationLeftBottom,
			rawW:    4000, rawH: 3000,
			want: Rectangle{X: 3000, Y: 0, Width: 1000, Height: 1000},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapRegionToRaw(tc.display, tc.o, tc.rawW, tc.rawH)
			if got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestClampRegion(t *testing.T) {
	cases := []struct {
		name string
		in   Rectangle
		w, h int
		want Rectangle
	}{
		{"inside", Rectangle{10, 10, 20, 20}, 100, 100, Rectangle{10, 10, 20, 20}},
		{"negative origin", Rectangle{-5, -5, 20, 20}, 100, 100, Rectangle{0, 0, 20, 20}},
		{"overhangs right and bottom", Rectangle{90, 95, 20, 20}, 100, 100, Rectangle{90, 95, 10, 5}},
		{"origin past the image", Rectangle{200, 300, 50, 50}, 100, 100, Rectangle{99, 99, 1, 1}},
		{"zero extents", Rectangle{10, 10, 0, 0}, 100, 100, Rectangle{10, 10, 1, 1}},
		{"negative extents", Rectangle{10, 10, -5, -5}, 100, 100, Rectangle{10, 10, 1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := clampRegion(tc.in, tc.w, tc.h)
			if got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
			if got.Width < 1 || got.Height < 1 {
				t.Errorf("clamped region has empty extent: %+v", got)
			}
			if got.X < 0 || got.Y < 0 || got.X+got.Width > tc.w || got.Y+got.Height > tc.h {
				t.Errorf("clamped region escapes the image: %+v", got)
			}
		})
	}
}

func TestMapRegionClampsOutOfBounds(t *testing.T) {
	// Out-of-bounds crops clamp instead of failing, for every orientation.
	display := Rectangle{X: -100, Y: -100, Width: 10000, Height: 10000}
	for o := OrientationTopLeft; o <= OrientationLeftBottom; o++ {
		raw := MapRegionToRaw(display, o, 4000, 3000)
		if raw.X < 0 || raw.Y < 0 || raw.X+raw.Width > 4000 || raw.Y+raw.Height > 3000 {
			t.Errorf("orientation %d: region escapes raw space: %+v", o, raw)
		}
		if raw.Width < 1 || raw.Height < 1 {
			t.Errorf("orientation %d: empty region: %+v", o, raw)
		}
	}
}
