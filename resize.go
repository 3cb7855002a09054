package thumbcore

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ResizeStrategy names the algorithm variant used to reach the target size.
type ResizeStrategy int

const (
	// StrategyNoOp leaves the buffer untouched: source equals target.
	StrategyNoOp ResizeStrategy = iota
	// StrategyUpscale is a single higher-order (Catmull-Rom) pass.
	StrategyUpscale
	// StrategyDownscale is a single bilinear pass for reductions under 2x.
	StrategyDownscale
	// StrategyProgressive is the multi-pass bilinear downscale for
	// reductions of 2x or more.
	StrategyProgressive
)

func (s ResizeStrategy) String() string {
	switch s {
	case StrategyNoOp:
		return "none"
	case StrategyUpscale:
		return "upscale"
	case StrategyDownscale:
		return "downscale"
	case StrategyProgressive:
		return "progressive"
	default:
		return "unknown"
	}
}

// SelectResizeStrategy maps source and target dimensions to an algorithm
// variant. It is a pure lookup, independent of pixel content; targets must be
// already-resolved absolute dimensions.
func SelectResizeStrategy(sourceWidth, sourceHeight, targetWidth, targetHeight int) ResizeStrategy {
	if sourceWidth == targetWidth && sourceHeight == targetHeight {
		return StrategyNoOp
	}
	if targetWidth > sourceWidth || targetHeight > sourceHeight {
		return StrategyUpscale
	}
	if sourceWidth >= targetWidth*2 || sourceHeight >= targetHeight*2 {
		return StrategyProgressive
	}
	return StrategyDownscale
}

// ResizeTo resizes src to exactly targetWidth x targetHeight using the
// strategy SelectResizeStrategy picks for the pair of dimensions.
func ResizeTo(src image.Image, targetWidth, targetHeight int) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("resize: source image is nil")
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("resize: invalid target dimensions %dx%d", targetWidth, targetHeight)
	}
	bounds := src.Bounds()
	switch SelectResizeStrategy(bounds.Dx(), bounds.Dy(), targetWidth, targetHeight) {
	case StrategyNoOp:
		return src, nil
	case StrategyUpscale:
		return resizePass(src, targetWidth, targetHeight, draw.CatmullRom), nil
	case StrategyDownscale:
		return resizePass(src, targetWidth, targetHeight, draw.BiLinear), nil
	default:
		return ProgressiveScale(src, targetWidth, targetHeight)
	}
}

// ProgressiveScale downscales src to exactly targetWidth x targetHeight in
// multiple bilinear passes, each bounded to at most a 2x reduction per axis.
// A single bilinear pass across a large ratio aliases badly; bounding each
// pass approximates area filtering at bilinear's cost. The final pass is
// clamped to land exactly on the target even for non-power-of-two ratios.
func ProgressiveScale(src image.Image, targetWidth, targetHeight int) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("progressive scale: source image is nil")
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("progressive scale: invalid target dimensions %dx%d", targetWidth, targetHeight)
	}

	current := src
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	for width > targetWidth || height > targetHeight {
		width, height = nextHalvingSize(width, height, targetWidth, targetHeight)
		current = resizePass(current, width, height, draw.BiLinear)
	}
	if width != targetWidth || height != targetHeight {
		// Source was smaller than the target on an axis; one pass up.
		current = resizePass(current, targetWidth, targetHeight, draw.BiLinear)
	}
	return current, nil
}

// nextHalvingSize computes the dimensions of the next progressive pass:
// half the current size per axis, clamped so no axis overshoots its target.
func nextHalvingSize(width, height, targetWidth, targetHeight int) (int, int) {
	nextWidth := width / 2
	if nextWidth < targetWidth {
		nextWidth = targetWidth
	}
	nextHeight := height / 2
	if nextHeight < targetHeight {
		nextHeight = targetHeight
	}
	return nextWidth, nextHeight
}

// resizePass is the single-pass resize primitive, parameterized by the
// interpolator quality hint.
func resizePass(src image.Image, width, height int, interp draw.Interpolator) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
