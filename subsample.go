package thumbcore

import "math"

// Subsampling activation thresholds. Small images decode cheaply enough that
// the stride machinery is pure overhead, and decoding below the quality floor
// would leave too little resolution for the post-decode resize.
const (
	subsampleMinDimension = 1800
	subsampleQualityFloor = 600
)

// SubsamplingPlan is the decode-time stride plus, in scale-factor mode, the
// compensating scale adjustment the caller must use for the post-decode
// resize. Plans are created per request and consumed immediately.
type SubsamplingPlan struct {
	// Stride is the pixel-skip factor passed to the codec, always >= 1.
	Stride int
	// ScaleX and ScaleY are the adjusted scale factors. Only meaningful when
	// Adjusted is true.
	ScaleX   float64
	ScaleY   float64
	Adjusted bool
}

// PlanSubsampling computes a decode-time stride that bounds decode memory for
// very large images. It only departs from stride 1 when enabled, both raw
// dimensions exceed 1800 px, and the estimated decode buffer is over a
// quarter of the available memory. Any failure applying the compensating
// scale adjustment disables the plan rather than propagating: correctness
// over memory savings.
func PlanSubsampling(rawWidth, rawHeight int, req Request, estimatedBytes, availableBytes int64, enabled bool, log Logger) SubsamplingPlan {
	if log == nil {
		log = nopLogger{}
	}
	plan := SubsamplingPlan{Stride: 1}
	if !enabled || rawWidth <= subsampleMinDimension || rawHeight <= subsampleMinDimension {
		return plan
	}
	if availableBytes <= 0 || estimatedBytes <= availableBytes/4 {
		return plan
	}

	stride := 1
	scaleMode := false
	switch {
	case req.hasTargetSize():
		// Only worthwhile when the target is under half the raw size on both
		// axes; otherwise the stride would be 1 anyway.
		if req.TargetWidth < rawWidth/2 && req.TargetHeight < rawHeight/2 {
			stride = rawWidth / req.TargetWidth
			if s := rawHeight / req.TargetHeight; s < stride {
				stride = s
			}
		}
	case req.hasScaleFactors():
		scaleMode = true
		m := math.Max(req.ScaleX, req.ScaleY)
		if m < 1 {
			stride = int(1 / m)
		}
	default:
		return plan
	}
	// The computed candidate can reach 0 for degenerate inputs; clamp before
	// the floor loop rather than relying on it never entering at 0.
	if stride < 1 {
		stride = 1
	}

	// Quality floor: keep at least subsampleQualityFloor px on both axes.
	for stride > 1 && (rawWidth/stride < subsampleQualityFloor || rawHeight/stride < subsampleQualityFloor) {
		stride--
	}

	if scaleMode && stride > 1 {
		sx := req.ScaleX * float64(stride)
		sy := req.ScaleY * float64(stride)
		if !usableScale(sx) || !usableScale(sy) {
			log.Warn("subsampling disabled: scale compensation failed",
				"scaleX", sx, "scaleY", sy)
			return SubsamplingPlan{Stride: 1}
		}
		plan.ScaleX = sx
		plan.ScaleY = sy
		plan.Adjusted = true
	}
	plan.Stride = stride
	return plan
}

// usableScale reports whether f is a finite, positive scale factor.
func usableScale(f float64) bool {
	return f > 0 && !math.IsInf(f, 1) && !math.IsNaN(f)
}
