package thumbcore

// Config carries the process-wide toggles for a thumbnail request. It is a
// plain value passed into each Pipeline rather than global state, so
// concurrent requests with different settings never interfere.
type Config struct {
	// ExifWorkaround enables the raw-stream orientation capture used when the
	// codec cannot report orientation itself.
	ExifWorkaround bool
	// MemoryWorkaround enables decode-time subsampling of very large images.
	MemoryWorkaround bool
	// Debug enables per-stage decision logging through Logger.
	Debug bool
	// MemoryLimit is the number of bytes the planner treats as available for
	// decode buffers. Zero selects defaultMemoryLimit.
	MemoryLimit int64
	// Logger receives degraded-mode events. Nil means no logging.
	Logger Logger
}

// Logger is the observability collaborator. Degraded-mode fallbacks (aborted
// scans, disabled subsampling) are reported here instead of being silently
// discarded.
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// logger returns the configured Logger, or a no-op one.
func (c Config) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return nopLogger{}
}

// memoryLimit returns the configured limit, or the default.
func (c Config) memoryLimit() int64 {
	if c.MemoryLimit > 0 {
		return c.MemoryLimit
	}
	return defaultMemoryLimit
}

// Planner budget assumed when the caller does not configure one.
const defaultMemoryLimit = 256 * 1024 * 1024

// Request describes a single thumbnail decode. It is constructed by the
// caller and read-only to this package.
type Request struct {
	// Crop is an optional display-space region. Nil means the whole image.
	// Display space is the coordinate system after orientation correction.
	Crop *Rectangle
	// TargetWidth and TargetHeight give the output size in pixels. When both
	// are zero the scale factors are used instead.
	TargetWidth  int
	TargetHeight int
	// ScaleX and ScaleY resize the (cropped) source by a factor per axis.
	// Ignored when an explicit target size is set.
	ScaleX float64
	ScaleY float64
	// UseOrientation applies the embedded orientation metadata so the output
	// is presented right side up.
	UseOrientation bool
}

// hasTargetSize reports whether an explicit output size was requested.
func (r Request) hasTargetSize() bool {
	return r.TargetWidth > 0 && r.TargetHeight > 0
}

// hasScaleFactors reports whether a usable scale-factor pair was requested.
func (r Request) hasScaleFactors() bool {
	return usableScale(r.ScaleX) && usableScale(r.ScaleY)
}
