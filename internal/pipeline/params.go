package pipeline

// Options configures the line extraction pipeline. Kernel and block
// sizes are expressed as divisors of the region width so the pipeline
// adapts to the scale of the cropped palm.
type Options struct {
	ClipLimit float64 // CLAHE contrast clip limit
	TileSize  int     // CLAHE tile grid size (square)

	BilateralDivisor int     // bilateral diameter = width/divisor, odd
	MinBilateral     int     // lower bound for the bilateral diameter
	SigmaColor       float64 // bilateral color sigma
	SigmaSpace       float64 // bilateral space sigma

	BlockDivisor int     // adaptive threshold block = width/divisor, odd
	MinBlockSize int     // lower bound for the adaptive block size
	ThresholdC   float32 // adaptive threshold constant

	UseBlackhat     bool    // enable the bottom-hat ridge detector
	BlackhatDivisor int     // bottom-hat kernel = width/divisor, odd
	BlackhatCutoff  float32 // fixed threshold applied to the bottom-hat response

	CloseDivisorTight int // closing kernel divisor for life/head zones
	CloseDivisorWide  int // closing kernel divisor for the heart zone
	MinCloseSize      int // lower bound for the closing kernel

	MaxFragments     int     // keep at most this many skeleton fragments
	MinFragmentRatio float64 // minimum fragment length as fraction of max(w,h)
	StitchGapRatio   float64 // maximum stitch gap as fraction of max(w,h)

	ConfidenceNorm float64 // confidence = length / (diagonal * norm)
}

// DefaultOptions returns the tuned defaults for palm photos resized to
// around 1080px height.
func DefaultOptions() Options {
	return Options{
		ClipLimit: 2.0,
		TileSize:  8,

		BilateralDivisor: 120,
		MinBilateral:     5,
		SigmaColor:       75,
		SigmaSpace:       75,

		BlockDivisor: 28,
		MinBlockSize: 11,
		ThresholdC:   2,

		UseBlackhat:     true,
		BlackhatDivisor: 50,
		BlackhatCutoff:  15,

		CloseDivisorTight: 100, // small kernel where neighboring lines bleed together
		CloseDivisorWide:  70,  // heart zone tolerates a wider bridge
		MinCloseSize:      3,

		MaxFragments:     3,
		MinFragmentRatio: 0.08,
		StitchGapRatio:   0.15,

		ConfidenceNorm: 0.4,
	}
}

// oddAtLeast scales size to the nearest odd value not below floor.
func oddAtLeast(size, floor int) int {
	if size < floor {
		size = floor
	}
	if size%2 == 0 {
		size++
	}
	return size
}
