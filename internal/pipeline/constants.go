package pipeline

// Eligibility floor: declared price must exceed this to count as an
// arm's-length sale.
const minDeclaredPrice = 100.0

// Hard outlier thresholds. All bounds are strictly exclusive.
const (
	minSurface = 5.0
	maxSurface = 1000.0

	minValeurFonciere = 10000.0
	maxValeurFonciere = 10000000.0

	minPrixM2 = 400.0
	maxPrixM2 = 30000.0

	minPieces = 0
	maxPieces = 20
)

// tukeyK is the IQR multiplier of the Tukey fence.
const tukeyK = 1.5

// Defaults for the tunable surface.
const (
	// DefaultChunkSize bounds peak memory during the spatial join.
	DefaultChunkSize = 500000
	// DefaultIQRMinSample is the minimum per-commune sample for the
	// adaptive outlier stage; small-sample quantiles are unreliable.
	DefaultIQRMinSample = 10
)
