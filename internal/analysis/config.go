package analysis

// Config holds the thresholds used by the statistics components. Build it
// with DefaultConfig and override fields as needed.
type Config struct {
	// NoiseThreshold flags samples whose mean visibility falls below it.
	NoiseThreshold float64
	// ImbalanceThreshold flags classes whose mean area spread exceeds it.
	// A spread equal to the threshold is not flagged.
	ImbalanceThreshold float64
	// Sentinel is the confidence value written for interpolated joints.
	Sentinel float64
	// SentinelAbsTol and SentinelRelTol bound "close to the sentinel".
	SentinelAbsTol float64
	SentinelRelTol float64
	// MotionMax is the largest acceptable motion proxy value.
	MotionMax float64
}

// DefaultConfig returns the stock heuristics.
func DefaultConfig() Config {
	return Config{
		NoiseThreshold:     0.2,
		ImbalanceThreshold: 0.1,
		Sentinel:           0.15,
		SentinelAbsTol:     1e-8,
		SentinelRelTol:     1e-5,
		MotionMax:          1.0,
	}
}
