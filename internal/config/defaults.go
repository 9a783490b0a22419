package config

// Default configuration values.
const (
	// DefaultMinSizeBytes excludes files below 1 MiB from consideration.
	DefaultMinSizeBytes = 1 << 20

	// DefaultThreshold is the default Hamming distance threshold.
	DefaultThreshold = 5

	// MaxThreshold is the width of the perceptual hash in bits.
	MaxThreshold = 64

	// DefaultWorkers of 0 means "use runtime.NumCPU()".
	DefaultWorkers = 0
)

// DefaultExtensions are the image file extensions considered for
// duplicate checking.
var DefaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".webp", ".gif", ".heic",
	".tiff", ".bmp", ".jfif", ".dng",
}

// DefaultFormatPriority ranks formats for the quality comparison.
// Lower is better; unknown extensions get UnknownFormatPriority.
var DefaultFormatPriority = map[string]int{
	".dng":  0,
	".tiff": 1,
	".png":  2,
	".jpeg": 3,
	".jpg":  3,
	".heic": 4,
	".webp": 5,
}

// UnknownFormatPriority ranks below every known format.
const UnknownFormatPriority = 99
