package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// DistributionType represents different probability distributions used
// by the snapshot generator to shape file sizes and key-range widths.
type DistributionType int

const (
	DistUniform DistributionType = iota
	DistExponential
	DistGeometric
	DistFixed
)

// String returns the string representation of DistributionType
func (dt DistributionType) String() string {
	switch dt {
	case DistUniform:
		return "uniform"
	case DistExponential:
		return "exponential"
	case DistGeometric:
		return "geometric"
	case DistFixed:
		return "fixed"
	default:
		return fmt.Sprintf("unknown(%d)", int(dt))
	}
}

// ParseDistributionType parses a string into a DistributionType
func ParseDistributionType(s string) (DistributionType, error) {
	switch s {
	case "uniform":
		return DistUniform, nil
	case "exponential":
		return DistExponential, nil
	case "geometric":
		return DistGeometric, nil
	case "fixed":
		return DistFixed, nil
	default:
		return DistUniform, fmt.Errorf("invalid DistributionType: %s (must be 'uniform', 'exponential', 'geometric', or 'fixed')", s)
	}
}

// MarshalJSON implements json.Marshaler for DistributionType
func (dt DistributionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

// UnmarshalJSON implements json.Unmarshaler for DistributionType
func (dt *DistributionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDistributionType(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// Distribution interface for generating random values
type Distribution interface {
	Sample(rng *rand.Rand, min, max int) int
}

// UniformDistribution samples uniformly between min and max
type UniformDistribution struct{}

func (d *UniformDistribution) Sample(rng *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}
	return min + rng.Intn(max-min+1)
}

// ExponentialDistribution samples with exponential bias toward min
type ExponentialDistribution struct {
	Lambda float64 // Rate parameter (higher = more skewed toward min)
}

func (d *ExponentialDistribution) Sample(rng *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}

	// Inverse transform sampling: X = -ln(U) / lambda
	u := rng.Float64()
	if u == 0 {
		u = 1e-10 // Avoid log(0)
	}
	x := -math.Log(u) / d.Lambda

	// Normalize to [0, 1] by clamping at a reasonable upper bound.
	// For lambda=0.5, 95% of values are < 6, so use that as max.
	maxVal := 6.0 / d.Lambda
	normalized := x / maxVal
	if normalized > 1.0 {
		normalized = 1.0
	}

	return min + int(normalized*float64(max-min))
}

// GeometricDistribution samples with geometric distribution
type GeometricDistribution struct {
	P float64 // Success probability (higher = more skewed toward min)
}

func (d *GeometricDistribution) Sample(rng *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}

	u := rng.Float64()
	if u == 0 {
		u = 1e-10 // Avoid log(0)
	}
	if u >= 1.0 {
		u = 0.999999 // Avoid log(1-u) = log(0)
	}

	// Failures before first success: floor(log(1-u) / log(1-p))
	trials := 0
	if d.P > 0 && d.P < 1 {
		trials = int(math.Log(1-u) / math.Log(1-d.P))
		if trials < 0 {
			trials = 0
		}
	}

	if trials > max-min {
		trials = max - min
	}
	return min + trials
}

// FixedDistribution samples a fixed percentage of the range
type FixedDistribution struct {
	Percentage float64 // Percentage of range to use (0.0 to 1.0)
}

func (d *FixedDistribution) Sample(rng *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}

	percentage := d.Percentage
	if percentage < 0.0 {
		percentage = 0.0
	}
	if percentage > 1.0 {
		percentage = 1.0
	}

	result := min + int(percentage*float64(max-min))
	if result < min {
		return min
	}
	if result > max {
		return max
	}
	return result
}

// NewDistribution creates a distribution based on type
func NewDistribution(distType DistributionType) Distribution {
	switch distType {
	case DistUniform:
		return &UniformDistribution{}
	case DistExponential:
		return &ExponentialDistribution{Lambda: 0.5}
	case DistGeometric:
		return &GeometricDistribution{P: 0.3}
	case DistFixed:
		return &FixedDistribution{Percentage: 0.5}
	default:
		return &UniformDistribution{}
	}
}
