package domain

import (
	"fmt"
	"math"
)

// KernelParams configures the binomial infectiousness window.
type KernelParams struct {
	// WindowLength is the number of days a reported case influences the
	// reported numbers. The kernel has WindowLength+1 entries.
	WindowLength int
	// Offset is the day offset of the first kernel entry relative to the
	// report day. Usually negative.
	Offset int
	// Center is the binomial center-of-mass parameter, 0 <= Center <= WindowLength.
	Center int
}

// DefaultKernelParams returns a 16 day window starting ten days before the
// report day, peaking slightly after it.
func DefaultKernelParams() KernelParams {
	return KernelParams{WindowLength: 16, Offset: -10, Center: 12}
}

// Validate reports whether the parameters describe a usable kernel.
func (p KernelParams) Validate() error {
	if p.WindowLength <= 0 {
		return fmt.Errorf("kernel window length must be positive, got %d", p.WindowLength)
	}
	if p.Center < 0 || p.Center > p.WindowLength {
		return fmt.Errorf("kernel center %d outside [0, %d]", p.Center, p.WindowLength)
	}
	return nil
}

// KernelWeight is one entry of the kernel: the share of a day's new cases
// attributed to the day Offset days away.
type KernelWeight struct {
	Offset int     `json:"offset"`
	Weight float64 `json:"weight"`
}

// Kernel is an immutable, normalized table of infectiousness weights.
type Kernel struct {
	weights []KernelWeight
}

// NewKernel computes w[i] = C(n,k) * p^k * (1-p)^(n-k) with p = i/n for
// i in [0, n] and normalizes the result so the weights sum to 1.
//
// Weights are evaluated in log space and shifted by the largest one before
// exponentiating, so long windows neither overflow nor underflow. C(n,k) is
// the same for every entry and cancels in the normalization.
func NewKernel(p KernelParams) (Kernel, error) {
	if err := p.Validate(); err != nil {
		return Kernel{}, err
	}

	n, k := p.WindowLength, p.Center
	logs := make([]float64, n+1)
	peak := math.Inf(-1)
	for i := 0; i <= n; i++ {
		logs[i] = logBinomialTerm(i, n, k)
		peak = math.Max(peak, logs[i])
	}

	weights := make([]KernelWeight, n+1)
	var sum float64
	for i, l := range logs {
		w := math.Exp(l - peak)
		weights[i] = KernelWeight{Offset: p.Offset + i, Weight: w}
		sum += w
	}
	for i := range weights {
		weights[i].Weight /= sum
	}

	return Kernel{weights: weights}, nil
}

// logBinomialTerm returns log(p^k * (1-p)^(n-k)) for p = i/n. The end points
// are exact: 0^0 is 1, any other power of 0 is -Inf.
func logBinomialTerm(i, n, k int) float64 {
	switch i {
	case 0:
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	case n:
		if k == n {
			return 0
		}
		return math.Inf(-1)
	}
	prob := float64(i) / float64(n)
	return float64(k)*math.Log(prob) + float64(n-k)*math.Log1p(-prob)
}

// Len returns the number of kernel entries.
func (k Kernel) Len() int { return len(k.weights) }

// Weights returns a copy of the kernel entries in offset order.
func (k Kernel) Weights() []KernelWeight {
	out := make([]KernelWeight, len(k.weights))
	copy(out, k.weights)
	return out
}
