package led

import "math"

// GammaLUT maps levels 0..maxLevel to 8-bit drive values on a power curve. A gamma
// of 1 (or less) is the linear Scale mapping. Any lit level stays at least 1.
func GammaLUT(maxLevel int, gamma float64) []byte {
	if maxLevel <= 0 {
		maxLevel = 1
	}
	out := make([]byte, maxLevel+1)
	for l := range out {
		if gamma <= 1 {
			out[l] = Scale(uint8(min(l, 255)), maxLevel)
			continue
		}
		v := math.Pow(float64(l)/float64(maxLevel), gamma) * 255
		out[l] = byte(math.Round(v))
		if l > 0 && out[l] == 0 {
			out[l] = 1
		}
	}
	return out
}

// Limiter keeps an RGB frame under a supply current budget. Up to Knee of the budget
// frames pass untouched; above it the excess is compressed so the draw approaches but
// never exceeds the budget.
type Limiter struct {
	ChanMA   float64 // current of one channel at full drive; WS2812 is about 20
	BudgetMA float64 // 0 disables the limiter
	Knee     float64
}

// Estimate returns the frame's current draw in mA.
func (l Limiter) Estimate(rgb []byte) float64 {
	perChan := l.ChanMA
	if perChan <= 0 {
		perChan = 20
	}
	var sum float64
	for _, v := range rgb {
		sum += float64(v)
	}
	return sum / 255 * perChan
}

// Apply scales rgb in place.
func (l Limiter) Apply(rgb []byte) {
	if l.BudgetMA <= 0 {
		return
	}
	knee := l.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	total := l.Estimate(rgb)
	kneeMA := knee * l.BudgetMA
	if total <= kneeMA {
		return
	}
	span := l.BudgetMA - kneeMA
	out := kneeMA + span*(1-math.Exp(-(total-kneeMA)/span))
	s := out / total
	for i, v := range rgb {
		rgb[i] = byte(math.Floor(float64(v) * s))
	}
}
