package agents

import "math"

// ema is an exponential moving average sampled at irregular times,
// grounded on original_source/src/agents.h's EMA helper: the decay
// weight is recomputed from the actual gap since the previous sample
// rather than assuming a fixed tick.
type ema struct {
	period float64 // time constant T, same units as the sample times
	prevX  float64
	prevT  float64
	value  float64
}

func newEMA(period float64) ema {
	return ema{period: period, prevX: math.NaN(), prevT: math.NaN(), value: math.NaN()}
}

func (e *ema) update(t, x float64) {
	if math.IsNaN(e.value) {
		e.value = x
	} else {
		w := math.Exp(-(t - e.prevT) / e.period)
		e.value = w*e.value + (1-w)*e.prevX
	}
	e.prevX = x
	e.prevT = t
}
