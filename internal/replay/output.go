package replay

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"driftbook/internal/book"
	"driftbook/internal/sim"
)

// RenderRow formats m as the human-readable market output row of
// spec.md §6: time[s] [3×bid(size,price,age)] wm:ff.ff [3×ask(size,price,age)].
func RenderRow(m sim.MarketSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%.6f", 1e-9*float64(m.Time))
	for _, b := range m.Bids {
		writeSlot(&sb, int64(b.ShownSize), int64(b.Price), b.AverageAge, b.HasAverage)
	}
	fmt.Fprintf(&sb, " wm:%.2f", m.WM)
	for _, a := range m.Asks {
		writeSlot(&sb, int64(a.ShownSize), int64(a.Price), a.AverageAge, a.HasAverage)
	}
	return sb.String()
}

func writeSlot(sb *strings.Builder, size, price int64, age float64, hasAge bool) {
	if hasAge {
		fmt.Fprintf(sb, " %d,%d,%.3f", size, price, age)
	} else {
		fmt.Fprintf(sb, " %d,%d,-", size, price)
	}
}

// snapshotWindow is the forward-looking statistics window of spec.md §6:
// one second of logical time.
const snapshotWindow = 1e9

// SnapshotMatrix is the dense, T×(1+6L+5) numeric recording of spec.md
// §6: per-tick book state plus trailing forward-looking Δwm statistics
// over the next second. Built from a recorded tick history rather than
// the live driver, since each row's trailing columns depend on future
// ticks.
type SnapshotMatrix struct {
	Depth int
	Rows  [][]float64 // each row has 1+6*Depth+5 columns
}

// BuildSnapshotMatrix turns a recorded sequence of market snapshots
// (one per driver tick, in increasing time order) into the dense matrix.
// depth must match the depth the snapshots were aggregated at.
func BuildSnapshotMatrix(history []sim.MarketSnapshot, depth int) SnapshotMatrix {
	m := SnapshotMatrix{Depth: depth, Rows: make([][]float64, len(history))}
	for i, snap := range history {
		row := make([]float64, 1+6*depth+5)
		row[0] = 1e-9 * float64(snap.Time)
		for l := 0; l < depth; l++ {
			col := 1 + 6*l
			if l < len(snap.Bids) {
				row[col+0] = float64(snap.Bids[l].Price)
				row[col+2] = float64(snap.Bids[l].ShownSize)
				row[col+4] = ageOrNaN(snap.Bids[l])
			}
			if l < len(snap.Asks) {
				row[col+1] = float64(snap.Asks[l].Price)
				row[col+3] = float64(snap.Asks[l].ShownSize)
				row[col+5] = ageOrNaN(snap.Asks[l])
			}
		}
		fillTrailingStats(row, history, i)
		m.Rows[i] = row
	}
	return m
}

func ageOrNaN(l book.LevelSlot) float64 {
	if !l.HasAverage {
		return math.NaN()
	}
	return l.AverageAge
}

// fillTrailingStats fills the last 5 columns of row i: signed terminal
// Δwm, Δwm_max, Δwm_min, weighted mean Δ and weighted stdev over the
// window (history[i], history[j]] for times within one second of
// history[i].Time. Weights are the Δt between consecutive samples, since
// ticks fall at irregular times.
func fillTrailingStats(row []float64, history []sim.MarketSnapshot, i int) {
	base := len(row) - 5
	baseWM := history[i].WM
	baseT := history[i].Time

	var deltas, weights []float64
	last := baseWM
	for j := i + 1; j < len(history); j++ {
		if float64(history[j].Time-baseT) > snapshotWindow {
			break
		}
		if math.IsNaN(history[j].WM) {
			continue
		}
		dt := float64(history[j].Time - history[j-1].Time)
		deltas = append(deltas, history[j].WM-baseWM)
		weights = append(weights, dt)
		last = history[j].WM
	}

	if math.IsNaN(baseWM) || len(deltas) == 0 {
		for k := 0; k < 5; k++ {
			row[base+k] = math.NaN()
		}
		return
	}

	row[base+0] = last - baseWM
	maxD, minD := deltas[0], deltas[0]
	for _, d := range deltas {
		if d > maxD {
			maxD = d
		}
		if d < minD {
			minD = d
		}
	}
	row[base+1] = maxD
	row[base+2] = minD
	row[base+3] = stat.Mean(deltas, weights)
	row[base+4] = stat.StdDev(deltas, weights)
}
