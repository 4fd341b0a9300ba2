package lattice

import (
	"fmt"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// The tape channel folds a small symbolic tape into dimension 7 using a
// golden-ratio harmonic table: each symbol is a fixed phi-derived amplitude,
// a tape is the phi-logarithm of the summed amplitudes, and decoding picks
// the nearest table entry. The encoding is lossy by design; it exists so
// auxiliary program state rides inside the lattice, not outside it.

// Cell is one tape cell: a tape symbol, a head flag, and a machine state,
// each drawn from the harmonic table.
type Cell struct {
	T precision.Complex // tape symbol
	H precision.Complex // head position flag
	S precision.Complex // machine state
}

// harmonic amplitude literals, phi-derived.
const (
	harmonicZero  = "0.6180339887"
	harmonicOne   = "2.6180339887498948"
	harmonicHOff  = "7.6942088429389766"
	harmonicHOn   = "4.1803398874989485"
	harmonicQ     = "12.708203932499369"
	harmonicR     = "20.541693133982021"
	harmonicHalt  = "33.238273988694980"
	harmonicS2    = "58.054446543468126"
	harmonicS3    = "227.955711256073"
	harmonicDBase = "368.811865123456"
)

// paddingLiterals feed the log-phi padding term shared by encode and decode.
var paddingLiterals = []string{
	"0.00952380952380952380952380952381",
	"0.0100000000001",
	"0.1000000000001",
	"0.2360679775",
	"0.318309886183790671537767526745",
	"0.3819660113",
}

// HarmonicTable holds the named amplitudes used by the tape codec.
type HarmonicTable struct {
	ctx     *precision.Context
	entries map[string]precision.Complex
	order   []string
}

// NewHarmonicTable builds the table at the context's precision. The D1..D7
// entries are computed as phi^(phi^(i/10 + 10)).
func NewHarmonicTable(ctx *precision.Context) *HarmonicTable {
	t := &HarmonicTable{ctx: ctx, entries: map[string]precision.Complex{}}

	add := func(label, lit string) {
		t.entries[label] = ctx.NewComplex(ctx.MustParse(lit), ctx.Zero())
		t.order = append(t.order, label)
	}
	add("0", harmonicZero)
	add("1", harmonicOne)
	add("S2", harmonicS2)
	add("S3", harmonicS3)

	t.entries["D0"] = ctx.NewComplex(ctx.MustParse(harmonicDBase), ctx.Zero())
	t.order = append(t.order, "D0")
	tenth := ctx.MustParse("0.1")
	ten := ctx.FromInt64(10)
	for i := 1; i < 8; i++ {
		exp := ctx.Pow(ctx.Phi(), ctx.Add(ctx.Mul(ctx.FromInt64(int64(i-1)), tenth), ten))
		label := fmt.Sprintf("D%d", i)
		t.entries[label] = ctx.NewComplex(ctx.Pow(ctx.Phi(), exp), ctx.Zero())
		t.order = append(t.order, label)
	}

	add("H_off", harmonicHOff)
	add("H_on", harmonicHOn)
	add("Q", harmonicQ)
	add("R", harmonicR)
	add("HALT", harmonicHalt)
	return t
}

// Lookup returns the amplitude for a label.
func (t *HarmonicTable) Lookup(label string) (precision.Complex, bool) {
	z, ok := t.entries[label]
	return z, ok
}

// nearestLabel returns the label whose amplitude modulus is closest to val,
// searching only the given labels.
func (t *HarmonicTable) nearestLabel(val precision.Real, labels []string) string {
	var best string
	var bestDist precision.Real
	for _, label := range labels {
		amp := t.ctx.CAbs(t.entries[label])
		dist := t.ctx.Abs(t.ctx.Sub(val, amp))
		if best == "" || dist.Cmp(bestDist) < 0 {
			best, bestDist = label, dist
		}
	}
	return best
}

// DefaultTape builds the canonical fresh tape: every cell is symbol "0",
// head on, machine state R.
func DefaultTape(ctx *precision.Context, size int) []Cell {
	if size > constants.MaxTapeSize {
		size = constants.MaxTapeSize
	}
	table := NewHarmonicTable(ctx)
	t, _ := table.Lookup("0")
	h, _ := table.Lookup("H_on")
	s, _ := table.Lookup("R")
	cells := make([]Cell, 0, size)
	for i := 0; i < size; i++ {
		cells = append(cells, Cell{T: ctx.CCopy(t), H: ctx.CCopy(h), S: ctx.CCopy(s)})
	}
	return cells
}

// logPhiPadding is the shared padding term: sum of log_phi(p) over the
// padding literals, with a 1e-10 floor under the logarithm.
func logPhiPadding(ctx *precision.Context) precision.Real {
	floor := ctx.MustParse("1e-10")
	lnPhi := ctx.Ln(ctx.Phi())
	sum := ctx.Zero()
	for _, lit := range paddingLiterals {
		p := ctx.Max(ctx.MustParse(lit), floor)
		sum = ctx.Add(sum, ctx.Quo(ctx.Ln(p), lnPhi))
	}
	return sum
}

// EncodeTape folds a tape into the dimension-7 amplitude:
// log_phi(sum of cell moduli + 1 + 1) + padding, as a complex value with
// zero imaginary part. Tapes beyond the size bound encode as zero.
func (s *State) EncodeTape(cells []Cell) precision.Complex {
	ctx := s.ctx
	if len(cells) > constants.MaxTapeSize {
		return ctx.ComplexFromInt64(0, 0)
	}

	tapeSum := ctx.Zero()
	for _, cell := range cells {
		tapeSum = ctx.Add(tapeSum, ctx.CAbs(cell.T))
		tapeSum = ctx.Add(tapeSum, ctx.CAbs(cell.H))
		tapeSum = ctx.Add(tapeSum, ctx.CAbs(cell.S))
	}
	// The empty program spec and the script encoding each contribute a unit
	// term; DecodeTape subtracts them back out.
	tapeVal := ctx.Add(tapeSum, ctx.FromInt64(2))

	lnPhi := ctx.Ln(ctx.Phi())
	folded := ctx.Quo(ctx.Ln(ctx.Add(tapeVal, ctx.FromInt64(1))), lnPhi)
	return ctx.NewComplex(ctx.Add(folded, logPhiPadding(ctx)), ctx.Zero())
}

// DecodeTape recovers TapeSize cells from dimension 7 by inverting the fold
// and snapping each cell's components to the nearest harmonic label. The snap
// operates on the remaining folded magnitude rather than per-cell values, so
// decoded symbols are valid table entries but need not equal the encoded
// ones.
func (s *State) DecodeTape() []Cell {
	ctx := s.ctx
	table := NewHarmonicTable(ctx)

	unfolded := ctx.Sub(s.Dimensions[7].Re, logPhiPadding(ctx))
	val := ctx.Sub(ctx.Sub(ctx.Exp(ctx.Mul(ctx.Ln(ctx.Phi()), unfolded)), ctx.FromInt64(1)), ctx.FromInt64(1))

	tLabels := []string{"0", "1", "S2", "S3", "D0", "D1", "D2", "D3", "D4", "D5", "D6", "D7"}
	hLabels := []string{"H_off", "H_on"}
	sLabels := []string{"Q", "R", "HALT"}

	ten := ctx.FromInt64(10)
	d7Mod := ctx.Mul(ctx.CAbs(table.entries["D7"]), ten)
	hMod := ctx.Mul(ctx.CAbs(table.entries["H_on"]), ten)
	haltMod := ctx.Mul(ctx.CAbs(table.entries["HALT"]), ten)

	cells := make([]Cell, 0, s.Memory.TapeSize)
	for i := 0; i < s.Memory.TapeSize; i++ {
		mag := ctx.Abs(val)
		cell := Cell{
			T: table.entries[table.nearestLabel(ctx.Mod(mag, d7Mod), tLabels)],
			H: table.entries[table.nearestLabel(ctx.Mod(mag, hMod), hLabels)],
			S: table.entries[table.nearestLabel(ctx.Mod(mag, haltMod), sLabels)],
		}
		cells = append(cells, cell)
		cellSum := ctx.Add(ctx.Add(ctx.CAbs(cell.T), ctx.CAbs(cell.H)), ctx.CAbs(cell.S))
		val = ctx.Sub(val, cellSum)
	}
	return cells
}
