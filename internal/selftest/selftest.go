// Package selftest lights the ring in fixed patterns to check the wiring of a driver
// without running any animation.
package selftest

import "fmt"

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep" // one LED at a time, position 0 upward
	AllOn      Kind = "all_on"
	BankWalk   Kind = "bank_walk" // one matrix bank at a time
)

// Kinds lists the patterns in the order the selftest command runs them.
var Kinds = []Kind{IndexSweep, AllOn, BankWalk}

func Parse(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown selftest %q", s)
}

type Plan struct {
	Kind     Kind
	Level    uint8 // brightness of a lit LED
	BankSize int   // LEDs per bank, for BankWalk
}

type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner {
	if plan.Level == 0 {
		plan.Level = 100
	}
	if plan.BankSize <= 0 {
		plan.BankSize = 12
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }
func (r *Runner) Steps() int { return r.step }

// Step fills levels with the next pattern frame; returns false when complete.
func (r *Runner) Step(levels []uint8) bool {
	n := len(levels)
	for i := range levels {
		levels[i] = 0
	}

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		levels[r.step] = r.plan.Level
	case AllOn:
		if r.step > 0 {
			return false
		}
		for i := range levels {
			levels[i] = r.plan.Level
		}
	case BankWalk:
		lo := r.step * r.plan.BankSize
		if lo >= n {
			return false
		}
		for i := lo; i < min(lo+r.plan.BankSize, n); i++ {
			levels[i] = r.plan.Level
		}
	default:
		return false
	}
	r.step++
	return true
}
