package diagnostics

import (
	"fmt"

	"github.com/coreman2200/armio/internal/fault"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

type advice struct {
	summary string
	causes  []string
	fixes   []string
}

var byCode = map[fault.Code]advice{
	fault.AnimAllocFail: {
		summary: "Animation pool exhausted",
		causes:  []string{"finished animations are never released", "too many concurrent cues in the show"},
		fixes:   []string{"release handles once IsFinished reports true", "raise capacity in the config"},
	},
	fault.AnimBadType: {
		summary: "Animation record has an unknown kind",
		causes:  []string{"registry corrupted", "record reused without reinitialising"},
		fixes:   []string{"reset the engine", "file a bug with the tick count"},
	},
	fault.DispAllocFail: {
		summary: "Display component pool exhausted",
		causes:  []string{"swirls or show cues leak their snakes", "components pool smaller than concurrent effects"},
		fixes:   []string{"raise components in the config", "stop unused swirls"},
	},
	fault.DispClearBadCompType: {
		summary: "Released a component the ring does not own",
		causes:  []string{"component released twice", "component from another ring"},
	},
	fault.DispDrawBadCompType: {
		summary: "Frame composer met an unknown component kind",
	},
	fault.AssertionFail: {
		summary: "Internal assertion failed",
		causes:  []string{"animation API called from inside a tic", "nil component passed to an effect"},
	},
}

// FromError turns a fault into an error-level diagnostic.
func FromError(err error) Diagnostic {
	code := fault.CodeOf(err)
	a, ok := byCode[code]
	if !ok {
		a = advice{summary: "Unexpected fault"}
	}
	return Diagnostic{
		Severity:       Err,
		Code:           code.String(),
		Summary:        a.summary,
		Detail:         err.Error(),
		LikelyCauses:   a.causes,
		SuggestedFixes: a.fixes,
		Evidence:       map[string]any{"code": int(code)},
	}
}

// PoolUsage reports how full a fixed pool is. Usage at or above three quarters warns.
func PoolUsage(name string, inUse, capacity int) Diagnostic {
	d := Diagnostic{
		Severity: Info,
		Code:     "POOL_USAGE",
		Summary:  fmt.Sprintf("%s pool %d/%d in use", name, inUse, capacity),
		Evidence: map[string]any{"pool": name, "in_use": inUse, "capacity": capacity},
	}
	if capacity > 0 && inUse*4 >= capacity*3 {
		d.Severity = Warn
		d.LikelyCauses = []string{"handles not released after finishing"}
		d.SuggestedFixes = []string{"release finished animations", "raise the pool capacity"}
	}
	return d
}
