package lexer

import (
	"fmt"

	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
)

// DefaultMaxStall is the number of consecutive exec-loop iterations allowed
// without consuming input or emitting a token.
const DefaultMaxStall = 64

// Budget holds the resource limits for one scan.
type Budget struct {
	MaxSteps int // 0 means unlimited
	MaxStall int
}

// BudgetTracker tracks work done by the exec loop.
type BudgetTracker struct {
	Steps int
	Stall int
}

func (lx *Lexer) checkStepBudget() bool {
	lx.tracker.Steps++
	if lx.budget.MaxSteps > 0 && lx.tracker.Steps > lx.budget.MaxSteps {
		lx.fatalAt(diagnostics.EStepBudget,
			fmt.Sprintf("step budget exceeded (max %d)", lx.budget.MaxSteps),
			lx.cur.pos, lx.cur.pos)
		return false
	}
	return true
}

// checkStallBudget counts iterations that neither moved the cursor nor
// queued a token. Fallback chains legitimately stall for a few iterations.
func (lx *Lexer) checkStallBudget(progressed bool) bool {
	if progressed {
		lx.tracker.Stall = 0
		return true
	}
	lx.tracker.Stall++
	if lx.budget.MaxStall > 0 && lx.tracker.Stall > lx.budget.MaxStall {
		lx.fatalAt(diagnostics.EStall,
			fmt.Sprintf("no progress in state %s after %d iterations", lx.state, lx.tracker.Stall),
			lx.cur.pos, lx.cur.pos)
		return false
	}
	return true
}
