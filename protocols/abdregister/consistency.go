package abdregister

import (
	"time"

	"statecheck/consistency"
)

// CheckHistory checks a recorded History of Read/Write operations against
// this register's sequential specification, wiring the ConsistencyTester
// (spec.md section 7) to the ABD-style register example the same way a
// real deployment would validate a captured client trace rather than a
// model-checked one: consistency.RegisterModel treats the register purely
// as "what may a Read legally return", independent of the quorum protocol
// abdregister.go uses to achieve it.
func CheckHistory(history consistency.History, timeout time.Duration) (consistency.Result, error) {
	return consistency.CheckLinearizable(consistency.RegisterModel(0), history, timeout)
}

// WriteInput and ReadInput adapt this package's own operation vocabulary
// into consistency.RegisterInput, so a caller recording Runtime.Subscribe
// events can build a History without depending on the consistency
// package's types directly.
func WriteInput(val int) consistency.RegisterInput {
	return consistency.RegisterInput{Op: consistency.Write, Val: val}
}

func ReadInput() consistency.RegisterInput { return consistency.RegisterInput{Op: consistency.Read} }
