package mainloop

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// RateDiagnostic flags free-running game steps that exceed a configured
// step rate — standing in for the source's step-rate logging in
// main_loop_service.cpp, which warns when doGameStep is invoked far more
// often than the display refresh rate would require (usually a sign a
// concurrent system isn't throttling itself). Grounded on
// catrate.Limiter's sliding-window Allow semantics rather than a
// hand-rolled counter+timer.
type RateDiagnostic struct {
	limiter  *catrate.Limiter
	category string

	// OnOverRate, if set, is invoked (synchronously, from Tick) the moment
	// the configured rate is exceeded. Hosts typically wire this to their
	// logger.
	OnOverRate func(next time.Time)
}

// NewRateDiagnostic builds a diagnostic that flags more than maxSteps
// DoGameStep calls within window.
func NewRateDiagnostic(window time.Duration, maxSteps int) *RateDiagnostic {
	return &RateDiagnostic{
		limiter:  catrate.NewLimiter(map[time.Duration]int{window: maxSteps}),
		category: "doGameStep",
	}
}

// Tick registers one game step and invokes OnOverRate if the configured
// rate was just exceeded.
func (d *RateDiagnostic) Tick() {
	next, allowed := d.limiter.Allow(d.category)
	if !allowed && d.OnOverRate != nil {
		d.OnOverRate(next)
	}
}
