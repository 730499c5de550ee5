package metrics

// Wrapper adapts Metrics to the small interfaces consumed by other
// packages, so internal/explain and internal/storage depend on a handful of
// methods instead of Prometheus types.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) ImportanceRunsInc() { w.m.ImportanceRuns.Inc() }
func (w *Wrapper) PDPRunsInc()        { w.m.PDPRuns.Inc() }
func (w *Wrapper) ICERunsInc()        { w.m.ICERuns.Inc() }
func (w *Wrapper) ScorerCallsInc()    { w.m.ScorerCalls.Inc() }
func (w *Wrapper) ScorerFailuresInc() { w.m.ScorerFailures.Inc() }

func (w *Wrapper) NaNExclusionsAdd(n int) {
	w.m.NaNExclusions.Add(float64(n))
}

func (w *Wrapper) EngineLatencyObserve(seconds float64) {
	w.m.EngineLatency.Observe(seconds)
}

func (w *Wrapper) ReportsStoredInc() { w.m.ReportsStored.Inc() }
func (w *Wrapper) RequestsInc()      { w.m.RequestsTotal.Inc() }
func (w *Wrapper) ErrorsInc()        { w.m.ErrorsTotal.Inc() }
