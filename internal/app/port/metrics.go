package port

import "time"

// Metrics records operational counters for the portfolio pipeline.
type Metrics interface {
	ObserveBalanceFetch(symbol string, d time.Duration, err error)
	ObservePriceFetch(feed string, d time.Duration, err error)
	ObserveSnapshot(complete bool, d time.Duration)
	IncStaleDiscarded()
	SetActiveWatches(n int)
}

// NopMetrics drops all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveBalanceFetch(string, time.Duration, error) {}
func (NopMetrics) ObservePriceFetch(string, time.Duration, error)   {}
func (NopMetrics) ObserveSnapshot(bool, time.Duration)              {}
func (NopMetrics) IncStaleDiscarded()                               {}
func (NopMetrics) SetActiveWatches(int)                             {}
