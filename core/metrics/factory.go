package metrics

import (
	"fmt"

	"github.com/kilianp07/drplan/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink builds the sinks listed in the metrics configuration. No
// entry yields a NopSink, one entry its sink, and several a MultiSink fanning
// every plan, signal and response record out in order.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return newSink(0, cfgs[0])
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := newSink(i, c)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return NewMultiSink(sinks...), nil
}

func newSink(i int, c factory.ModuleConfig) (MetricsSink, error) {
	s, err := sinkRegistry.Create(c)
	if err != nil {
		return nil, fmt.Errorf("metrics sink %d: %w", i, err)
	}
	return s, nil
}
