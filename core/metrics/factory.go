package metrics

import (
	"fmt"

	"github.com/kilianp07/forecastviz/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available to the metrics.sinks
// configuration list. Registering the same name twice fails.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink builds the sinks receiving render, persist and evaluation
// events. No entry yields a NopSink, several entries a MultiSink. When one
// entry fails the sinks already built are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			for _, built := range sinks {
				if cl, ok := built.(interface{ Close() }); ok {
					cl.Close()
				}
			}
			return nil, fmt.Errorf("metrics sink %s: %w", c.Type, err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}
