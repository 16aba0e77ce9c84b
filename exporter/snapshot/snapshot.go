package snapshot

import (
	"slices"
	"strings"
	"time"
)

type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Sample struct {
	Name   string  `json:"name"`
	Labels []Label `json:"labels"`
	Value  float64 `json:"value"`
}

// LabelValues returns the values in label order, ready for prometheus.NewConstMetric.
func (s Sample) LabelValues() []string {
	vals := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		vals[i] = l.Value
	}
	return vals
}

// MetricSnapshot is the normalized result of one successful collection.
// It is never modified after Normalize returns it.
type MetricSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Samples   []Sample  `json:"samples"`
}

// Find returns the value of the sample with the given name and label values.
func (s *MetricSnapshot) Find(name string, labelValues ...string) (float64, bool) {
	for _, smp := range s.Samples {
		if smp.Name == name && slices.Equal(smp.LabelValues(), labelValues) {
			return smp.Value, true
		}
	}
	return 0, false
}

// PoolNames lists the pools covered by the snapshot.
func (s *MetricSnapshot) PoolNames() []string {
	var pools []string
	for _, smp := range s.Samples {
		if smp.Name == PoolHealth {
			pools = append(pools, smp.Labels[0].Value)
		}
	}
	return pools
}

func compareSamples(a, b Sample) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return slices.CompareFunc(a.Labels, b.Labels, func(x, y Label) int {
		if c := strings.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		return strings.Compare(x.Value, y.Value)
	})
}
