package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/warehouse/internal/core/access"
	"github.com/zeusync/warehouse/internal/core/storage"
)

type staticSource []storage.Stats

func (s staticSource) Stats() []storage.Stats { return s }

func TestCollector(t *testing.T) {
	source := staticSource{
		{
			Name:        "game.Health",
			ComponentID: 0xabc,
			Capacity:    8,
			Occupied:    3,
			Access: access.Metrics{
				Reads:           10,
				Writes:          2,
				ContendedReads:  1,
				ContendedWrites: 2,
				ReadWait:        500 * time.Millisecond,
				WriteWait:       2 * time.Second,
			},
		},
		{Name: "game.Position", ComponentID: 0xdef, Capacity: 8},
	}

	c := NewCollector("warehouse", source)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	require.Equal(t, 2, testutil.CollectAndCount(c, "warehouse_storage_capacity"))
	require.Equal(t, 4, testutil.CollectAndCount(c, "warehouse_storage_wait_seconds_total"))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key, health := mf.GetName(), false
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "component":
					health = l.GetValue() == "game.Health"
				case "mode":
					key += "/" + l.GetValue()
				}
			}
			if !health {
				continue
			}
			switch {
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			}
		}
	}

	require.Equal(t, map[string]float64{
		"warehouse_storage_capacity":                     8,
		"warehouse_storage_occupied":                     3,
		"warehouse_storage_acquisitions_total/shared":    10,
		"warehouse_storage_acquisitions_total/exclusive": 2,
		"warehouse_storage_contended_total/shared":       1,
		"warehouse_storage_contended_total/exclusive":    2,
		"warehouse_storage_wait_seconds_total/shared":    0.5,
		"warehouse_storage_wait_seconds_total/exclusive": 2,
	}, values)
}

func TestCollector_Empty(t *testing.T) {
	c := NewCollector("warehouse", staticSource(nil))
	require.Zero(t, testutil.CollectAndCount(c))
}
