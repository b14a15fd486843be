package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteEnergySnapshot mirrors one daily energy row as a point in the
// energy_daily measurement. The point is timestamped at the snapshot
// date, not the write time, so backfilled rows land on the right day.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteEnergySnapshot(date time.Time, usageKWh, costUSD float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"energy_daily",
		map[string]string{
			"source": "homeassistant",
		},
		map[string]interface{}{
			"usage_kwh": usageKWh,
			"cost_usd":  costUSD,
		},
		date,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and
// fields, timestamped now. Tags should stay low-cardinality.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
