// Package influxdb provides optional delivery-history recording for
// Roomcast Core.
//
// When enabled, every announcement and each of its per-room deliveries
// is written to InfluxDB as a time-series point. Writes are batched and
// non-blocking; a failed or disabled InfluxDB never affects the
// announcement pipeline itself.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history recording is off; carry on without it
//	}
//	defer client.Close()
//
//	client.WriteDelivery("ann-abc123", "kitchen", "delivered", "", 1840)
//
// Async write errors are surfaced through SetOnError.
package influxdb
