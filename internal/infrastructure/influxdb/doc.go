// Package influxdb records translator traffic and connection history in
// InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Writes go through the
// non-blocking batched WriteAPI so the message path never waits on the
// network; failed batches are reported through the SetOnError callback.
//
// Two measurements are written:
//
//	forwards    tags: source, destination, status   fields: bytes
//	connection  tags: kind, from, to                 fields: count, attempt, error
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteForward("sensor/a", "sensor/b", "forwarded", 2, time.Now())
//
// Connection and health check errors are returned directly.
package influxdb
