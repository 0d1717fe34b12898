// Package infra contains the technical adapters around the simulation:
// the zerolog logger, Prometheus and InfluxDB sinks, the MQTT presentation
// bridge and the OSRM routing client. These packages depend only on the
// interfaces defined under core.
package infra
