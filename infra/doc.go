// Package infra contains technical adapters such as the chart exporter, the
// artifact writer and metrics exporters. These packages should depend only on
// the interfaces defined in the core packages.
package infra
