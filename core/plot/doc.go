// Package plot builds quantile band figures from forecast tables. A Figure is
// a plain list of traces; exporting it to an image is left to infra/chart.
package plot
