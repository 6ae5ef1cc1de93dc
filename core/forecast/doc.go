// Package forecast holds the forecast table model and the quantile pairing
// used to shade prediction intervals. Quantile columns follow the
// quantile_P<NN> convention and are decoded once when a table is built.
package forecast
