// Package domain models flood-risk assessment of USGS streamgage data.
//
// # Data Source
//
// Streamflow observations come from the USGS National Water Information
// System (NWIS) water services, https://waterservices.usgs.gov/. Parameter
// code 00060 is discharge in cubic feet per second (CFS). The daily-values
// service returns one observation per day per site; series are chronological
// and may contain gaps.
//
// # Feature Vector
//
// An assessment reduces the trailing observation window to a fixed
// six-dimensional feature vector:
//
//	index 0  current discharge (last observation)
//	index 1  7-point rolling mean
//	index 2  7-point rolling standard deviation
//	index 3  30-point rolling mean
//	index 4  30-point rolling standard deviation
//	index 5  rate of change (last minus previous observation)
//
// Rolling statistics use the sample (N-1) standard deviation. Both that and
// the previous-observation rate-of-change baseline are pinned conventions:
// the scaler and classifier artifacts were fitted against features computed
// this way, so changing either silently skews every prediction. Tests in
// this package verify the conventions against hand-computed values.
//
// # Risk Categories
//
// Probability maps to a three-level label with fixed thresholds:
//
//	p < 0.30          low
//	0.30 <= p <= 0.70 moderate
//	p > 0.70          high
//
// Both boundary values belong to moderate.
//
// # ID Generation
//
// Assessment IDs are deterministic SHA-256 hashes of site|window-end.
// Reassessing the same site and window produces the same ID, which keeps
// downstream consumers of exported assessments replay-safe.
package domain
