// Package id generates lexicographically sortable 128-bit identifiers,
// encoded as [8 bytes ms_timestamp][8 bytes sequence]. The queue server uses
// them to name anonymous subscribers.
package id
