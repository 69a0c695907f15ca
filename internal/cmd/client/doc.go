// Package client contains the Cobra commands that speak the node's HTTP
// API: queue push, consumer registration, ack, status, dump, and a live
// SSE subscription.
package client
