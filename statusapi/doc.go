// Package statusapi exposes kernel observability over HTTP.
//
// The server reports agent liveness, shutdown progress and Prometheus
// metrics, and accepts a shutdown request so operators can stop the kernel
// without a signal. It only reads kernel state through narrow interfaces;
// it never mutates anything except through the injected shutdown initiator.
package statusapi
