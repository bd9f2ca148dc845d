// Package control implements the administrative surface over a queue
// directory: initializing it, and adding, removing, or clearing
// subscribers. It is deliberately separate from package queue: a running
// Queue handle assumes a directory is already initialized, while Control
// operates on a directory that may not be yet (or is being reconfigured).
package control
