// Package memory provides in-memory implementations of the driven storage
// ports. They are used in tests and carry no persistence.
package memory
