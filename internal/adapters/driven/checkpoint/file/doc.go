// Package file provides a file-backed implementation of the checkpoint
// persistence port. The checkpoint is one JSON blob written atomically via
// temp-file-and-rename.
package file
