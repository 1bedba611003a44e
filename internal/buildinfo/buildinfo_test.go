package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	origVersion := Version
	Version = "v0.3.1"
	t.Cleanup(func() { Version = origVersion })

	var buf bytes.Buffer
	PrintBuildData(&buf)

	out := buf.String()
	assert.Contains(t, out, "Build version: v0.3.1")
	assert.Contains(t, out, "Build date: ")
	assert.Contains(t, out, "Build commit: ")
}
