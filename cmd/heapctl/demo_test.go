package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemo_TextOutput(t *testing.T) {
	resetFlags(t)

	output, err := captureOutput(t, runDemo)
	require.NoError(t, err)

	assertContains(t, output, []string{
		"malloc(40)",
		"+80",
		"calloc(10, 18)",
		"+224",
		"free(ints)",
		"free(records)",
		"-224",
		"Break: 80 B (80 bytes)",
	})
}

func TestDemo_VerboseJSONStaysParseable(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	verbose = true

	output, err := captureOutput(t, runDemo)
	require.NoError(t, err)

	result := decodeJSON(t, output)
	assert.Len(t, result["steps"], 4)
}

func TestDemo_JSONOutput(t *testing.T) {
	resetFlags(t)
	jsonOut = true

	output, err := captureOutput(t, runDemo)
	require.NoError(t, err)

	result := decodeJSON(t, output)
	steps := result["steps"].([]any)
	require.Len(t, steps, 4)

	want := []struct {
		brk   float64
		moved float64
	}{{80, 80}, {304, 224}, {304, 0}, {80, -224}}
	for i, w := range want {
		step := steps[i].(map[string]any)
		assert.Equal(t, w.brk, step["break"], "step %d", i)
		assert.Equal(t, w.moved, step["moved"], "step %d", i)
	}

	blocks := result["blocks"].([]any)
	require.Len(t, blocks, 1)
	assert.Equal(t, true, blocks[0].(map[string]any)["Free"])
}
