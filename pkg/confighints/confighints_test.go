// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package confighints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeclarativeBlock(t *testing.T) {
	source := `
// CONFIG PARAMETERS:
// - maxLength: maximum string length - Number (default: 50000)
// - enabled: whether the pass runs - Boolean (default: true)
// - label: a display label (default: "x")

function transform(root, config) {}
`
	hints := Parse(source)
	require.Contains(t, hints, "maxLength")
	assert.Equal(t, "number", hints["maxLength"].Type)
	assert.Equal(t, 50000.0, hints["maxLength"].Default)

	require.Contains(t, hints, "enabled")
	assert.Equal(t, "boolean", hints["enabled"].Type)
	assert.Equal(t, true, hints["enabled"].Default)

	require.Contains(t, hints, "label")
	assert.Equal(t, "string", hints["label"].Type)
	assert.Equal(t, "x", hints["label"].Default)
}

func TestParseFallsBackToHeuristicsWithoutBlock(t *testing.T) {
	source := `
function transform(root, config) {
  const limit = config.limit || 100;
  const verbose = config.verbose !== false;
  const strict = config.strict === true;
}
`
	hints := Parse(source)

	require.Contains(t, hints, "limit")
	assert.Equal(t, "number", hints["limit"].Type)
	assert.Equal(t, 100.0, hints["limit"].Default)

	require.Contains(t, hints, "verbose")
	assert.Equal(t, true, hints["verbose"].Default)

	require.Contains(t, hints, "strict")
	assert.Equal(t, false, hints["strict"].Default)
}

func TestParseEmptySourceYieldsNoHints(t *testing.T) {
	hints := Parse("")
	assert.Empty(t, hints)
}
