// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package limits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxSourceBytesDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, DefaultMaxSourceBytes, MaxSourceBytes())
}

func TestMaxSourceBytesHonorsEnvOverride(t *testing.T) {
	t.Setenv("JSDEOB_MAX_SOURCE_BYTES", "1024")
	assert.Equal(t, 1024, MaxSourceBytes())
}

func TestMaxSourceBytesIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("JSDEOB_MAX_SOURCE_BYTES", "not-a-number")
	assert.Equal(t, DefaultMaxSourceBytes, MaxSourceBytes())
}

func TestValidateSourceSizeAcceptsSmallSource(t *testing.T) {
	assert.NoError(t, ValidateSourceSize("var x = 1;"))
}

func TestValidateSourceSizeRejectsOversizedSource(t *testing.T) {
	t.Setenv("JSDEOB_MAX_SOURCE_BYTES", "16")
	err := ValidateSourceSize(strings.Repeat("a", 32))
	assert.Error(t, err)
	exceeded, ok := err.(*ExceededError)
	assert.True(t, ok)
	assert.Equal(t, 16, exceeded.Limit)
	assert.Equal(t, 32, exceeded.Actual)
}
