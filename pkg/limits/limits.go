// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package limits guards the HTTP surface against oversized source payloads
// before they reach astx.Parse or the Pipeline Driver. Adapted from
// internal/contract/validation.go's SoftLimitBytes/ValidateBatchScript
// pair (CIE's batch_script size guard), retargeted from batch-script bytes
// to de-obfuscator source bytes.
package limits

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultMaxSourceBytes is the soft limit applied to submitted JS source
// when JSDEOB_MAX_SOURCE_BYTES is unset.
const DefaultMaxSourceBytes = 16 << 20 // 16 MiB

// MaxSourceBytes returns the effective source-size limit, overridable via
// JSDEOB_MAX_SOURCE_BYTES.
func MaxSourceBytes() int {
	if v := os.Getenv("JSDEOB_MAX_SOURCE_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxSourceBytes
}

// ExceededError reports that a submitted source payload is larger than the
// configured limit.
type ExceededError struct {
	Limit  int
	Actual int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("source exceeds %d byte limit (got %d bytes)", e.Limit, e.Actual)
}

// ValidateSourceSize checks code against MaxSourceBytes, returning an
// *ExceededError when it is too large.
func ValidateSourceSize(code string) error {
	limit := MaxSourceBytes()
	if len(code) > limit {
		return &ExceededError{Limit: limit, Actual: len(code)}
	}
	return nil
}
