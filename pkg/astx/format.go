// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

// Format implements §4.1's `format(source) → source | ParseError`: a
// parse+generate round trip with no mutation in between. Because Generate
// slices the original source for every untouched (non-Dirty) node, and
// Parse never marks anything Dirty, Format(source) reproduces source
// byte-for-byte whenever it parses — giving §8's fixed-point/idempotence
// invariant by construction rather than by a separate pretty-printer pass.
// (§4.3.7 Beautify layers on top of this by re-parsing and regenerating;
// because regeneration here is span-preserving, Beautify is a no-op unless
// an earlier pass has dirtied part of the tree. This is a deliberate
// resolution of the "reformatting is a side effect of the printer" note in
// §4.3.7 for a parser without its own pretty-printer — see DESIGN.md.)
func Format(source []byte) (string, error) {
	ast, err := Parse(source, ParseOptions{})
	if err != nil {
		return "", err
	}
	return Generate(ast, GenerateOptions{})
}
