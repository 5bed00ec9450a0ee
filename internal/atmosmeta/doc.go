// Package atmosmeta rewrites the .atmos presentation metadata produced by
// the decoder before it reaches the encoder. Decoded masters carry a full
// 7.1.2 static bed; the encoder produces better spatial results when the bed
// is collapsed to an LFE channel and the remaining content is promoted to
// dynamic objects. The rewrite fires only on the untouched decoder layout so
// hand-authored files pass through unmodified.
package atmosmeta
