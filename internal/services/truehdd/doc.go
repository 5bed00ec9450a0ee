// Package truehdd wraps the truehdd CLI used to inspect TrueHD bitstreams
// and decode them into Atmos mezzanine artifacts. Inspection feeds the
// dialnorm and presentation selection for the rest of the run; decoding
// produces the .atmos triple consumed by the encoder.
package truehdd
