// Package atmosfix wraps the eac3_7.1_atmos_fix tool. 7.1 encodes leave the
// encoder with a Blu-ray channel layout that downstream players reject; the
// fix pass rewrites the bitstream in place between encode and delivery.
package atmosfix
