// Package dee wraps the Dolby Encoding Engine CLI. Jobs are described by XML
// files written elsewhere; this package launches them, translates the
// encoder's progress stream into structured updates, and captures the
// measured dialnorm.
package dee
