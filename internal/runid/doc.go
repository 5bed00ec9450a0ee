// Package runid derives the content-based identity that namespaces one
// pipeline run. All intermediate artifacts carry the short hash prefix so
// runs against different sources can share the output directory without
// consuming each other's files.
package runid
