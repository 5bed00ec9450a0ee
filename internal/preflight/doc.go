// Package preflight provides readiness checks for the filesystem paths and
// external binaries the pipeline depends on.
//
// These checks run in two contexts:
//   - The orchestrator verifies tools and directories before spawning any
//     subprocess, so a missing binary fails the run in milliseconds instead
//     of after a long decode.
//   - The CLI "atmospress tools" command uses CheckSystemDeps to display the
//     full dependency picture.
package preflight
