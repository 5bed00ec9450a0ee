// Package deejob renders the job_config XML consumed by the Dolby Encoding
// Engine. One job file describes one encode: input artifact, filter chain,
// output name, and the engine's temp directory. Job files are ephemeral and
// deleted by the orchestrator once the run finishes.
package deejob
