package pipeline

// State names the position of a run inside the stage sequence. Atmos runs
// walk Init through MetadataPatched before encoding; PCM and ADM runs swap
// the decode stages for Probed and, when the source is not 48 kHz, Resampled.
// Failed is terminal and reachable from anywhere.
type State string

const (
	StateInit                State = "init"
	StateToolsVerified       State = "tools_verified"
	StateStreamAnalyzed      State = "stream_analyzed"
	StateProbed              State = "probed"
	StateResampled           State = "resampled"
	StateDecoded             State = "decoded"
	StateArtifactsNormalized State = "artifacts_normalized"
	StateMetadataPatched     State = "metadata_patched"
	StateEncoded51           State = "encoded_5_1"
	StateEncoded71           State = "encoded_7_1"
	StateEncoded             State = "encoded"
	StateCleaned             State = "cleaned"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

func (s State) String() string { return string(s) }
