package entrytype

// ProgressEvent represents a progress update during an extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry just written, or the decoder just run.
	Path string

	// BytesDone is the number of content bytes completed.
	BytesDone uint64

	// BytesTotal is the total content bytes for the current stage.
	BytesTotal uint64

	// EntriesDone is the number of entries completed.
	EntriesDone int

	// EntriesTotal is the total number of entries.
	// Zero indicates the total is unknown (e.g., while decoding).
	EntriesTotal int
}

// ProgressStage identifies the current phase of an extraction.
type ProgressStage uint8

// Progress stages.
const (
	// StageDecoding indicates decoders are being run over the input.
	StageDecoding ProgressStage = iota

	// StageExtracting indicates entries are being written.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageDecoding:
		return "decoding"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
