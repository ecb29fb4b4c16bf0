package decompress

import "github.com/meigma/decompress/internal/entrytype"

// Re-export progress types from entrytype.
type (
	// ProgressEvent represents a progress update during an extraction.
	ProgressEvent = entrytype.ProgressEvent

	// ProgressStage identifies the current phase of an extraction.
	ProgressStage = entrytype.ProgressStage

	// ProgressFunc receives progress updates.
	// Implementations must be safe for concurrent calls.
	ProgressFunc = entrytype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageDecoding indicates decoders are being run over the input.
	StageDecoding = entrytype.StageDecoding

	// StageExtracting indicates entries are being written.
	StageExtracting = entrytype.StageExtracting
)
