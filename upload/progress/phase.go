// Package progress translates raw transfer progress into a small closed set of
// named phases and derived metrics (speed, ETA) consumable by any rendering
// layer. It has no knowledge of how the bytes are transmitted.
package progress

// Phase is a named stage of the upload pipeline used for progress UI labeling.
type Phase string

const (
	// PhaseSingleUpload is reported while a file is sent in one request.
	PhaseSingleUpload Phase = "single_upload"
	// PhaseChunkUpload is reported while byte-range chunks are being sent.
	PhaseChunkUpload Phase = "chunk_upload"
	// PhaseVideoProcessing is reported while the server assembles and
	// processes the uploaded video after the final chunk.
	PhaseVideoProcessing Phase = "video_processing"
	// PhaseComplete is the terminal phase of a successful upload.
	PhaseComplete Phase = "complete"
	// PhaseError is the terminal phase of a failed upload, carrying the
	// failure message.
	PhaseError Phase = "error"
)
