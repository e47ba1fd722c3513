package domain

// Transcript is the raw spoken text of a YouTube video, as returned by the
// transcript provider. Immutable once fetched.
type Transcript struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Chunk is a contiguous slice of a transcript. Chunks for a video, ordered by
// Index, cover the whole transcript; consecutive chunks overlap by a fixed
// number of characters. CharStart/CharEnd are rune offsets into the transcript.
type Chunk struct {
	VideoID   string `json:"video_id"`
	Index     int    `json:"chunk_index"`
	Text      string `json:"text"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}
