// Package httpapi exposes the engine over the four HTTP endpoints of
// spec.md §6, field names taken verbatim from
// original_source/backend/models.py so existing clients of the original
// service need no changes.
package httpapi

// SongAddResponse mirrors original_source/backend/models.py's
// SongAddResponse.
type SongAddResponse struct {
	Success           bool   `json:"success"`
	SongName          string `json:"song_name"`
	FingerprintsCount int    `json:"fingerprints_count"`
	Message           string `json:"message"`
}

// RecognitionResponse mirrors original_source/backend/models.py's
// RecognitionResponse.
type RecognitionResponse struct {
	Matched        bool    `json:"matched"`
	Song           *string `json:"song,omitempty"`
	PositionInSong *string `json:"position_in_song,omitempty"`
	Confidence     *string `json:"confidence,omitempty"`
	RawScore       *int    `json:"raw_score,omitempty"`
	Message        *string `json:"message,omitempty"`
}

// SongInfo mirrors original_source/backend/models.py's SongInfo.
type SongInfo struct {
	Name              string   `json:"name"`
	FingerprintsCount int      `json:"fingerprints_count"`
	DurationSeconds   *float64 `json:"duration_seconds,omitempty"`
}

// SongsListResponse mirrors original_source/backend/models.py's
// SongsListResponse.
type SongsListResponse struct {
	Songs       []SongInfo `json:"songs"`
	TotalSongs  int        `json:"total_songs"`
	TotalHashes int        `json:"total_hashes"`
}

// ErrorResponse mirrors original_source/backend/models.py's
// ErrorResponse.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse mirrors original_source/backend/routes.py's health_check
// return shape.
type HealthResponse struct {
	Status      string `json:"status"`
	SongsCount  int    `json:"songs_count"`
	HashesCount int    `json:"hashes_count"`
}
