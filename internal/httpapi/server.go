package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/afsispa/soundtrace/internal/audioio"
	"github.com/afsispa/soundtrace/internal/engine"
	"github.com/afsispa/soundtrace/internal/matcher"
	"github.com/afsispa/soundtrace/internal/obs"
)

// maxUploadBytes bounds an uploaded clip's size, per
// kishore-FDI-WaveID/server/server.go's ParseMultipartForm(10 << 20).
const maxUploadBytes = 10 << 20

// Server serves spec.md §6's HTTP surface over an Engine. Grounded on
// kishore-FDI-WaveID/server/server.go's corsMiddleware/uploadHandler
// structure, endpoint paths and JSON field names from
// original_source/backend/routes.py and models.py.
type Server struct {
	eng *engine.Engine
}

// New returns a Server wrapping eng.
func New(eng *engine.Engine) *Server {
	return &Server{eng: eng}
}

// Handler returns the routed http.Handler, CORS-wrapped per
// kishore-FDI-WaveID's corsMiddleware (this is a local listen-and-record
// tool, not a hardened public API, so a permissive origin matches the
// teacher's posture).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/songs/add", s.handleAdd)
	mux.HandleFunc("/songs/recognize", s.handleRecognize)
	mux.HandleFunc("/songs/list", s.handleList)
	mux.HandleFunc("/health", s.handleHealth)
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Detail: err.Error()})
}

func readUploadedClip(r *http.Request, field string) (audioio.DecodedAudio, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return audioio.DecodedAudio{}, fmt.Errorf("parsing form: %w", err)
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return audioio.DecodedAudio{}, fmt.Errorf("reading %q field: %w", field, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return audioio.DecodedAudio{}, fmt.Errorf("buffering upload: %w", err)
	}
	return audioio.DecodeWAV(bytes.NewReader(buf.Bytes()))
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	songName := r.FormValue("song_name")
	if songName == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("song_name is required"))
		return
	}
	clip, err := readUploadedClip(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	track, err := s.eng.Ingest(songName, clip.Samples, clip.SampleRate, clip.Duration)
	if err != nil {
		obs.Logger().Error("ingest failed", slog.Any("error", err), slog.String("song_name", songName))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, SongAddResponse{
		Success:           true,
		SongName:          songName,
		FingerprintsCount: track.FingerprintCount,
		Message:           "song added successfully",
	})
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	clip, err := readUploadedClip(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.eng.Recognize(clip.Samples, clip.SampleRate)
	if err != nil {
		obs.Logger().Error("recognize failed", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, recognitionResponseFrom(result))
}

func recognitionResponseFrom(result matcher.Result) RecognitionResponse {
	if !result.Matched {
		msg := "No matching song detected"
		score := 0
		if len(result.Candidates) > 0 {
			score = result.Candidates[0].Votes
		}
		return RecognitionResponse{Matched: false, Message: &msg, RawScore: &score}
	}
	song := result.Best.Track.Name
	position := matcher.FormatPosition(result.Best.OffsetSeconds)
	confidence := string(result.Best.Confidence)
	score := result.Best.Votes
	return RecognitionResponse{
		Matched:        true,
		Song:           &song,
		PositionInSong: &position,
		Confidence:     &confidence,
		RawScore:       &score,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tracks := s.eng.ListTracks()
	_, hashCount := s.eng.Stats()

	songs := make([]SongInfo, 0, len(tracks))
	for _, t := range tracks {
		duration := t.DurationSeconds
		songs = append(songs, SongInfo{
			Name:              t.Name,
			FingerprintsCount: t.FingerprintCount,
			DurationSeconds:   &duration,
		})
	}
	writeJSON(w, http.StatusOK, SongsListResponse{
		Songs:       songs,
		TotalSongs:  len(songs),
		TotalHashes: hashCount,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	trackCount, hashCount := s.eng.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		SongsCount:  trackCount,
		HashesCount: hashCount,
	})
}
