package httpapi

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/engine"
	"github.com/afsispa/soundtrace/internal/index"
)

// buildWAV encodes an in-memory mono PCM WAV clip, mirroring the
// downloader_test.go style of exercising handlers against httptest
// servers found in RyanBlaney-latency-benchmark/pkg/stream/hls.
func buildWAV(t *testing.T, sampleRate, numFrames int) []byte {
	t.Helper()
	buf := &bufferWriteSeeker{}
	enc := wav.NewEncoder(buf, sampleRate, 16, 1, 1)
	data := make([]int, numFrames)
	for i := range data {
		data[i] = int(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           data,
	}
	require.NoError(t, enc.Write(ib))
	require.NoError(t, enc.Close())
	return buf.data
}

// bufferWriteSeeker is a minimal in-memory io.WriteSeeker, since
// wav.NewEncoder requires Seek to patch the RIFF/data chunk sizes on Close.
type bufferWriteSeeker struct {
	data []byte
	pos  int
}

func (b *bufferWriteSeeker) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *bufferWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		b.pos = int(offset)
	case 1:
		b.pos += int(offset)
	case 2:
		b.pos = len(b.data) + int(offset)
	}
	return int64(b.pos), nil
}

func multipartWAV(t *testing.T, fields map[string]string, wavBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", "clip.wav")
	require.NoError(t, err)
	_, err = part.Write(wavBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func testServer() *Server {
	cfg := config.Default()
	cfg.NFFT = 512
	cfg.FreqNeighborhood = 2
	cfg.TimeNeighborhood = 2
	cfg.NumBands = 3
	cfg.AmplitudeFloorDB = -40
	eng := engine.New(cfg, index.NewMemIndex())
	return New(eng)
}

func TestHandleHealth(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.SongsCount)
}

func TestHandleAddRequiresSongName(t *testing.T) {
	srv := testServer()
	wavBytes := buildWAV(t, 44100, 44100*2)
	body, contentType := multipartWAV(t, map[string]string{}, wavBytes)

	req := httptest.NewRequest(http.MethodPost, "/songs/add", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAddThenListThenRecognize(t *testing.T) {
	srv := testServer()
	wavBytes := buildWAV(t, 44100, 44100*2)

	addBody, addContentType := multipartWAV(t, map[string]string{"song_name": "test-song"}, wavBytes)
	addReq := httptest.NewRequest(http.MethodPost, "/songs/add", addBody)
	addReq.Header.Set("Content-Type", addContentType)
	addRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(addRec, addReq)
	require.Equal(t, http.StatusOK, addRec.Code)

	var addResp SongAddResponse
	require.NoError(t, json.Unmarshal(addRec.Body.Bytes(), &addResp))
	assert.True(t, addResp.Success)
	assert.Equal(t, "test-song", addResp.SongName)
	assert.Greater(t, addResp.FingerprintsCount, 0)

	listReq := httptest.NewRequest(http.MethodGet, "/songs/list", nil)
	listRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var listResp SongsListResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Songs, 1)
	assert.Equal(t, "test-song", listResp.Songs[0].Name)

	recBody, recContentType := multipartWAV(t, map[string]string{}, wavBytes)
	recReq := httptest.NewRequest(http.MethodPost, "/songs/recognize", recBody)
	recReq.Header.Set("Content-Type", recContentType)
	recRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recRec, recReq)
	require.Equal(t, http.StatusOK, recRec.Code)

	var recResp RecognitionResponse
	require.NoError(t, json.Unmarshal(recRec.Body.Bytes(), &recResp))
	require.True(t, recResp.Matched)
	require.NotNil(t, recResp.Song)
	assert.Equal(t, "test-song", *recResp.Song)
}

func TestHandleAddRejectsGetMethod(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodGet, "/songs/add", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
