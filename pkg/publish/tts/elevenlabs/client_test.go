package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/publish"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "k", BaseURL: "http://localhost:9/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9", c.cfg.BaseURL)
	assert.Equal(t, DefaultModel, c.cfg.Model)
}

func TestSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"audio_base64": "SUQz",
			"alignment": {
				"characters": ["O", "u", "i"],
				"character_start_times_seconds": [0, 0.1, 0.2],
				"character_end_times_seconds": [0.1, 0.2, 0.3]
			}
		}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := c.Synthesize(context.Background(), publish.SpeechRequest{Text: "Oui", VoiceID: publish.VoiceFrench})
	require.NoError(t, err)

	assert.Equal(t, "/v1/text-to-speech/"+publish.VoiceFrench+"/with-timestamps", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Oui", gotBody.Text)
	assert.Equal(t, DefaultModel, gotBody.ModelID)

	assert.Equal(t, "SUQz", res.AudioBase64)
	require.NotNil(t, res.Alignment)
	assert.Equal(t, []string{"O", "u", "i"}, res.Alignment.Characters)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, res.Alignment.CharacterEndTimesSeconds)
	assert.Nil(t, res.NormalizedAlignment)
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"invalid api key"}`, wantStatus: http.StatusUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", wantStatus: http.StatusTooManyRequests},
		{name: "malformed body", status: http.StatusOK, body: "{not json"},
		{name: "no audio", status: http.StatusOK, body: `{"audio_base64":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.Synthesize(context.Background(), publish.SpeechRequest{Text: "bonjour", VoiceID: "v"})
			var se *publish.SynthesisError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStatus, se.Status)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.body, se.Message)
			}
		})
	}
}

func TestSynthesize_RejectsEmptyInput(t *testing.T) {
	c, err := New(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.Synthesize(context.Background(), publish.SpeechRequest{Text: "  ", VoiceID: "v"})
	assert.ErrorIs(t, err, publish.ErrEmptyText)

	_, err = c.Synthesize(context.Background(), publish.SpeechRequest{Text: "a"})
	assert.ErrorIs(t, err, publish.ErrInvalidArgument)
}
