package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
)

func TestNewWhisper_RequiresKey(t *testing.T) {
	_, err := NewWhisper("")
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestWhisper_Transcribe_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		require.Equal(t, "en", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "utterance.wav", header.Filename)

		head := make([]byte, 4)
		_, err = file.Read(head)
		require.NoError(t, err)
		require.Equal(t, "RIFF", string(head))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "  hello world  "}`))
	}))
	defer srv.Close()

	tr, err := NewWhisper("sk-test", WithBaseURL(srv.URL))
	require.NoError(t, err)

	text, err := tr.Transcribe(context.Background(), audioio.TestClip(500*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestWhisper_Transcribe_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	tr, err := NewWhisper("sk-test", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), audioio.TestClip(500*time.Millisecond))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "500"))
}

func TestWhisper_Transcribe_TransportError(t *testing.T) {
	tr, err := NewWhisper("sk-test",
		WithBaseURL("http://127.0.0.1:1"),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}),
	)
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), audioio.TestClip(500*time.Millisecond))
	require.Error(t, err)
}

func TestMock(t *testing.T) {
	m := NewMock("transcript")
	text, err := m.Transcribe(context.Background(), audioio.TestClip(time.Second))
	require.NoError(t, err)
	require.Equal(t, "transcript", text)
	require.Equal(t, 1, m.Calls())
}
