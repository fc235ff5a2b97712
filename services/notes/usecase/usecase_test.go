package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echonotes/backend/pkg/gen"
	"github.com/echonotes/backend/services/notes/entity"
	"github.com/echonotes/backend/services/notes/storage"
)

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, capture *entity.AudioCapture) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubExtractor struct {
	extraction *entity.StructuredExtraction
	err        error
	calls      int
}

func (s *stubExtractor) Extract(ctx context.Context, transcript string) (*entity.StructuredExtraction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

type stubUploader struct {
	url        string
	err        error
	configured bool
	calls      int
}

func (s *stubUploader) Configured() bool {
	return s.configured
}

func (s *stubUploader) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	s.calls++
	return s.url, s.err
}

func testStore(t *testing.T) storage.Storage {
	t.Helper()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	return storage.New(db, gen.UUID())
}

func newTestUsecase(t *testing.T, tr *stubTranscriber, ex *stubExtractor, up *stubUploader) Usecase {
	t.Helper()
	return New(tr, ex, up, testStore(t))
}

func TestProcessAssemblesDraftNote(t *testing.T) {
	tr := &stubTranscriber{text: "buy milk and call mom"}
	ex := &stubExtractor{extraction: &entity.StructuredExtraction{
		Summary:     "Errands to run.",
		KeyPoints:   []string{"milk", "mom"},
		ActionItems: []string{"buy milk", "call mom"},
	}}
	up := &stubUploader{configured: true, url: "https://blobs.example/recordings/1.webm"}

	uc := newTestUsecase(t, tr, ex, up)

	note, err := uc.Process(context.Background(), "user-1", &entity.AudioCapture{Data: []byte("x")})
	require.NoError(t, err)

	assert.Equal(t, "buy milk and call mom", note.Transcription)
	assert.Equal(t, "Errands to run.", note.Summary)
	assert.NotEmpty(t, note.KeyPoints)
	assert.NotEmpty(t, note.ActionItems)
	assert.Equal(t, "https://blobs.example/recordings/1.webm", note.AudioURL)
	assert.False(t, note.Persisted(), "process returns a draft")
	assert.Equal(t, 1, up.calls)
}

func TestProcessUnauthorizedBeforeAnyStage(t *testing.T) {
	tr := &stubTranscriber{text: "never"}
	ex := &stubExtractor{extraction: &entity.StructuredExtraction{}}
	up := &stubUploader{configured: true}

	uc := newTestUsecase(t, tr, ex, up)

	_, err := uc.Process(context.Background(), "", &entity.AudioCapture{Data: []byte("x")})
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
	assert.Zero(t, tr.calls, "transcriber must not be called")
	assert.Zero(t, ex.calls, "extractor must not be called")
	assert.Zero(t, up.calls, "uploader must not be called")
}

func TestProcessTranscriptionFailurePropagates(t *testing.T) {
	tr := &stubTranscriber{err: fmt.Errorf("%w: provider down", entity.ErrTranscriptionFailed)}
	ex := &stubExtractor{extraction: &entity.StructuredExtraction{}}

	uc := newTestUsecase(t, tr, ex, &stubUploader{})

	_, err := uc.Process(context.Background(), "user-1", &entity.AudioCapture{Data: []byte("x")})
	require.ErrorIs(t, err, entity.ErrTranscriptionFailed)
	assert.Contains(t, err.Error(), "provider down")
	assert.Zero(t, ex.calls, "extraction must not run after a failed transcription")
}

func TestProcessExtractionFailureAbortsPipeline(t *testing.T) {
	tr := &stubTranscriber{text: "some speech"}
	ex := &stubExtractor{err: fmt.Errorf("%w: response is not valid JSON", entity.ErrExtractionFailed)}

	store := testStore(t)
	uc := New(tr, ex, &stubUploader{}, store)

	_, err := uc.Process(context.Background(), "user-1", &entity.AudioCapture{Data: []byte("x")})
	require.ErrorIs(t, err, entity.ErrExtractionFailed)

	// All-or-nothing: nothing reached the store.
	notes, err := store.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestProcessUploadFailureIsNonFatal(t *testing.T) {
	tr := &stubTranscriber{text: "some speech"}
	ex := &stubExtractor{extraction: &entity.StructuredExtraction{Summary: "s"}}
	up := &stubUploader{configured: true, err: errors.New("network down")}

	uc := newTestUsecase(t, tr, ex, up)

	note, err := uc.Process(context.Background(), "user-1", &entity.AudioCapture{Data: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, note.AudioURL, "failed upload means no audio url, not an error")
	assert.Equal(t, 1, up.calls)
}

func TestProcessSkipsUploadWhenUnconfigured(t *testing.T) {
	tr := &stubTranscriber{text: "some speech"}
	ex := &stubExtractor{extraction: &entity.StructuredExtraction{}}
	up := &stubUploader{configured: false}

	uc := newTestUsecase(t, tr, ex, up)

	note, err := uc.Process(context.Background(), "user-1", &entity.AudioCapture{Data: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, note.AudioURL)
	assert.Zero(t, up.calls)
}

func TestSaveThenListReturnsNewestFirst(t *testing.T) {
	uc := newTestUsecase(t, &stubTranscriber{}, &stubExtractor{}, &stubUploader{})

	first, err := uc.Save(context.Background(), "user-1", &entity.Note{Transcription: "first"})
	require.NoError(t, err)
	require.True(t, first.Persisted())

	second, err := uc.Save(context.Background(), "user-1", &entity.Note{Transcription: "second"})
	require.NoError(t, err)

	notes, err := uc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID, "most recent save comes first")
}

func TestGuardsRequireIdentity(t *testing.T) {
	uc := newTestUsecase(t, &stubTranscriber{}, &stubExtractor{}, &stubUploader{})

	_, err := uc.Save(context.Background(), "", &entity.Note{})
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	_, err = uc.List(context.Background(), "")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	err = uc.Delete(context.Background(), "", "some-id")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
}
