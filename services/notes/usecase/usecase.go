package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/echonotes/backend/pkg/logger"
	"github.com/echonotes/backend/services/notes/entity"
	"github.com/echonotes/backend/services/notes/storage"
)

// Transcriber is the speech-to-text stage.
type Transcriber interface {
	Transcribe(ctx context.Context, capture *entity.AudioCapture) (string, error)
}

// Extractor is the structured-extraction stage.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (*entity.StructuredExtraction, error)
}

// Uploader pushes the source audio to durable storage.
type Uploader interface {
	Configured() bool
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type Usecase interface {
	Process(ctx context.Context, userID string, capture *entity.AudioCapture) (*entity.Note, error)
	Save(ctx context.Context, userID string, draft *entity.Note) (*entity.Note, error)
	List(ctx context.Context, userID string) ([]*entity.Note, error)
	Delete(ctx context.Context, userID string, id string) error
}

type usecase struct {
	transcriber Transcriber
	extractor   Extractor
	uploader    Uploader
	storage     storage.Storage
}

func New(transcriber Transcriber, extractor Extractor, uploader Uploader, storage storage.Storage) Usecase {
	return &usecase{
		transcriber: transcriber,
		extractor:   extractor,
		uploader:    uploader,
		storage:     storage,
	}
}

// Process runs one capture through transcription and then extraction,
// returning a draft note. Stage errors propagate with the provider
// message intact; if either stage fails the whole call fails — no
// partial note is invented. The audio upload runs alongside and is the
// one best-effort step: on failure the note simply has no audio URL.
func (u *usecase) Process(ctx context.Context, userID string, capture *entity.AudioCapture) (*entity.Note, error) {
	log := logger.FromContext(ctx)

	if userID == "" {
		return nil, entity.ErrUnauthorized
	}

	urlCh := make(chan string, 1)
	go func() {
		urlCh <- u.uploadAudio(ctx, capture)
	}()

	transcript, err := u.transcriber.Transcribe(ctx, capture)
	if err != nil {
		return nil, err
	}
	log.Debug("transcription stage complete", "text_length", len(transcript))

	extraction, err := u.extractor.Extract(ctx, transcript)
	if err != nil {
		return nil, err
	}
	log.Debug("extraction stage complete",
		"key_points", len(extraction.KeyPoints),
		"action_items", len(extraction.ActionItems))

	return &entity.Note{
		UserID:        userID,
		Transcription: transcript,
		Summary:       extraction.Summary,
		KeyPoints:     extraction.KeyPoints,
		ActionItems:   extraction.ActionItems,
		AudioURL:      <-urlCh,
	}, nil
}

// uploadAudio is best-effort: any failure is logged and becomes an
// absent URL, never an error.
func (u *usecase) uploadAudio(ctx context.Context, capture *entity.AudioCapture) string {
	log := logger.FromContext(ctx)

	if u.uploader == nil || !u.uploader.Configured() {
		log.Debug("blob storage not configured, skipping audio upload")
		return ""
	}

	key := fmt.Sprintf("recordings/%d-audio.webm", time.Now().UnixMilli())
	url, err := u.uploader.Put(ctx, key, bytes.NewReader(capture.Data), capture.MediaType)
	if err != nil {
		log.Warn("audio upload failed, continuing without audio url", "error", err)
		return ""
	}

	log.Debug("audio uploaded", "url", url)
	return url
}

func (u *usecase) Save(ctx context.Context, userID string, draft *entity.Note) (*entity.Note, error) {
	if userID == "" {
		return nil, entity.ErrUnauthorized
	}

	return u.storage.Save(ctx, userID, draft)
}

func (u *usecase) List(ctx context.Context, userID string) ([]*entity.Note, error) {
	if userID == "" {
		return nil, entity.ErrUnauthorized
	}

	return u.storage.List(ctx, userID)
}

func (u *usecase) Delete(ctx context.Context, userID string, id string) error {
	if userID == "" {
		return entity.ErrUnauthorized
	}

	return u.storage.Delete(ctx, userID, id)
}
