// Command capture records a voice note from the default microphone and
// sends it to the notes service for transcription and extraction.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/echonotes/backend/capture"
	config "github.com/echonotes/backend/config/capture"
	"github.com/echonotes/backend/pkg/logger"
	"github.com/echonotes/backend/services/notes/entity"
)

type processResponse struct {
	Transcription string   `json:"transcription"`
	Summary       string   `json:"summary"`
	KeyPoints     []string `json:"key_points"`
	ActionItems   []string `json:"action_items"`
	AudioURL      string   `json:"audio_url"`
	Error         string   `json:"error"`
	Details       string   `json:"details"`
}

func main() {
	log := logger.New(logger.Config{
		Level:  slog.LevelInfo,
		Output: os.Stderr,
	})

	cfg := config.MustLoad()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	rec := capture.NewRecorder(capture.NewFFmpegDevice(), capture.WithLevelFunc(renderLevel))
	defer rec.Close()

	if err := rec.Start(ctx); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	fmt.Fprintln(os.Stderr, "recording... press Ctrl-C to stop")

	<-ctx.Done()

	audio, err := rec.Stop()
	if err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}
	fmt.Fprintf(os.Stderr, "\rcaptured %ds of audio (%d bytes)\n", audio.DurationSeconds, len(audio.Data))

	note, err := process(cfg, audio)
	if err != nil {
		return err
	}

	printNote(note)
	return nil
}

// renderLevel draws a small meter on stderr for live feedback.
func renderLevel(level float64) {
	const width = 24
	filled := int(level * width)
	if filled > width {
		filled = width
	}
	fmt.Fprintf(os.Stderr, "\r[%s%s]", strings.Repeat("#", filled), strings.Repeat(" ", width-filled))
}

func process(cfg *config.Config, audio *entity.AudioCapture) (*processResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", "audio.webm")
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	url := strings.TrimRight(cfg.ServerURL, "/") + "/api/v1/notes/process"
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call notes service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result processResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unexpected response (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		if result.Details != "" {
			return nil, fmt.Errorf("notes service error (HTTP %d): %s: %s", resp.StatusCode, result.Error, result.Details)
		}
		return nil, fmt.Errorf("notes service error (HTTP %d): %s", resp.StatusCode, result.Error)
	}

	return &result, nil
}

func printNote(note *processResponse) {
	fmt.Println("# Summary")
	fmt.Println(note.Summary)

	fmt.Println("\n# Key points")
	for _, p := range note.KeyPoints {
		fmt.Println("- " + p)
	}

	fmt.Println("\n# Action items")
	for _, a := range note.ActionItems {
		fmt.Println("- " + a)
	}

	if note.Transcription != "" {
		fmt.Println("\n# Transcript")
		fmt.Println(note.Transcription)
	}
	if note.AudioURL != "" {
		fmt.Println("\naudio: " + note.AudioURL)
	}
}
