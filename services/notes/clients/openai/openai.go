package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	config "github.com/echonotes/backend/config/notes"
	"github.com/echonotes/backend/services/notes/entity"
)

const (
	defaultBaseURL         = "https://api.openai.com"
	defaultTranscribeModel = "whisper-1"
	defaultExtractModel    = "gpt-4o-mini"

	// Provider calls have no cancellation once in flight, so the
	// client itself carries a bounded timeout.
	requestTimeout = 2 * time.Minute

	extractionTemperature = 0.7
)

// systemPrompt fixes the extraction output contract: three named
// fields with their expected cardinalities, returned as one JSON object.
const systemPrompt = `You are Echo Notes AI - an intelligent note assistant.
Given a voice note transcription, analyze it and create:
1. A concise summary (2-4 sentences capturing the essence)
2. 3-6 key points (main ideas or important information)
3. 2-5 clear action items (specific tasks or next steps)

Format your response as JSON with this exact structure:
{
  "summary": "your summary here",
  "key_points": ["point 1", "point 2", "point 3"],
  "action_items": ["action 1", "action 2"]
}

Be concise, clear, and actionable. If there are no clear action items, still provide thoughtful suggestions.`

type Client struct {
	apiKey          string
	baseURL         string
	transcribeModel string
	extractModel    string
	httpClient      *http.Client
	log             *slog.Logger
}

func New(cfg *config.OpenAIConfig) *Client {
	log := slog.Default()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	transcribeModel := cfg.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = defaultTranscribeModel
	}
	extractModel := cfg.ExtractModel
	if extractModel == "" {
		extractModel = defaultExtractModel
	}

	log.Debug("creating openai client",
		slog.String("base_url", baseURL),
		slog.String("transcribe_model", transcribeModel),
		slog.String("extract_model", extractModel),
		slog.Bool("api_key_set", cfg.APIKey != ""))

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         baseURL,
		transcribeModel: transcribeModel,
		extractModel:    extractModel,
		httpClient:      &http.Client{Timeout: requestTimeout},
		log:             log,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the raw audio bytes to the speech-to-text endpoint
// in one call. No local retry; provider failures come back wrapped in
// entity.ErrTranscriptionFailed with the provider's message intact.
// Empty text from the provider passes through unchanged.
func (c *Client) Transcribe(ctx context.Context, capture *entity.AudioCapture) (string, error) {
	c.log.Info("transcribing audio",
		slog.Int("size_bytes", len(capture.Data)),
		slog.Int("duration_seconds", capture.DurationSeconds))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", c.transcribeModel); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	part, err := writer.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(capture.Data); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", entity.ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %s", entity.ErrTranscriptionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider error (HTTP %d): %s", entity.ErrTranscriptionFailed, resp.StatusCode, string(respBody))
	}

	var result transcriptionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: parsing response: %s", entity.ErrTranscriptionFailed, err)
	}

	c.log.Info("transcription complete", slog.Int("text_length", len(result.Text)))
	return result.Text, nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends the transcript to the language model with the fixed
// extraction contract and parses the structured result.
func (c *Client) Extract(ctx context.Context, transcript string) (*entity.StructuredExtraction, error) {
	c.log.Info("extracting structured note", slog.Int("transcript_length", len(transcript)))

	reqBody := chatRequest{
		Model: c.extractModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: transcript},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    extractionTemperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %s", entity.ErrExtractionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider error (HTTP %d): %s", entity.ErrExtractionFailed, resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %s", entity.ErrExtractionFailed, err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: response carries no choices", entity.ErrExtractionFailed)
	}

	extraction, err := parseExtraction(result.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.log.Info("extraction complete",
		slog.Int("key_points", len(extraction.KeyPoints)),
		slog.Int("action_items", len(extraction.ActionItems)))
	return extraction, nil
}

// parseExtraction maps the untyped model output to a
// StructuredExtraction. The content must be one JSON object; inside it,
// missing or mis-shaped fields default to empty rather than failing.
func parseExtraction(content string) (*entity.StructuredExtraction, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %s", entity.ErrExtractionFailed, err)
	}

	out := &entity.StructuredExtraction{
		KeyPoints:   []string{},
		ActionItems: []string{},
	}

	if raw, ok := doc["summary"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out.Summary = s
		}
	}
	if raw, ok := doc["key_points"]; ok {
		var points []string
		if err := json.Unmarshal(raw, &points); err == nil && points != nil {
			out.KeyPoints = points
		}
	}
	if raw, ok := doc["action_items"]; ok {
		var items []string
		if err := json.Unmarshal(raw, &items); err == nil && items != nil {
			out.ActionItems = items
		}
	}

	return out, nil
}
