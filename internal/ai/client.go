package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/config"
	"golang.org/x/time/rate"
)

// Streamer is the streamed-analysis surface consumed by the analysis
// orchestrator and the chat relay.
type Streamer interface {
	AnalyzeStream(ctx context.Context, videoID, prompt string, temperature float64) (EventStream, error)
}

// Indexer is the task-creation surface consumed by the indexing trigger.
type Indexer interface {
	CreateTask(ctx context.Context, videoPath string) (string, error)
}

// Client talks to the external video-AI service
type Client struct {
	baseURL    string
	apiKey     string
	indexID    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new video-AI service client
func NewClient(cfg *config.AIConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		indexID: cfg.IndexID,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

type taskCreateResponse struct {
	TaskID  string `json:"_id"`
	VideoID string `json:"video_id"`
}

// CreateTask submits a local video file for indexing and returns the
// service's own identifier for the video.
func (c *Client) CreateTask(ctx context.Context, videoPath string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	// Stream the multipart body through a pipe instead of buffering the
	// whole video in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		var werr error
		defer func() { pw.CloseWithError(werr) }()

		if werr = writer.WriteField("index_id", c.indexID); werr != nil {
			return
		}
		part, perr := writer.CreateFormFile("video_file", filepath.Base(videoPath))
		if perr != nil {
			werr = perr
			return
		}
		if _, werr = io.Copy(part, file); werr != nil {
			return
		}
		werr = writer.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", pr)
	if err != nil {
		return "", fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("task create request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("task create HTTP status %d: %s", resp.StatusCode, body)
	}

	var task taskCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return "", fmt.Errorf("failed to decode task response: %w", err)
	}
	if task.VideoID == "" {
		return "", fmt.Errorf("task response missing video id")
	}

	log.Info().
		Str("taskId", task.TaskID).
		Str("videoId", task.VideoID).
		Msg("Indexing task created")

	return task.VideoID, nil
}

type analyzeRequest struct {
	VideoID     string  `json:"video_id"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

// AnalyzeStream opens a streamed prompt/response exchange for an indexed
// video. The caller must consume the stream until a stream-end event and
// close it.
func (c *Client) AnalyzeStream(ctx context.Context, videoID, prompt string, temperature float64) (EventStream, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(analyzeRequest{
		VideoID:     videoID,
		Prompt:      prompt,
		Temperature: temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze request error: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("analyze HTTP status %d: %s", resp.StatusCode, body)
	}

	return newStream(resp.Body), nil
}
