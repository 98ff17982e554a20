package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/ai"
	"github.com/user/replay-coach/internal/model"
	"github.com/user/replay-coach/internal/store"
)

// ErrNotIndexed signals that analysis was requested before indexing
// completed. Callers should treat it as retry-later, not a hard failure.
var ErrNotIndexed = errors.New("video has not been indexed yet")

// Service orchestrates the two-prompt streamed analysis of a video
type Service struct {
	store       store.Store
	ai          ai.Streamer
	temperature float64
	now         func() time.Time
}

// NewService creates a new analysis orchestrator
func NewService(st store.Store, streamer ai.Streamer, temperature float64) *Service {
	return &Service{
		store:       st,
		ai:          streamer,
		temperature: temperature,
		now:         time.Now,
	}
}

// Analyze returns the analysis result for a video. A result already stored
// on the row is returned verbatim without contacting the AI service;
// otherwise two prompt streams run concurrently, their buffers are parsed,
// one aggregate score event is appended, and the combined result is
// persisted onto the row exactly once.
func (s *Service) Analyze(ctx context.Context, owner, objectID string) (*model.AnalysisResult, error) {
	video, err := s.store.GetVideo(ctx, objectID, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to look up video: %w", err)
	}
	if video == nil {
		return nil, store.ErrVideoNotFound
	}

	if video.Analysis != nil {
		var cached model.AnalysisResult
		if err := json.Unmarshal(video.Analysis, &cached); err != nil {
			return nil, fmt.Errorf("failed to decode stored analysis: %w", err)
		}
		log.Info().Str("objectId", objectID).Msg("Returning cached analysis")
		return &cached, nil
	}

	if !video.Indexed() {
		return nil, ErrNotIndexed
	}

	start := s.now()

	var (
		wg        sync.WaitGroup
		mechText  string
		stratText string
		mechErr   error
		stratErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		mechText, mechErr = s.collectStream(ctx, *video.ExternalID, mechanicsPrompt)
	}()
	go func() {
		defer wg.Done()
		stratText, stratErr = s.collectStream(ctx, *video.ExternalID, strategyPrompt)
	}()
	wg.Wait()

	// A protocol-level failure in either stream aborts the whole run;
	// nothing is persisted on partial success.
	if mechErr != nil || stratErr != nil {
		err := errors.Join(mechErr, stratErr)
		log.Error().Err(err).Str("objectId", objectID).Msg("Analysis failed")
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	mechSegments, mechScores := parseSegments(mechText)
	stratSegments, stratScores := parseSegments(stratText)

	score := aggregateScore(append(mechScores, stratScores...))
	event := &model.ScoreEvent{Owner: owner, Timestamp: s.now(), Score: score}
	if err := s.store.RecordScore(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	result := &model.AnalysisResult{
		Mechanics: mechSegments,
		Strategy:  stratSegments,
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	wrote, err := s.store.SetAnalysis(ctx, objectID, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}
	if !wrote {
		// A concurrent run persisted first; serve that result instead
		log.Warn().Str("objectId", objectID).Msg("Analysis already persisted by a concurrent run")
	}

	log.Info().
		Str("objectId", objectID).
		Int("score", score).
		Int("mechanics", len(mechSegments)).
		Int("strategy", len(stratSegments)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Analysis completed")

	return result, nil
}

// collectStream consumes one analyze stream to completion, concatenating
// every text fragment until the end-of-stream marker.
func (s *Service) collectStream(ctx context.Context, videoID, prompt string) (string, error) {
	stream, err := s.ai.AnalyzeStream(ctx, videoID, prompt, s.temperature)
	if err != nil {
		return "", fmt.Errorf("failed to open analyze stream: %w", err)
	}
	defer stream.Close()

	var buf strings.Builder
	for {
		event, err := stream.Recv()
		if err != nil {
			return "", fmt.Errorf("analyze stream error: %w", err)
		}
		if event.End() {
			return buf.String(), nil
		}
		if event.EventType == ai.EventTextGeneration {
			buf.WriteString(event.Text)
		}
	}
}
