package analysis

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/model"
)

// scoredSegment is the shape each analysis prompt instructs the model to
// emit. Pointer fields distinguish missing keys from zero values during
// validation.
type scoredSegment struct {
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
	Summary *string  `json:"summary"`
	Score   *float64 `json:"score"`
}

// stripCodeFence removes an optional surrounding markdown code fence.
// The model sometimes wraps its JSON output in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseSegments parses one completed stream buffer into segments and the
// score values extracted from them. Scores only feed the aggregate; the
// returned segments carry no score field. On any parse or validation
// failure the whole buffer is treated as empty so a malformed half cannot
// abort the other.
func parseSegments(text string) ([]model.Segment, []float64) {
	if text == "" {
		return nil, nil
	}

	var raw []scoredSegment
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		log.Error().Err(err).Str("raw", text).Msg("Failed to parse analysis result")
		return nil, nil
	}

	segments := make([]model.Segment, 0, len(raw))
	scores := make([]float64, 0, len(raw))
	for _, item := range raw {
		if item.Start == nil || item.End == nil || item.Summary == nil || item.Score == nil {
			log.Error().Str("raw", text).Msg("Analysis result element missing required field")
			return nil, nil
		}
		segments = append(segments, model.Segment{
			Start:   *item.Start,
			End:     *item.End,
			Summary: *item.Summary,
		})
		scores = append(scores, *item.Score)
	}

	return segments, scores
}

// aggregateScore computes the rounded arithmetic mean over all score
// values from both halves combined, clamped to [0, 10000]. No scores at
// all yields 0.
func aggregateScore(scores []float64) int {
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}

	mean := int(math.Round(sum / float64(len(scores))))
	if mean < 0 {
		return 0
	}
	if mean > 10000 {
		return 10000
	}
	return mean
}
