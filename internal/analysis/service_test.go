package analysis

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/user/replay-coach/internal/ai"
	"github.com/user/replay-coach/internal/model"
	"github.com/user/replay-coach/internal/store"
)

type fakeStore struct {
	store.Store
	mu       sync.Mutex
	videos   map[string]*model.Video
	scores   []*model.ScoreEvent
	analyses map[string][]byte
}

func newFakeStore(videos ...*model.Video) *fakeStore {
	f := &fakeStore{
		videos:   make(map[string]*model.Video),
		analyses: make(map[string][]byte),
	}
	for _, v := range videos {
		f.videos[v.ObjectID] = v
	}
	return f
}

func (f *fakeStore) GetVideo(ctx context.Context, objectID, owner string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[objectID]
	if !ok || v.Owner != owner {
		return nil, nil
	}
	copied := *v
	if stored, ok := f.analyses[objectID]; ok {
		copied.Analysis = stored
	}
	return &copied, nil
}

func (f *fakeStore) RecordScore(ctx context.Context, score *model.ScoreEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, score)
	return nil
}

func (f *fakeStore) SetAnalysis(ctx context.Context, objectID string, analysis []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.analyses[objectID]; ok {
		return false, nil
	}
	f.analyses[objectID] = analysis
	return true, nil
}

// scriptedStream replays a fixed sequence of text fragments followed by a
// stream-end marker.
type scriptedStream struct {
	fragments []string
	pos       int
	failAt    int // fail before fragment at this index when >= 0
	closed    bool
}

func (s *scriptedStream) Recv() (*ai.StreamEvent, error) {
	if s.failAt >= 0 && s.pos == s.failAt {
		return nil, io.ErrUnexpectedEOF
	}
	if s.pos >= len(s.fragments) {
		return &ai.StreamEvent{EventType: ai.EventStreamEnd}, nil
	}
	event := &ai.StreamEvent{EventType: ai.EventTextGeneration, Text: s.fragments[s.pos]}
	s.pos++
	return event, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type fakeStreamer struct {
	mu        sync.Mutex
	calls     int
	responses map[string][]string // prompt -> fragments
	failAll   bool
}

func (f *fakeStreamer) AnalyzeStream(ctx context.Context, videoID, prompt string, temperature float64) (ai.EventStream, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failAll {
		return nil, errors.New("upstream unavailable")
	}
	return &scriptedStream{fragments: f.responses[prompt], failAt: -1}, nil
}

func indexedVideo(objectID, owner string) *model.Video {
	ext := "ext-" + objectID
	return &model.Video{ObjectID: objectID, Owner: owner, OrigFilename: "f.mp4", ExternalID: &ext}
}

func TestAnalyze(t *testing.T) {
	st := newFakeStore(indexedVideo("obj-1.mp4", "user-1"))
	streamer := &fakeStreamer{responses: map[string][]string{
		mechanicsPrompt: {
			"```json\n[{\"start\":0,\"end\":1,\"summary\":\"flick headshot\",\"score\":100},",
			"{\"start\":4,\"end\":6,\"summary\":\"missed combo\",\"score\":200}]\n```",
		},
		strategyPrompt: {
			`[{"start":10,"end":12,"summary":"early rotate","score":300}]`,
		},
	}}
	svc := NewService(st, streamer, 0.2)

	result, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(result.Mechanics) != 2 {
		t.Errorf("Mechanics count = %d, want 2", len(result.Mechanics))
	}
	if len(result.Strategy) != 1 {
		t.Errorf("Strategy count = %d, want 1", len(result.Strategy))
	}
	if result.Mechanics[0].Summary != "flick headshot" {
		t.Errorf("Mechanics[0].Summary = %q, want %q", result.Mechanics[0].Summary, "flick headshot")
	}

	// round((100+200+300)/3) = 200
	if len(st.scores) != 1 {
		t.Fatalf("recorded %d score events, want 1", len(st.scores))
	}
	if st.scores[0].Score != 200 {
		t.Errorf("aggregate score = %d, want 200", st.scores[0].Score)
	}
	if st.scores[0].Owner != "user-1" {
		t.Errorf("score owner = %v, want user-1", st.scores[0].Owner)
	}

	if streamer.calls != 2 {
		t.Errorf("streamer called %d times, want 2", streamer.calls)
	}
}

func TestAnalyze_CacheIdempotence(t *testing.T) {
	st := newFakeStore(indexedVideo("obj-1.mp4", "user-1"))
	streamer := &fakeStreamer{responses: map[string][]string{
		mechanicsPrompt: {`[{"start":0,"end":1,"summary":"a","score":100}]`},
		strategyPrompt:  {`[{"start":2,"end":3,"summary":"b","score":300}]`},
	}}
	svc := NewService(st, streamer, 0.2)

	first, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4")
	if err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}
	if streamer.calls != 2 {
		t.Fatalf("streamer called %d times after first run, want 2", streamer.calls)
	}

	second, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4")
	if err != nil {
		t.Fatalf("second Analyze() error = %v", err)
	}

	// The second call serves the cache without re-invoking the AI service
	if streamer.calls != 2 {
		t.Errorf("streamer called %d times after second run, want 2", streamer.calls)
	}
	if len(st.scores) != 1 {
		t.Errorf("recorded %d score events, want 1", len(st.scores))
	}

	if len(second.Mechanics) != len(first.Mechanics) || len(second.Strategy) != len(first.Strategy) {
		t.Errorf("cached result differs from first result: %+v vs %+v", second, first)
	}
	if second.Mechanics[0] != first.Mechanics[0] {
		t.Errorf("cached segment = %+v, want %+v", second.Mechanics[0], first.Mechanics[0])
	}
}

func TestAnalyze_NotIndexed(t *testing.T) {
	video := &model.Video{ObjectID: "obj-1.mp4", Owner: "user-1", OrigFilename: "f.mp4"}
	st := newFakeStore(video)
	streamer := &fakeStreamer{}
	svc := NewService(st, streamer, 0.2)

	_, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4")
	if !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("Analyze() error = %v, want ErrNotIndexed", err)
	}
	if streamer.calls != 0 {
		t.Errorf("streamer called %d times for unindexed video, want 0", streamer.calls)
	}
}

func TestAnalyze_NotOwned(t *testing.T) {
	st := newFakeStore(indexedVideo("obj-1.mp4", "user-1"))
	svc := NewService(st, &fakeStreamer{}, 0.2)

	_, err := svc.Analyze(context.Background(), "user-2", "obj-1.mp4")
	if !errors.Is(err, store.ErrVideoNotFound) {
		t.Fatalf("Analyze() error = %v, want ErrVideoNotFound", err)
	}
}

func TestAnalyze_StreamFailureAborts(t *testing.T) {
	st := newFakeStore(indexedVideo("obj-1.mp4", "user-1"))
	streamer := &fakeStreamer{failAll: true}
	svc := NewService(st, streamer, 0.2)

	if _, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4"); err == nil {
		t.Fatal("Analyze() error = nil, want error")
	}

	// Partial success is never persisted
	if len(st.analyses) != 0 {
		t.Errorf("persisted %d analyses after stream failure, want 0", len(st.analyses))
	}
	if len(st.scores) != 0 {
		t.Errorf("recorded %d score events after stream failure, want 0", len(st.scores))
	}
}

func TestAnalyze_MalformedHalfIsEmpty(t *testing.T) {
	st := newFakeStore(indexedVideo("obj-1.mp4", "user-1"))
	streamer := &fakeStreamer{responses: map[string][]string{
		mechanicsPrompt: {"sorry, I cannot produce JSON for this video"},
		strategyPrompt:  {`[{"start":1,"end":2,"summary":"solid rotate","score":400}]`},
	}}
	svc := NewService(st, streamer, 0.2)

	result, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(result.Mechanics) != 0 {
		t.Errorf("Mechanics count = %d, want 0 for malformed half", len(result.Mechanics))
	}
	if len(result.Strategy) != 1 {
		t.Errorf("Strategy count = %d, want 1", len(result.Strategy))
	}

	// The malformed half is excluded from the aggregate entirely
	if st.scores[0].Score != 400 {
		t.Errorf("aggregate score = %d, want 400", st.scores[0].Score)
	}
}

func TestAnalyze_BothHalvesEmptyScoresZero(t *testing.T) {
	st := newFakeStore(indexedVideo("obj-1.mp4", "user-1"))
	streamer := &fakeStreamer{responses: map[string][]string{
		mechanicsPrompt: {"not json"},
		strategyPrompt:  {"also not json"},
	}}
	svc := NewService(st, streamer, 0.2)

	result, err := svc.Analyze(context.Background(), "user-1", "obj-1.mp4")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Mechanics) != 0 || len(result.Strategy) != 0 {
		t.Errorf("result = %+v, want empty halves", result)
	}
	if st.scores[0].Score != 0 {
		t.Errorf("aggregate score = %d, want 0", st.scores[0].Score)
	}
}
