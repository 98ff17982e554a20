package analysis

import (
	"testing"
)

func TestParseSegments(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantCount    int
		wantScores   []float64
		wantFirstSum string
	}{
		{
			name:       "plain json array",
			input:      `[{"start":0,"end":1,"summary":"x","score":500}]`,
			wantCount:  1,
			wantScores: []float64{500},
		},
		{
			name:       "fenced json",
			input:      "```json\n[{\"start\":0,\"end\":1,\"summary\":\"x\",\"score\":500}]\n```",
			wantCount:  1,
			wantScores: []float64{500},
		},
		{
			name:       "bare fence",
			input:      "```\n[{\"start\":2,\"end\":3,\"summary\":\"y\",\"score\":100}]\n```",
			wantCount:  1,
			wantScores: []float64{100},
		},
		{
			name: "multiple segments",
			input: `[{"start":0,"end":1,"summary":"a","score":100},
				{"start":5,"end":9.5,"summary":"b","score":200}]`,
			wantCount:  2,
			wantScores: []float64{100, 200},
		},
		{
			name:      "empty input",
			input:     "",
			wantCount: 0,
		},
		{
			name:      "not json",
			input:     "the model apologizes instead of answering",
			wantCount: 0,
		},
		{
			name:      "json object instead of array",
			input:     `{"start":0,"end":1,"summary":"x","score":5}`,
			wantCount: 0,
		},
		{
			name:      "missing summary",
			input:     `[{"start":0,"end":1,"score":500}]`,
			wantCount: 0,
		},
		{
			name:      "missing score",
			input:     `[{"start":0,"end":1,"summary":"x"}]`,
			wantCount: 0,
		},
		{
			name:      "non-numeric start",
			input:     `[{"start":"0:01","end":1,"summary":"x","score":500}]`,
			wantCount: 0,
		},
		{
			name:      "non-string summary",
			input:     `[{"start":0,"end":1,"summary":42,"score":500}]`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, scores := parseSegments(tt.input)
			if len(segments) != tt.wantCount {
				t.Fatalf("parseSegments() returned %d segments, want %d", len(segments), tt.wantCount)
			}
			if len(scores) != len(tt.wantScores) {
				t.Fatalf("parseSegments() returned %d scores, want %d", len(scores), len(tt.wantScores))
			}
			for i, want := range tt.wantScores {
				if scores[i] != want {
					t.Errorf("scores[%d] = %v, want %v", i, scores[i], want)
				}
			}
		})
	}
}

func TestParseSegments_ScoreStripped(t *testing.T) {
	segments, _ := parseSegments("```json\n[{\"start\":0,\"end\":1,\"summary\":\"x\",\"score\":500}]\n```")
	if len(segments) != 1 {
		t.Fatalf("parseSegments() returned %d segments, want 1", len(segments))
	}

	seg := segments[0]
	if seg.Start != 0 || seg.End != 1 || seg.Summary != "x" {
		t.Errorf("segment = %+v, want {Start:0 End:1 Summary:x}", seg)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n[]\n```", "[]"},
		{"bare fence", "```\n[]\n```", "[]"},
		{"no fence", "[]", "[]"},
		{"whitespace around fence", "  ```json\n[1]\n```  ", "[1]"},
		{"unclosed fence", "```json\n[]", "[]"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAggregateScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{"mechanics and strategy combined", []float64{100, 200, 300}, 200},
		{"single score", []float64{700}, 700},
		{"rounds to nearest", []float64{1, 2}, 2},
		{"no scores", nil, 0},
		{"empty slice", []float64{}, 0},
		{"clamps above ceiling", []float64{50000}, 10000},
		{"clamps below floor", []float64{-10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aggregateScore(tt.scores); got != tt.want {
				t.Errorf("aggregateScore(%v) = %d, want %d", tt.scores, got, tt.want)
			}
		})
	}
}
