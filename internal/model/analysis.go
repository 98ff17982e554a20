package model

// Segment is one analyzed moment of gameplay, bounded by start and end
// times in seconds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Summary string  `json:"summary"`
}

// AnalysisResult is the combined output of the two analysis prompts,
// persisted verbatim on the video row once computed.
type AnalysisResult struct {
	Mechanics []Segment `json:"mechanics"`
	Strategy  []Segment `json:"strategy"`
}
