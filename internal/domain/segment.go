package domain

import "time"

// AudienceSegment carries its own weight table, updated independently of the
// global store. Tables are value-copied, never shared by reference.
type AudienceSegment struct {
	SegmentID      string      `json:"segment_id"`
	Name           string      `json:"name"`
	AgeRange       string      `json:"age_range,omitempty"`
	Gender         string      `json:"gender,omitempty"`
	Interests      []string    `json:"interests,omitempty"`
	Platforms      []string    `json:"platforms,omitempty"`
	Weights        WeightTable `json:"weights"`
	TotalAds       int         `json:"total_ads"`
	AvgSuccessRate float64     `json:"avg_success_rate"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// SegmentSet is the snapshot-friendly container for all segments. Order is
// significant: best-segment ties resolve to the earlier entry.
type SegmentSet struct {
	Segments  []AudienceSegment `json:"segments"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (s *SegmentSet) Find(segmentID string) *AudienceSegment {
	for i := range s.Segments {
		if s.Segments[i].SegmentID == segmentID {
			return &s.Segments[i]
		}
	}
	return nil
}

// ScoreSegment scores a feature set against one segment's table.
// Unknown segments fall back to the neutral 50.
func (s SegmentSet) ScoreSegment(segmentID string, features []string) int {
	for i := range s.Segments {
		if s.Segments[i].SegmentID == segmentID {
			return s.Segments[i].Weights.Score(features)
		}
	}
	return int(scoreBase)
}

// SegmentScore pairs a segment with its score for one creative.
type SegmentScore struct {
	SegmentID string `json:"segment_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
}

// ScoreAll scores every active segment, preserving declaration order.
func (s SegmentSet) ScoreAll(features []string) []SegmentScore {
	out := make([]SegmentScore, 0, len(s.Segments))
	for i := range s.Segments {
		if !s.Segments[i].IsActive {
			continue
		}
		out = append(out, SegmentScore{
			SegmentID: s.Segments[i].SegmentID,
			Name:      s.Segments[i].Name,
			Score:     s.Segments[i].Weights.Score(features),
		})
	}
	return out
}

// BestSegment returns the top-scoring active segment; ties keep list order.
func (s SegmentSet) BestSegment(features []string) (SegmentScore, bool) {
	scores := s.ScoreAll(features)
	if len(scores) == 0 {
		return SegmentScore{}, false
	}
	best := scores[0]
	for _, candidate := range scores[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, true
}

// UpdateSegmentWeights applies the shared adjustment rule inside one segment
// and refreshes its running success average.
func (s *SegmentSet) UpdateSegmentWeights(segmentID string, features []string, delta int, actualScore int, learningRate float64, mode WeightMode, now time.Time) []WeightAdjustment {
	seg := s.Find(segmentID)
	if seg == nil {
		return nil
	}
	adjustments := AdjustWeights(&seg.Weights, features, delta, learningRate, mode, now)
	seg.TotalAds++
	seg.AvgSuccessRate += (float64(actualScore) - seg.AvgSuccessRate) / float64(seg.TotalAds)
	seg.UpdatedAt = now
	s.UpdatedAt = now
	return adjustments
}
