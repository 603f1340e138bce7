package graph

// Summary holds aggregate statistics of a graph.
type Summary struct {
	Frames       int `json:"frames"`
	Landmarks    int `json:"landmarks"`
	Observations int `json:"observations"`
	// Tracked counts landmarks observed by more than one frame.
	Tracked        int     `json:"tracked"`
	MaxTrackLength int     `json:"max_track_length"`
	MeanTrack      float64 `json:"mean_track_length"`
}

// Summary computes aggregate statistics.
func (g *Graph) Summary() Summary {
	s := Summary{Frames: len(g.frames), Landmarks: len(g.landmarks)}
	for i := range g.frames {
		s.Observations += len(g.frames[i].landmarks)
	}

	total := 0
	for i := range g.landmarks {
		n := len(g.landmarks[i].occurrences)
		total += n
		if n > 1 {
			s.Tracked++
		}
		if n > s.MaxTrackLength {
			s.MaxTrackLength = n
		}
	}
	if s.Landmarks > 0 {
		s.MeanTrack = float64(total) / float64(s.Landmarks)
	}
	return s
}
