package matching

// Policy centralizes fuzzy-title thresholds.
type Policy struct {
	// FuzzyMatchFloor is the minimum token-set Jaccard score for a fuzzy
	// title match to count at all.
	FuzzyMatchFloor float64
	// FuzzyHighThreshold promotes a fuzzy match to high confidence.
	FuzzyHighThreshold float64
	// FuzzyMediumThreshold separates medium from low confidence. With the
	// default floor it is never the deciding boundary, but the tier
	// function stays total.
	FuzzyMediumThreshold float64
}

// DefaultPolicy returns the thresholds tuned for game titles.
func DefaultPolicy() Policy {
	return Policy{
		FuzzyMatchFloor:      0.72,
		FuzzyHighThreshold:   0.80,
		FuzzyMediumThreshold: 0.50,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.FuzzyMatchFloor <= 0 || p.FuzzyMatchFloor > 1 {
		p.FuzzyMatchFloor = d.FuzzyMatchFloor
	}
	if p.FuzzyHighThreshold <= 0 || p.FuzzyHighThreshold > 1 {
		p.FuzzyHighThreshold = d.FuzzyHighThreshold
	}
	if p.FuzzyMediumThreshold <= 0 || p.FuzzyMediumThreshold > 1 {
		p.FuzzyMediumThreshold = d.FuzzyMediumThreshold
	}
	return p
}

// tierForScore maps a fuzzy score to its confidence tier.
func (p Policy) tierForScore(score float64) Confidence {
	switch {
	case score >= p.FuzzyHighThreshold:
		return ConfidenceHigh
	case score >= p.FuzzyMediumThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
