package analysis

// ScoreLabel names the quality tier of a score.
func ScoreLabel(score float64) string {
	switch {
	case score >= 90:
		return "EXCEPTIONAL"
	case score >= 80:
		return "EXCELLENT"
	case score >= 70:
		return "GOOD"
	case score >= 60:
		return "FAIR"
	case score >= 50:
		return "MARGINAL"
	default:
		return "POOR"
	}
}

// Band is the display colour of a score.
type Band string

// Colour bands.
const (
	Green  Band = "green"
	Blue   Band = "blue"
	Amber  Band = "amber"
	Orange Band = "orange"
	Red    Band = "red"
)

// ScoreBand returns the colour band for a score.
func ScoreBand(score float64) Band {
	switch {
	case score >= 80:
		return Green
	case score >= 70:
		return Blue
	case score >= 60:
		return Amber
	case score >= 50:
		return Orange
	default:
		return Red
	}
}

// ANSI returns the terminal colour escape for the band.
func (b Band) ANSI() string {
	switch b {
	case Green:
		return "\033[32m"
	case Blue:
		return "\033[34m"
	case Amber:
		return "\033[33m"
	case Orange:
		return "\033[38;5;208m"
	default:
		return "\033[31m"
	}
}
