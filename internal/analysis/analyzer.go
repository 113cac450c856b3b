// Package analysis assigns a category, priority and spam score to new issues.
package analysis

import (
	"context"
	"strings"
	"unicode"

	"civic_reporter/internal/model"
)

// Analyzer classifies an issue before it is stored.
type Analyzer interface {
	Analyze(ctx context.Context, description string) (model.Analysis, error)
}

// Default is used when the analyzer fails.
var Default = model.Analysis{
	Category:  model.CategoryOther,
	Priority:  model.PriorityMedium,
	SpamScore: 0,
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{model.CategoryStreetLighting, []string{"streetlight", "street light", "lamp post", "lamppost", "dark street", "light pole"}},
	{model.CategoryRoads, []string{"pothole", "road", "asphalt", "pavement", "footpath", "traffic", "speed breaker", "crack"}},
	{model.CategoryWater, []string{"water", "pipe", "leak", "tap", "drain", "drainage", "sewage", "flood", "waterlogging"}},
	{model.CategoryElectricity, []string{"electric", "power cut", "outage", "transformer", "wire", "voltage", "electricity"}},
	{model.CategoryGarbage, []string{"garbage", "trash", "waste", "litter", "dump", "dustbin", "rubbish"}},
	{model.CategoryEnvironment, []string{"tree", "pollution", "smoke", "noise", "park", "air quality", "burning"}},
	{model.CategoryBuilding, []string{"building", "wall", "construction", "encroachment", "collapse", "roof"}},
}

var highPriorityWords = []string{
	"danger", "dangerous", "urgent", "emergency", "accident", "injur", "fire", "live wire",
	"electrocut", "collapse", "flood", "overflow", "child", "hospital", "school",
}

var lowPriorityWords = []string{"minor", "small", "cosmetic", "graffiti", "suggestion", "faded", "paint"}

var spamWords = []string{
	"http://", "https://", "www.", "buy now", "free money", "lottery", "click here", "discount",
	"offer", "winner", "crypto", "subscribe",
}

// KeywordAnalyzer matches descriptions against fixed keyword tables.
type KeywordAnalyzer struct{}

func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

func (a *KeywordAnalyzer) Analyze(ctx context.Context, description string) (model.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return model.Analysis{}, err
	}

	text := strings.ToLower(strings.TrimSpace(description))
	result := Default
	result.Category = classify(text)
	result.Priority = prioritize(text)
	result.SpamScore = spamScore(text)
	if result.SpamScore >= 0.5 {
		result.Priority = model.PriorityLow
	}
	return result, nil
}

func classify(text string) string {
	best, bestHits := model.CategoryOther, 0
	for _, entry := range categoryKeywords {
		hits := countMatches(text, entry.words)
		if hits > bestHits {
			best, bestHits = entry.category, hits
		}
	}
	return best
}

func prioritize(text string) model.Priority {
	switch {
	case countMatches(text, highPriorityWords) > 0:
		return model.PriorityHigh
	case countMatches(text, lowPriorityWords) > 0:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

func spamScore(text string) float64 {
	score := 0.3 * float64(countMatches(text, spamWords))

	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 10 {
		score += 0.4
	}
	if hasLongRun(text, 5) {
		score += 0.3
	}

	if score > 1 {
		score = 1
	}
	return score
}

func countMatches(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// hasLongRun reports whether any rune repeats n or more times in a row.
func hasLongRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
