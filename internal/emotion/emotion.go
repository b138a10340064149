// Package emotion provides a lightweight keyword-based affect detector.
// The composer consumes its prompt directive opaquely; retrieval never
// depends on it.
package emotion

import (
	"fmt"
	"regexp"
	"strings"
)

// Result describes the detected affect of a piece of text.
type Result struct {
	Emotion    string   `json:"emotion"`
	Confidence float64  `json:"confidence"`
	Intensity  string   `json:"intensity"`
	Keywords   []string `json:"keywords,omitempty"`
}

var neutral = Result{Emotion: "neutral", Intensity: "low"}

// Detector scores text against per-emotion keyword patterns.
type Detector struct {
	patterns  map[string]*regexp.Regexp
	modifiers map[string][]modifier
}

// modifier is an intensity phrase precompiled against one emotion's
// keywords. It applies only when the phrase and a keyword co-occur with no
// line break between them, in either order.
type modifier struct {
	proximity  *regexp.Regexp
	multiplier float64
}

// NewDetector compiles the keyword patterns.
func NewDetector() *Detector {
	raw := map[string]string{
		"happy":    `\b(?:happy|joy|excited|great|awesome|fantastic|wonderful|amazing|love|like|enjoy|pleased|delighted)\b`,
		"sad":      `\b(?:sad|depressed|down|upset|disappointed|hurt|broken|crying|tears|grief|mourning)\b`,
		"angry":    `\b(?:angry|mad|furious|rage|annoyed|irritated|frustrated|pissed|hate|disgusted)\b`,
		"anxious":  `\b(?:anxious|worried|nervous|stressed|panic|fear|scared|afraid|concerned|troubled)\b`,
		"confused": `\b(?:confused|lost|unclear|don't understand|help|stuck|problem|issue|trouble)\b`,
		"grateful": `\b(?:thank|thanks|grateful|appreciate|blessed|fortunate|lucky|gratitude)\b`,
	}
	phrases := []struct {
		phrase     string
		multiplier float64
	}{
		{"extremely", 2.5},
		{"very", 2.0},
		{"really", 1.8},
		{"super", 1.5},
		{"so", 1.3},
		{"quite", 1.2},
		{"a bit", 0.7},
		{"kind of", 0.6},
		{"slightly", 0.5},
	}

	patterns := make(map[string]*regexp.Regexp, len(raw))
	modifiers := make(map[string][]modifier, len(raw))
	for emotion, expr := range raw {
		patterns[emotion] = regexp.MustCompile(expr)
		for _, p := range phrases {
			bounded := `\b` + regexp.QuoteMeta(p.phrase) + `\b`
			modifiers[emotion] = append(modifiers[emotion], modifier{
				proximity:  regexp.MustCompile(bounded + `[^\n]*` + expr + `|` + expr + `[^\n]*` + bounded),
				multiplier: p.multiplier,
			})
		}
	}
	return &Detector{patterns: patterns, modifiers: modifiers}
}

// Detect scores text and returns the dominant emotion. Short or
// unemotional text is neutral with zero confidence.
func (d *Detector) Detect(text string) Result {
	if len(strings.TrimSpace(text)) < 3 {
		return neutral
	}
	lower := strings.ToLower(text)

	scores := make(map[string]float64)
	keywords := make(map[string][]string)
	for emotion, pattern := range d.patterns {
		matches := pattern.FindAllString(lower, -1)
		if len(matches) == 0 {
			continue
		}
		score := float64(len(matches))
		for _, m := range d.modifiers[emotion] {
			if m.proximity.MatchString(lower) {
				score *= m.multiplier
				break
			}
		}
		scores[emotion] = score
		keywords[emotion] = matches
	}
	if len(scores) == 0 {
		return neutral
	}

	primary := ""
	var max, total float64
	for emotion, score := range scores {
		total += score
		if score > max || (score == max && emotion < primary) {
			primary = emotion
			max = score
		}
	}
	confidence := max / total
	if confidence > 1 {
		confidence = 1
	}

	intensity := "low"
	switch {
	case confidence > 0.8:
		intensity = "high"
	case confidence > 0.5:
		intensity = "medium"
	}

	return Result{
		Emotion:    primary,
		Confidence: confidence,
		Intensity:  intensity,
		Keywords:   keywords[primary],
	}
}

var directives = map[string]string{
	"happy":    "Respond with enthusiasm and positive energy.",
	"sad":      "Respond with empathy, comfort, and understanding.",
	"angry":    "Respond calmly, acknowledge their feelings, and offer solutions.",
	"anxious":  "Respond with reassurance, patience, and clear guidance.",
	"confused": "Provide clear, step-by-step explanations and ask clarifying questions.",
	"grateful": "Acknowledge their gratitude warmly and continue being helpful.",
}

// PromptDirective turns a detection result into a short tone directive for
// the prompt, or "" when the signal is neutral or too weak.
func (d *Detector) PromptDirective(r Result) string {
	if r.Emotion == "neutral" || r.Confidence < 0.3 {
		return ""
	}
	directive, ok := directives[r.Emotion]
	if !ok {
		return ""
	}
	return fmt.Sprintf("User appears %s (%s confidence). %s", r.Emotion, r.Intensity, directive)
}
