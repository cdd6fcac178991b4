// Package dialogue streams NPC replies: an incremental parser for the reply
// envelope and a state machine that exposes batched, UI-ready state.
//
// A reply looks like:
//
//	[META:emotion=happy,action=wave,moderation=2]
//	Oh, hello there! The turnips are coming along nicely.
//	[SUGGESTIONS]
//	Ask about the harvest
//	Say goodbye
//	[/SUGGESTIONS]
package dialogue

import (
	"strconv"
	"strings"
)

// Emotion is the NPC's expression for the reply.
type Emotion string

const (
	EmotionNeutral     Emotion = "neutral"
	EmotionHappy       Emotion = "happy"
	EmotionSad         Emotion = "sad"
	EmotionAngry       Emotion = "angry"
	EmotionSurprised   Emotion = "surprised"
	EmotionEmbarrassed Emotion = "embarrassed"
	EmotionExcited     Emotion = "excited"
	EmotionWorried     Emotion = "worried"
	EmotionLoving      Emotion = "loving"
	EmotionThoughtful  Emotion = "thoughtful"
)

// Emotions lists every supported emotion.
var Emotions = []Emotion{
	EmotionNeutral, EmotionHappy, EmotionSad, EmotionAngry, EmotionSurprised,
	EmotionEmbarrassed, EmotionExcited, EmotionWorried, EmotionLoving, EmotionThoughtful,
}

// ParseEmotion maps a token to an Emotion; unknown tokens become neutral.
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Emotions {
		if e == known {
			return e
		}
	}
	return EmotionNeutral
}

// Moderation bounds. Scores at or above BedThreshold send the player to bed.
const (
	MinModeration = 0
	MaxModeration = 10
	BedThreshold  = 7
)

// Metadata is the parsed reply header.
type Metadata struct {
	Emotion         Emotion `json:"emotion"`
	Action          string  `json:"action,omitempty"`
	ModerationScore int     `json:"moderation_score"`
	ShouldSendToBed bool    `json:"should_send_to_bed"`
}

// DefaultMetadata is used when a reply has no parseable header.
func DefaultMetadata() Metadata {
	return Metadata{Emotion: EmotionNeutral}
}

// NewMetadata clamps score and derives ShouldSendToBed from the clamped value.
func NewMetadata(emotion Emotion, action string, score int) Metadata {
	score = min(max(score, MinModeration), MaxModeration)
	if strings.EqualFold(strings.TrimSpace(action), "none") {
		action = ""
	}
	return Metadata{
		Emotion:         emotion,
		Action:          strings.TrimSpace(action),
		ModerationScore: score,
		ShouldSendToBed: score >= BedThreshold,
	}
}

// parseHeader parses the inside of "[META:...]", e.g.
// "emotion=happy,action=none,moderation=2". Unknown keys are ignored.
func parseHeader(body string) Metadata {
	emotion, action, score := EmotionNeutral, "", 0
	for _, field := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "emotion":
			emotion = ParseEmotion(v)
		case "action":
			action = v
		case "moderation":
			score = parseScore(v)
		}
	}
	return NewMetadata(emotion, action, score)
}

func parseScore(v string) int {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		// Clamp before converting so huge values cannot overflow.
		f = min(max(f, MinModeration-1), MaxModeration+1)
		return int(f + 0.5)
	}
	return 0
}

// parseSuggestions splits a suggestions block into at most limit lines,
// dropping list bullets and numbering.
func parseSuggestions(block string, limit int) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		s := strings.TrimSpace(line)
		s = strings.TrimLeft(s, "-*•")
		s = trimNumbering(s)
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// trimNumbering drops a leading "1." or "2)".
func trimNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[i+1:]
	}
	return s
}
