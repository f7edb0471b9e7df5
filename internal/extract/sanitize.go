package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Line-level drop patterns: explicit failure markers, internal method-tag
// annotations (including the fusion supplement markers), and vision-model
// boilerplate for images with nothing to read. The Chinese phrases are
// emitted verbatim by the vision engines regardless of request language.
var dropLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\[.*(failed|error|exception).*\]`),
	regexp.MustCompile(`(?i)^\[(ocr|vision) supplement\]`),
	regexp.MustCompile(`(?i)^\[.*(recognition result|supplement|enhanced).*\]`),
	regexp.MustCompile(`(?i)^(ocr|vision):\s*not attempted`),
	regexp.MustCompile(`(?i)no visible text`),
	regexp.MustCompile(`图中没有可见文字`),
	regexp.MustCompile(`图中所有可见文字：`),
	regexp.MustCompile(`图中所有文字：`),
}

// digitPunctOnly matches lines carrying no linguistic content.
var digitPunctOnly = regexp.MustCompile(`^[\d\s\-_.,;:!?()\[\]{}/\\|+*=%#@'"]+$`)

const (
	// minLineRunes drops stray fragments shorter than this.
	minLineRunes = 3
	// repeatTokenLimit: a line made of one token repeated more than this
	// many times is recognition noise.
	repeatTokenLimit = 2
	// degenerateMinTokens / degenerateTokenShare: a unit whose dominant
	// token exceeds this share of a non-trivial token count is discarded
	// entirely (the "奖牌 奖牌 奖牌 ..." failure mode).
	degenerateMinTokens  = 10
	degenerateTokenShare = 0.3
)

// Sanitizer strips boilerplate, degenerate, and non-informative text from
// fused recognition output before it reaches the caller. Sanitize is
// idempotent, and an empty return value means "no usable text", not an
// error.
type Sanitizer struct{}

// NewSanitizer creates a Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize applies the filter chain and returns cleaned text, or the empty
// string when nothing meaningful survives.
func (s *Sanitizer) Sanitize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if matchesDropPattern(line) {
			continue
		}
		if utf8.RuneCountInString(line) < minLineRunes {
			continue
		}
		if digitPunctOnly.MatchString(line) {
			continue
		}
		if isRepeatedToken(line) {
			continue
		}
		lines = append(lines, line)
	}

	if isDegenerate(lines) {
		return ""
	}

	// Dedup exact repeats, preserving first-seen order.
	seen := make(map[string]struct{}, len(lines))
	var unique []string
	for _, line := range lines {
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		unique = append(unique, line)
	}

	// Deduplication changes token frequencies, so re-check: this keeps
	// Sanitize(Sanitize(x)) == Sanitize(x).
	if isDegenerate(unique) {
		return ""
	}

	return strings.Join(unique, "\n")
}

func matchesDropPattern(line string) bool {
	for _, re := range dropLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// isRepeatedToken reports whether the line is a single token repeated more
// than repeatTokenLimit times, e.g. "奖牌 奖牌 奖牌 奖牌".
func isRepeatedToken(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) <= repeatTokenLimit {
		return false
	}
	first := tokens[0]
	for _, t := range tokens[1:] {
		if t != first {
			return false
		}
	}
	return true
}

// isDegenerate reports whether one token dominates the whole unit's output,
// which indicates the recognizer looped on a detail rather than reading text.
func isDegenerate(lines []string) bool {
	counts := make(map[string]int)
	total := 0
	for _, line := range lines {
		for _, t := range strings.Fields(line) {
			counts[t]++
			total++
		}
	}
	if total <= degenerateMinTokens {
		return false
	}
	for _, n := range counts {
		if float64(n) > degenerateTokenShare*float64(total) {
			return true
		}
	}
	return false
}
