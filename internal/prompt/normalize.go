package prompt

import (
	"slices"
	"strings"
)

// MinRepeatRun is the shortest run that Normalize collapses when it is
// immediately repeated.
const MinRepeatRun = 50

// Sequence-boundary markers some providers leak into completions.
var sentinelTokens = []string{
	"<|begin▁of▁sentence|>",
	"<|end▁of▁sentence|>",
	"<|begin_of_text|>",
	"<|end_of_text|>",
	"<｜begin▁of▁sentence｜>",
	"<｜end▁of▁sentence｜>",
}

var sentinelReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(sentinelTokens))
	for _, t := range sentinelTokens {
		pairs = append(pairs, t, "")
	}
	return strings.NewReplacer(pairs...)
}()

// Normalize strips sentinel tokens, collapses immediately repeated runs and
// trims surrounding whitespace. It is applied until the text stops changing,
// so Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	for {
		next := strings.TrimSpace(CollapseRepeats(sentinelReplacer.Replace(text), MinRepeatRun))
		if next == text {
			return next
		}
		text = next
	}
}

// CollapseRepeats scans s left to right. At each position it looks for the
// shortest unit of at least minLen characters that is immediately followed
// by a copy of itself, and replaces the unit and all of its consecutive
// copies with a single unit. Units never span a line break.
func CollapseRepeats(s string, minLen int) string {
	if minLen < 1 || len(s) < 2*minLen {
		return s
	}
	r := []rune(s)
	out := make([]rune, 0, len(r))

	lineEnd := -1
	for i := 0; i < len(r); {
		if i > lineEnd {
			lineEnd = nextBreak(r, i)
		}
		unit := repeatUnit(r[i:lineEnd], minLen)
		if unit == 0 {
			out = append(out, r[i])
			i++
			continue
		}
		out = append(out, r[i:i+unit]...)
		j := i + 2*unit
		for j+unit <= lineEnd && slices.Equal(r[i:i+unit], r[j:j+unit]) {
			j += unit
		}
		i = j
	}
	return string(out)
}

// repeatUnit returns the length of the shortest prefix of line, at least
// minLen long, that is immediately repeated, or 0.
func repeatUnit(line []rune, minLen int) int {
	for n := minLen; 2*n <= len(line); n++ {
		if slices.Equal(line[:n], line[n:2*n]) {
			return n
		}
	}
	return 0
}

func nextBreak(r []rune, from int) int {
	for i := from; i < len(r); i++ {
		if isLineBreak(r[i]) {
			return i
		}
	}
	return len(r)
}

func isLineBreak(c rune) bool {
	return c == '\n' || c == '\r' || c == '\u2028' || c == '\u2029'
}
