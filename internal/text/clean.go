package text

import (
	"regexp"
	"strings"
)

var (
	// Caption tracks carry sound annotations like [Music] or (Applause)
	// that add nothing to a summary prompt.
	bracketRe = regexp.MustCompile(`\[[^\]]*\]`)
	parenRe   = regexp.MustCompile(`\([^)]*\)`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
)

// CleanTranscript normalizes raw caption text: strips markup tags and
// sound annotations, then collapses all whitespace runs to single spaces.
func CleanTranscript(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = bracketRe.ReplaceAllString(s, "")
	s = parenRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max bytes, appending a marker when anything
// was dropped. Cuts on a space where possible so words stay intact.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return cut + "... [truncated]"
}

// JoinSegments merges caption segments into one cleaned transcript,
// dropping exact repeats, which auto-generated tracks produce constantly.
func JoinSegments(segments []string) string {
	var parts []string
	var last string
	for _, seg := range segments {
		seg = CleanTranscript(seg)
		if seg == "" || seg == last {
			continue
		}
		parts = append(parts, seg)
		last = seg
	}
	return strings.Join(parts, " ")
}
