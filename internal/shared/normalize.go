package shared

import (
	"regexp"
	"strings"

	"github.com/desertthunder/tracklink/internal/models"
)

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	bracketSegments = regexp.MustCompile(`[(\[][^)\]]*[)\]]`)
)

// noiseSuffixes are trailing video-title decorations that carry no signal
// for matching a YouTube title against a studio track.
var noiseSuffixes = []string{
	"official video", "official music video", "official audio",
	"official lyric video", "lyric video", "lyrics", "audio",
	"visualizer", "hd", "4k", "hq",
}

// Normalize canonicalizes free-form track metadata into a stable string
// used for embedding input and cache keys. Lower-cases, strips characters
// outside [a-z0-9\s-], collapses whitespace runs, and trims. Pure and
// total: any input, including the empty string, yields a result.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = disallowedChars.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeTrack assembles a track's metadata as
// "{title} - {artist} ({album}) genres {g1} {g2}..." omitting absent
// parts, then normalizes the whole.
func NormalizeTrack(t models.Track) string {
	var b strings.Builder
	b.WriteString(t.Title)

	if t.Artist != "" {
		b.WriteString(" - ")
		b.WriteString(t.Artist)
	}
	if t.Album != "" {
		b.WriteString(" (")
		b.WriteString(t.Album)
		b.WriteString(")")
	}
	if len(t.Genres) > 0 {
		b.WriteString(" genres ")
		b.WriteString(strings.Join(t.Genres, " "))
	}

	return Normalize(b.String())
}

// NormalizeTrackKey creates a stable comparison key from a track's title
// and artist, used for playlist diffing.
func NormalizeTrackKey(title, artist string) string {
	normalize := func(s string) string {
		return strings.TrimSpace(whitespaceRuns.ReplaceAllString(strings.ToLower(s), " "))
	}
	return normalize(title) + "|" + normalize(artist)
}

// CleanVideoTitle strips bracketed segments and trailing noise suffixes
// from a video title so it can serve as a lexical search query against a
// track catalog. "Hey Jude (Official Audio) [HD]" becomes "Hey Jude".
func CleanVideoTitle(title string) string {
	title = bracketSegments.ReplaceAllString(title, " ")
	title = whitespaceRuns.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	lowered := strings.ToLower(title)
	for _, suffix := range noiseSuffixes {
		if strings.HasSuffix(lowered, suffix) {
			title = strings.TrimSpace(title[:len(title)-len(suffix)])
			lowered = strings.ToLower(title)
		}
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), "-"))
}
