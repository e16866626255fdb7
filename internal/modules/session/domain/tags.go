package domain

import "strings"

// ExtractTags returns the normalised tags of a "#a #b" string, without the
// leading '#'. Tokens that do not start with '#' are ignored.
func ExtractTags(hashtags string) []string {
	var tags []string
	for _, tok := range strings.Fields(hashtags) {
		if !strings.HasPrefix(tok, "#") {
			continue
		}
		if tag := NormalizeTag(strings.TrimPrefix(tok, "#")); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeTag trims, collapses inner whitespace and lower-cases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.Join(strings.Fields(tag), " "))
}

// TagFrequency counts every tag occurrence across sessions.
func TagFrequency(sessions []Session) map[string]int {
	freq := map[string]int{}
	for _, s := range sessions {
		for _, tag := range ExtractTags(s.Hashtags) {
			freq[tag]++
		}
	}
	return freq
}
