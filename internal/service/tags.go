package service

import (
	"bitwise74/file-catalog/pkg/apperr"
	"slices"
	"strings"
)

const MaxTags = 5

// NormalizeTags validates the tags of an upload and returns them lowercased,
// deduplicated and sorted. The limit applies to the distinct tags as sent,
// before case folding merges any of them.
func NormalizeTags(tags []string) ([]string, error) {
	raw := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		if strings.Contains(t, ",") {
			return nil, apperr.E(apperr.KindValidation, "upload", "tags can't contain commas")
		}

		raw[t] = struct{}{}
	}

	if len(raw) > MaxTags {
		return nil, apperr.E(apperr.KindValidation, "upload", "too many tags")
	}

	normalized := make([]string, 0, len(raw))
	for t := range raw {
		t = NormalizeTag(t)
		if !slices.Contains(normalized, t) {
			normalized = append(normalized, t)
		}
	}

	slices.Sort(normalized)
	return normalized, nil
}

// NormalizeTag is the form tags are stored and matched in.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
