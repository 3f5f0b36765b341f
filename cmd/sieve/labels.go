package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sieve/internal/asset"
)

var titleCaser = cases.Title(language.English)

// analysisTitle turns an analysis name into a heading: "audio_duplicates"
// becomes "Audio Duplicates".
func analysisTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

func formatBytes(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}

func groupLabel(group asset.GroupID) string {
	if group == "" {
		return "(none)"
	}
	return string(group)
}
