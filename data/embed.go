// Package data embeds the default reference corpus.
package data

import "embed"

// Corpus holds meds/*.json, guidelines/*.md and criteria/*.json.
//
//go:embed meds guidelines criteria
var Corpus embed.FS
