package spacetraveling

import "embed"

// EmbeddedAssets contains the page script shipped with the site: load-more
// batching and fallback hydration.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
