package logging

// Package logging builds the slog logger used by every component: a tint
// console handler on stderr, an optional JSON file handler, and a sampler that
// keeps per-download progress logs readable.
