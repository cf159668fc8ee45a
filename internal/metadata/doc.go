package metadata

// Package metadata resolves what a URL points to before it is queued: a
// single video or the entries of a playlist. Lookups run the downloader in
// JSON mode on a bounded pool so adding many URLs never blocks the UI or the
// download slots.
