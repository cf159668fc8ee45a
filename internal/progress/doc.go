package progress

// Package progress turns downloader output lines into progress records and
// tracks the destination file announced by the downloader and its
// postprocessors.
