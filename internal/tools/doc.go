package tools

// Package tools locates the external downloader (yt-dlp) and converter
// (ffmpeg): explicit overrides first, then PATH, then the application's own
// install directory, optionally fetching missing binaries into it. Resolved
// paths and versions are cached for the session.
