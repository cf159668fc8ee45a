// Package download implements the download pipeline built on top of the yt-dlp
// executable. A Worker drives one child process and reports what it sees as
// Events; the Scheduler owns the queue, enforces the concurrency ceiling and
// applies those events on the UI goroutine.
package download
