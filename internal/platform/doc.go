package platform

// Package platform contains OS integration: the downloads directory, open and
// reveal in the file manager, output file naming and partial-file cleanup, and
// process-group control for child processes.
