package store

// Package store persists the settings and queue documents as indented JSON.
// Saves go through a temp file and a transient .bak copy so a failed write
// never loses the previous document, and an exclusive lock on the data
// directory keeps a second instance from writing the same files.
