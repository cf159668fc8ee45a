package model

// Package model defines the domain data shared across the app: queue items,
// their statuses and download options, the settings document, progress
// records and probe results. Structures carry JSON tags because queue items
// and settings are persisted as-is.
