// Package ui contains the Fyne desktop interface. It renders the download
// queue and the completed list, forwards user actions to the scheduler and
// re-renders when the event bridge reports applied changes. Every function
// here runs on the Fyne UI goroutine unless noted. All strings are localized
// via Localization.
package ui
