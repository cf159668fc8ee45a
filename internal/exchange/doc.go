// Package exchange imports URL lists and exports queue items to txt, csv,
// json and yaml files.
package exchange
