package storage

// Durable keys, named after the browser local-storage keys the web client
// has always used so exported data stays compatible.
const (
	KeyAPIBase = "apiBase"
	KeyHistory = "history"
)
