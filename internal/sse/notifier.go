package sse

import (
	"github.com/anillosguillen/catalog_api/internal/importer"
	"github.com/anillosguillen/catalog_api/internal/models"
)

// HubReporter forwards importer events to hub observers.
type HubReporter struct {
	hub *Hub
}

// NewHubReporter creates a reporter backed by the given Hub.
func NewHubReporter(hub *Hub) *HubReporter {
	return &HubReporter{hub: hub}
}

// Report implements importer.Reporter.
func (r *HubReporter) Report(e importer.Event) {
	if r.hub.ClientCount() == 0 {
		return
	}
	r.hub.Broadcast(LogMessage(e))
}

// Completed announces the end of a run.
func (r *HubReporter) Completed(summary *models.ImportSummary) {
	if r.hub.ClientCount() == 0 {
		return
	}
	r.hub.Broadcast(CompletedMessage(summary))
}

// LogMessage converts an importer event to its wire form.
func LogMessage(e importer.Event) *ImportMessage {
	t := e.Time
	return &ImportMessage{Log: e.Message, Level: string(e.Level), Time: &t}
}

// CompletedMessage is the terminal payload of a successful run.
func CompletedMessage(summary *models.ImportSummary) *ImportMessage {
	return &ImportMessage{Completed: true, Summary: summary}
}
