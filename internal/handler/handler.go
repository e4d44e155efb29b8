// Package handler provides HTTP request handlers for the users API.
package handler

import "github.com/vyrodovalexey/useradmin/internal/model"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// EventPublisher receives a change event after every successful mutation.
type EventPublisher interface {
	Publish(event model.ChangeEvent)
}
