// Package model defines the core domain types used throughout the application.
package model

import "time"

// IncomingMessage is a single notification as delivered by the message
// source. It is never mutated by the pipeline.
type IncomingMessage struct {
	Body            string `json:"body"`
	Sender          string `json:"sender"`
	DeviceTimestamp int64  `json:"device_timestamp"` // epoch milliseconds
}

// ReceivedAt converts the device timestamp to a UTC time.Time.
func (m IncomingMessage) ReceivedAt() time.Time {
	return time.UnixMilli(m.DeviceTimestamp).UTC()
}
