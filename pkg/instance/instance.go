// Package instance names the running process in logs.
package instance

import "os"

const fallbackID = "fulfillment-0"

// ID returns FULFILLMENT_INSTANCE_ID, else the hostname, else a fixed default.
func ID() string {
	if id := os.Getenv("FULFILLMENT_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
