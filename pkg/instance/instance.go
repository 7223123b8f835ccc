package instance

import (
	"fmt"
	"os"
)

// GetID returns the worker instance identifier used in publisher logs and
// consumer names. KUKUMART_WORKER_ID wins, then the hostname.
func GetID() string {
	if id := os.Getenv("KUKUMART_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return fmt.Sprintf("worker-%s", host)
	}
	return "worker-0"
}
