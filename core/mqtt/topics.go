package mqtt

import (
	"fmt"
	"strings"
)

// Default topic layout.
const (
	DefaultSignalTopic   = "dr/cohort/%s/signal"
	DefaultAckTopic      = "dr/ack"
	DefaultResponseTopic = "dr/response"
)

// SignalTopic expands a topic pattern with the cohort id. A pattern without a
// %s verb gets the cohort id appended as the last level.
func SignalTopic(pattern, cohortID string) string {
	if pattern == "" {
		pattern = DefaultSignalTopic
	}
	if !strings.Contains(pattern, "%s") {
		return strings.TrimSuffix(pattern, "/") + "/" + cohortID
	}
	return fmt.Sprintf(pattern, cohortID)
}
