package reminder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument marks empty dedupe-key inputs.
var ErrInvalidArgument = errors.New("invalid argument")

// DedupeKey derives the stable identity of a reminder for one calendar day:
// "<jobId>:<localDateKey>".
//
// The same logical reminder re-resolved later (recomputed upstream data, an
// ambiguous local time) must map to the same key so a downstream store can
// deduplicate per day.
func DedupeKey(jobID, localDateKey string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	localDateKey = strings.TrimSpace(localDateKey)
	if jobID == "" {
		return "", fmt.Errorf("%w: empty job id", ErrInvalidArgument)
	}
	if localDateKey == "" {
		return "", fmt.Errorf("%w: empty local date key", ErrInvalidArgument)
	}
	return jobID + ":" + localDateKey, nil
}
