package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadEntries reads back every entry in an agent's JSONL file, in file
// order. Used by tests and by the invariant checks below; never by the
// write path, which only ever appends.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode audit entry in %s: %w", path, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log %s: %w", path, err)
	}
	return entries, nil
}

// CheckResponsePrecededByQuery verifies §8's "every response_generated has
// a matching earlier query_received with the same session_id" invariant
// over a single agent's entry stream.
func CheckResponsePrecededByQuery(entries []Entry) error {
	seenSessions := make(map[string]bool)
	for _, e := range entries {
		switch e.ActionType {
		case ActionQueryReceived:
			seenSessions[e.SessionID] = true
		case ActionResponseGenerated:
			if !seenSessions[e.SessionID] {
				return fmt.Errorf("response_generated for session %q with no preceding query_received", e.SessionID)
			}
		}
	}
	return nil
}

// CheckFailedValidationPrecededByCheck verifies §4.5's "every
// response_generated with validation_passed=false is preceded by a
// validation_check or grounding_check with passed=false" invariant.
func CheckFailedValidationPrecededByCheck(entries []Entry) error {
	failedCheckSeen := make(map[string]bool)
	for _, e := range entries {
		switch e.ActionType {
		case ActionValidationCheck, ActionGroundingCheck:
			if passed, ok := e.Payload["passed"].(bool); ok && !passed {
				failedCheckSeen[e.SessionID] = true
			}
		case ActionResponseGenerated:
			if passed, ok := e.Payload["validation_passed"].(bool); ok && !passed {
				if !failedCheckSeen[e.SessionID] {
					return fmt.Errorf(
						"response_generated for session %q has validation_passed=false with no preceding failed check", e.SessionID)
				}
			}
		}
	}
	return nil
}
