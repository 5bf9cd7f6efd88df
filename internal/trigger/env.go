package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// GitHub Actions event names that start a release.
const (
	EventPush             = "push"
	EventWorkflowDispatch = "workflow_dispatch"
)

// ErrNoEvent indicates that no trigger could be detected from the environment.
var ErrNoEvent = errors.New("GITHUB_EVENT_NAME is not set")

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

// FromEnv detects the trigger event from a GitHub Actions runner environment.
//
// A "push" event becomes a [TagPush] with GITHUB_REF. A "workflow_dispatch"
// event becomes a [ManualDispatch] whose version is INPUT_VERSION taken
// verbatim, or else the inputs.version field of the payload at
// GITHUB_EVENT_PATH, or else [DefaultManualVersion]. Other events return [ErrUnknownTrigger].
func FromEnv(getenv Getenv) (Event, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	name := strings.TrimSpace(getenv("GITHUB_EVENT_NAME"))
	switch name {
	case "":
		return nil, ErrNoEvent

	case EventPush:
		ref := strings.TrimSpace(getenv("GITHUB_REF"))
		if ref == "" {
			if payload := readPayload(getenv); payload != nil {
				ref = payload.Ref
			}
		}
		if ref == "" {
			return nil, fmt.Errorf("push event without GITHUB_REF")
		}
		return TagPush{Ref: ref}, nil

	case EventWorkflowDispatch:
		version := getenv("INPUT_VERSION")
		if version == "" {
			if payload := readPayload(getenv); payload != nil {
				version = payload.Inputs.Version
			}
		}
		return NewManualDispatch(version), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, name)
	}
}

type eventPayload struct {
	Ref    string `json:"ref"`
	Inputs struct {
		Version string `json:"version"`
	} `json:"inputs"`
}

// readPayload decodes the webhook payload. A missing or malformed payload is
// treated as absent.
func readPayload(getenv Getenv) *eventPayload {
	path := strings.TrimSpace(getenv("GITHUB_EVENT_PATH"))
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	return &payload
}
