package enum

import "fmt"

// RequestType represents the kind of user-generated content event being moderated.
type RequestType int

const (
	RequestTypeMessage RequestType = iota
	RequestTypeUserJoin
	RequestTypeTransaction
	RequestTypeUpload
	RequestTypeProfileUpdate
)

var requestTypeNames = map[RequestType]string{
	RequestTypeMessage:       "message",
	RequestTypeUserJoin:      "user_join",
	RequestTypeTransaction:   "transaction",
	RequestTypeUpload:        "upload",
	RequestTypeProfileUpdate: "profile_update",
}

func (r RequestType) String() string {
	if name, ok := requestTypeNames[r]; ok {
		return name
	}

	return "unknown"
}

// ParseRequestType converts a wire name back into a RequestType.
func ParseRequestType(name string) (RequestType, error) {
	for t, n := range requestTypeNames {
		if n == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("invalid request type %q", name) //nolint:err113 // caller wraps
}

// Priority represents the queue processing lane for a moderation request.
// It is independent of the risk level the request eventually receives.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}

	return "unknown"
}

// ParsePriority converts a wire name back into a Priority.
func ParsePriority(name string) (Priority, error) {
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}

	return 0, fmt.Errorf("invalid priority %q", name) //nolint:err113 // caller wraps
}

// PrioritiesByRank returns all priority lanes in drain order,
// highest priority first.
func PrioritiesByRank() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}
