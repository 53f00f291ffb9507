package concrnt

// Commit is the envelope posted to the commit endpoint.
type Commit struct {
	Document  string `json:"document"`
	Signature string `json:"signature"`
	Option    string `json:"option,omitempty"`
}

// CommitOption carries auxiliary instructions for a commit.
type CommitOption struct {
	Info string `json:"info,omitempty"`
}

type Response[T any] struct {
	Status  string `json:"status"`
	Content T      `json:"content"`
	Error   string `json:"error,omitempty"`
}

// TimelineItem is one entry returned by the recent timeline query.
type TimelineItem struct {
	ResourceID string  `json:"resourceID"`
	TimelineID string  `json:"timelineID"`
	Owner      string  `json:"owner"`
	Author     *string `json:"author,omitempty"`
	CDate      string  `json:"cdate,omitempty"`
}

// ListenRequest is the control frame sent over the realtime socket.
type ListenRequest struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

// Event is a frame pushed by the server over the realtime socket.
type Event struct {
	Timeline  string        `json:"timeline"`
	Item      *TimelineItem `json:"item,omitempty"`
	Document  string        `json:"document,omitempty"`
	Signature string        `json:"signature,omitempty"`
	Resource  any           `json:"resource,omitempty"`
}
