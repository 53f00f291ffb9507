package schemas

const (
	ProfileURL      string = "https://schema.concrnt.world/p/main.json"
	TimelineURL     string = "https://schema.concrnt.world/t/empty.json"
	MarkdownURL     string = "https://schema.concrnt.world/m/markdown.json"
	LikeURL         string = "https://schema.concrnt.world/a/like.json"
	InlineReadWrite string = "https://policy.concrnt.world/t/inline-read-write.json"
)

const (
	ProfileSemanticID      = "world.concrnt.p"
	HomeTimelineSemanticID = "world.concrnt.t-home"
)

type Profile struct {
	Username string `json:"username,omitempty"`
}

type Markdown struct {
	Body string `json:"body"`
}

type Empty struct{}

// InlineReadWriteParams is the parameter object of the inline-read-write policy.
type InlineReadWriteParams struct {
	IsWritePublic bool     `json:"isWritePublic"`
	IsReadPublic  bool     `json:"isReadPublic"`
	Writer        []string `json:"writer"`
	Reader        []string `json:"reader"`
}
