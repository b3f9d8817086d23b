package types

// Message is one turn of a conversation, oldest first. The last message in
// a transcript is the active question.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Segment is one retrievable span of document text. Segments are keyed
// "<sessionID>-<position>" and never mutated after indexing.
type Segment struct {
	ID        string
	SessionID string
	Position  int
	Content   string
	Embedding []float32
}

// Match is a segment returned by a similarity search, highest score first.
type Match struct {
	ID        string
	SessionID string
	Position  int
	Content   string
	Score     float64
}

// Lead holds the structured fields extracted from a document.
type Lead struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Summary string `json:"summary"`
}

// ForwardResult reports what happened to an extracted lead.
type ForwardResult struct {
	Status string `json:"status"`
	LeadID string `json:"lead_id,omitempty"`
	Link   string `json:"link,omitempty"`
}

const (
	ForwardCreated   = "created"
	ForwardDuplicate = "duplicate"
	ForwardSkipped   = "skipped"
)

type UploadResponse struct {
	Message    string         `json:"message"`
	Complete   bool           `json:"complete,omitempty"`
	Indexed    int            `json:"indexed,omitempty"`
	Failed     int            `json:"failed,omitempty"`
	Extraction *Lead          `json:"extraction,omitempty"`
	Lead       *ForwardResult `json:"lead,omitempty"`
}

type StatusResponse struct {
	Ready bool `json:"ready"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Source struct {
	ID        string  `json:"id"`
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"score"`
}
