package model

// DefaultTopK is the number of chunks requested when the caller does not say otherwise.
const DefaultTopK = 4

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// NewAskRequest builds a request with the default top_k.
func NewAskRequest(question string) AskRequest {
	return AskRequest{Question: question, TopK: DefaultTopK}
}

type ChunkMetadata struct {
	DocID    string `json:"doc_id"`
	PageNum  int    `json:"page_num"`
	ChunkIdx int    `json:"chunk_idx"`
}

// RetrievedChunk is one source excerpt cited by the backend.
type RetrievedChunk struct {
	ID          string        `json:"id"`
	TextPreview string        `json:"text_preview"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// AskResponse holds the answer and its chunks in relevance order.
type AskResponse struct {
	Answer string           `json:"answer"`
	Chunks []RetrievedChunk `json:"chunks"`
}

// BackendHealth is what the backend reports on GET /health.
type BackendHealth struct {
	Status     string `json:"status"`
	Collection string `json:"collection,omitempty"`
	LLMModel   string `json:"llm_model,omitempty"`
}
