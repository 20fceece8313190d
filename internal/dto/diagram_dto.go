package dto

type AcceptDiagramsRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

// DiagramPlacement reports where one insertion landed. ExactMatch false
// means the anchor text was not found and the diagram fell back to the
// cursor position.
type DiagramPlacement struct {
	Title      string `json:"title,omitempty"`
	Inserted   bool   `json:"inserted"`
	ExactMatch bool   `json:"exact_match"`
	At         int    `json:"at"`
}

type AcceptDiagramsResponse struct {
	SessionId  string             `json:"session_id"`
	Placements []DiagramPlacement `json:"placements"`
	Content    string             `json:"content"` // Updated Lexical JSON after all insertions
}
