package dto

type ListSuggestionsResponse struct {
	SessionId   string           `json:"session_id"`
	Suggestions []SuggestionItem `json:"suggestions"`
}

type ApplySuggestionRequest struct {
	SessionId    string `json:"session_id" validate:"required"`
	SuggestionId string `json:"suggestion_id" validate:"required"`
}

// ApplySuggestionResponse reports the outcome of one apply attempt.
// Applied false with AnchorFound false means the document text drifted
// away from the suggestion; the client should refresh the batch.
type ApplySuggestionResponse struct {
	SuggestionId string `json:"suggestion_id"`
	Applied      bool   `json:"applied"`
	AnchorFound  bool   `json:"anchor_found"`
	From         int    `json:"from,omitempty"`
	To           int    `json:"to,omitempty"`
	Content      string `json:"content,omitempty"` // Updated Lexical JSON after the edit
}

type HighlightSuggestionRequest struct {
	SessionId    string `json:"session_id" validate:"required"`
	SuggestionId string `json:"suggestion_id" validate:"required"`
}

type HighlightSuggestionResponse struct {
	SuggestionId string               `json:"suggestion_id"`
	AnchorFound  bool                 `json:"anchor_found"`
	Highlight    *ActiveHighlightItem `json:"highlight,omitempty"`
}

type DismissSuggestionRequest struct {
	SessionId    string `json:"session_id" validate:"required"`
	SuggestionId string `json:"suggestion_id" validate:"required"`
}

type DismissSuggestionResponse struct {
	SuggestionId string `json:"suggestion_id"`
	Dismissed    bool   `json:"dismissed"`
}

type ClearHighlightRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}
