package dto

type CompletionRequest struct {
	Prompt string `json:"prompt"`
	UserID string `json:"userId,omitempty"`
}

type CompletionResponse struct {
	Text string `json:"text"`
}
