package dto

// GenerateRequest asks for one AI content generation operation
type GenerateRequest struct {
	Operation string            `json:"operation" binding:"required"`
	EventID   string            `json:"event_id"`
	Prompt    string            `json:"prompt" binding:"max=4000"`
	Params    map[string]string `json:"params"`
}

// Validate validates the GenerateRequest
func (r *GenerateRequest) Validate() (bool, string) {
	if r.Operation == "" {
		return false, "Operation is required"
	}
	if len(r.Prompt) > 4000 {
		return false, "Prompt must not exceed 4000 characters"
	}
	return true, ""
}

// GenerateResponse carries the generated content and the resulting balance
type GenerateResponse struct {
	Operation        string `json:"operation"`
	Content          string `json:"content"`
	CreditsCharged   int    `json:"credits_charged"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// OperationInfo describes one catalog entry
type OperationInfo struct {
	Operation   string `json:"operation"`
	Cost        int    `json:"cost"`
	MinimumPlan string `json:"minimum_plan"`
	Available   bool   `json:"available"`
}

// OperationListResponse lists the generation catalog for the caller's plan
type OperationListResponse struct {
	Plan       string          `json:"plan"`
	Operations []OperationInfo `json:"operations"`
}
