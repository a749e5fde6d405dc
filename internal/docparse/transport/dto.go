package transport

// ParseResponse is the structured extraction of an uploaded document.
type ParseResponse struct {
	DocumentType  string                 `json:"documentType"`
	Metadata      map[string]interface{} `json:"metadata"`
	KeyParameters map[string]interface{} `json:"keyParameters"`
	Summary       string                 `json:"summary"`
	Raw           map[string]interface{} `json:"raw"`
	Provider      string                 `json:"provider"`
	ArchiveKey    string                 `json:"archiveKey,omitempty"`
}

// PromptResponse exposes the fixed extraction prompt.
type PromptResponse struct {
	Prompt    string   `json:"prompt"`
	Providers []string `json:"providers"`
}
