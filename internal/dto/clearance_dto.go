package dto

import "github.com/google/uuid"

type AnalyzeResponse struct {
	SessionId  uuid.UUID `json:"session_id"`
	Components []string  `json:"components"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
}

type ContractResponse struct {
	FilePath string `json:"file_path"`
	Status   string `json:"status"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type DownloadInfo struct {
	Available bool   `json:"available"`
	Url       string `json:"url"`
	FileName  string `json:"filename"`
}

type ChatSummary struct {
	Total     int `json:"total"`
	Passed    int `json:"passed"`
	Discarded int `json:"discarded"`
}

// ChatResponse is the reply of one turn. Components and Summary are only set
// once the session is completed.
type ChatResponse struct {
	Status              string        `json:"status"`
	Message             string        `json:"message"`
	CurrentComponentIdx *int          `json:"current_component_idx,omitempty"`
	Components          []string      `json:"components,omitempty"`
	Summary             *ChatSummary  `json:"summary,omitempty"`
	Download            *DownloadInfo `json:"download,omitempty"`
}

type ItemView struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type SessionResponse struct {
	Status              string                `json:"status"`
	CurrentComponentIdx int                   `json:"current_component_idx"`
	Components          []string              `json:"components"`
	Items               map[string][]ItemView `json:"items"`
}
