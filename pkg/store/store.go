// Package store defines the per-session document every workflow handler
// reads and writes.
package store

import (
	"oss-clearance-be/pkg/report"
)

// OEM approval states recorded by the OEM phase.
const (
	OEMApproved = "approved"
	OEMRejected = "rejected"
	OEMPending  = "pending"
)

// Artifact keys.
const (
	ArtifactProductOverview        = "generated_product_overview"
	ArtifactComponentOverview      = "generated_component_overview"
	ArtifactCommonRules            = "generated_common_rules"
	ArtifactObligations            = "generated_obligations"
	ArtifactSpecialConsiderations  = "generated_special_considerations"
	ArtifactProductClearanceReport = "product_clearance_report"
)

// Store is owned by exactly one session.
type Store struct {
	Lists          map[string][]Item `json:"lists"`
	Cursors        map[string]int    `json:"cursors"`
	ProcessingType string            `json:"processing_type"`
	Artifacts      map[string]string `json:"artifacts"`

	OEMApproval  string `json:"is_oem_approved"`
	AllConfirmed bool   `json:"all_confirmed"`
	Status       string `json:"status"`

	Document     *report.Document        `json:"parsed_html,omitempty"`
	RiskAnalysis []report.RiskAssessment `json:"risk_analysis,omitempty"`
	DownloadURL  string                  `json:"download_url,omitempty"`
	ContractPath string                  `json:"contract_path,omitempty"`
}

func New() *Store {
	return &Store{
		Lists:       make(map[string][]Item),
		Cursors:     make(map[string]int),
		Artifacts:   make(map[string]string),
		OEMApproval: OEMPending,
	}
}

func (s *Store) List(key string) []Item {
	return s.Lists[key]
}

func (s *Store) SetList(key string, items []Item) {
	if s.Lists == nil {
		s.Lists = make(map[string][]Item)
	}
	s.Lists[key] = items
}

func (s *Store) Cursor(key string) int {
	return s.Cursors[key]
}

func (s *Store) SetCursor(key string, idx int) {
	if s.Cursors == nil {
		s.Cursors = make(map[string]int)
	}
	s.Cursors[key] = idx
}

func (s *Store) Artifact(key string) string {
	return s.Artifacts[key]
}

func (s *Store) SetArtifact(key, value string) {
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]string)
	}
	s.Artifacts[key] = value
}

// RiskFor returns the review for a license title, matching case-insensitively
// on the normalized name.
func (s *Store) RiskFor(title string) (report.RiskAssessment, bool) {
	want := normalizeKey(title)
	for _, r := range s.RiskAnalysis {
		if normalizeKey(r.LicenseTitle) == want {
			return r, true
		}
	}
	return report.RiskAssessment{}, false
}

// Clone deep-copies the store so a turn can run tentatively.
func (s *Store) Clone() *Store {
	out := &Store{
		Lists:          make(map[string][]Item, len(s.Lists)),
		Cursors:        make(map[string]int, len(s.Cursors)),
		ProcessingType: s.ProcessingType,
		Artifacts:      make(map[string]string, len(s.Artifacts)),
		OEMApproval:    s.OEMApproval,
		AllConfirmed:   s.AllConfirmed,
		Status:         s.Status,
		Document:       s.Document.Clone(),
		RiskAnalysis:   append([]report.RiskAssessment(nil), s.RiskAnalysis...),
		DownloadURL:    s.DownloadURL,
		ContractPath:   s.ContractPath,
	}
	for k, list := range s.Lists {
		items := make([]Item, len(list))
		for i, it := range list {
			items[i] = it.Clone()
		}
		out.Lists[k] = items
	}
	for k, v := range s.Cursors {
		out.Cursors[k] = v
	}
	for k, v := range s.Artifacts {
		out.Artifacts[k] = v
	}
	return out
}
