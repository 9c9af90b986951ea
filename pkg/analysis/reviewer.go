package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/prompt"
	"oss-clearance-be/pkg/report"
)

const maxLicenseText = 6000

// Reviewer rates one license text.
type Reviewer interface {
	Review(ctx context.Context, lt report.LicenseText) (report.RiskAssessment, error)
}

// RuleReviewer classifies by keywords. It needs no model and backs the LLM
// reviewer when a reply cannot be used.
type RuleReviewer struct{}

func (RuleReviewer) Review(_ context.Context, lt report.LicenseText) (report.RiskAssessment, error) {
	title := strings.ToLower(lt.Title)
	t := title + "\n\n" + strings.ToLower(lt.Text)
	ra := report.RiskAssessment{LicenseTitle: lt.Title}
	// "mpl" alone matches "implied"
	weakCopyleft := strings.Contains(t, "cddl") || strings.Contains(t, "mozilla public license") ||
		strings.Contains(title, "mpl") || strings.Contains(t, "eclipse public license")

	switch {
	case strings.Contains(t, "agpl") || strings.Contains(t, "gpl v3") ||
		strings.Contains(t, "gnu general public license version 3"):
		ra.Level = report.RiskVeryHigh
		ra.Reason = "AGPL/GPLv3 nearly unlimited copyleft; not recommended for proprietary use."
	case strings.Contains(t, "lgpl") || strings.Contains(t, "lesser general public"):
		ra.Level = report.RiskMedium
		ra.Reason = "Limited copyleft; dynamic linking and relinking obligations apply."
	case strings.Contains(t, "gpl"):
		ra.Level = report.RiskHigh
		ra.Reason = "GPL is strong copyleft; not recommended unless compliance is confirmed."
	case weakCopyleft:
		ra.Level = report.RiskMedium
		ra.Reason = "Limited copyleft (MPL/CDDL/EPL); file level obligations apply."
	case strings.Contains(t, "bsd") || strings.Contains(t, "mit license") ||
		strings.Contains(title, "mit") || strings.Contains(t, "apache") ||
		strings.Contains(t, "public-domain") || strings.Contains(t, "cc0") || strings.Contains(t, "zlib"):
		ra.Level = report.RiskLow
		ra.Reason = "Permissive license; notice and attribution only."
	default:
		ra.Level = report.RiskMedium
		ra.Reason = "Unclassified or custom license, manual review required."
	}

	ra.SourceCodeRequired = strings.Contains(t, "gpl") || weakCopyleft
	ra.CredentialRequired = strings.Contains(t, "prior written permission") ||
		strings.Contains(t, "written consent")
	return ra, nil
}

// LLMReviewer asks the model for the rating and falls back to the rules
// when the reply is unusable.
type LLMReviewer struct {
	provider llm.LLMProvider
	catalog  *prompt.Catalog
	fallback Reviewer
	log      logger.ILogger
}

func NewLLMReviewer(provider llm.LLMProvider, catalog *prompt.Catalog, log logger.ILogger) *LLMReviewer {
	return &LLMReviewer{provider: provider, catalog: catalog, fallback: RuleReviewer{}, log: log}
}

type licenseReviewReply struct {
	Level              string `json:"level"`
	Reason             string `json:"reason"`
	CredentialOrNot    bool   `json:"credentialOrNot"`
	CredentialLicense  string `json:"credentialLicenseName"`
	SourceCodeRequired bool   `json:"sourceCodeRequired"`
}

func (r *LLMReviewer) Review(ctx context.Context, lt report.LicenseText) (report.RiskAssessment, error) {
	instructions, err := r.catalog.Get("analysis/LicenseReview")
	if err != nil {
		return report.RiskAssessment{}, err
	}
	text := lt.Text
	if len(text) > maxLicenseText {
		text = text[:maxLicenseText]
	}
	input := fmt.Sprintf("%s\n\nhere is title: %s, and here is the text: %s", instructions, lt.Title, text)

	reply, err := r.provider.Generate(ctx, input, llm.WithJSONMode(), llm.WithTemperature(0))
	if err != nil {
		if ctx.Err() != nil {
			return report.RiskAssessment{}, ctx.Err()
		}
		return r.fallbackReview(ctx, lt, err)
	}

	var parsed licenseReviewReply
	raw := llm.ExtractJSON(reply)
	if raw == "" {
		return r.fallbackReview(ctx, lt, fmt.Errorf("no JSON object in reply"))
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Level == "" {
		return r.fallbackReview(ctx, lt, fmt.Errorf("decode review: %v", err))
	}

	return report.RiskAssessment{
		LicenseTitle:       lt.Title,
		Level:              report.NormalizeRiskLevel(parsed.Level),
		Reason:             parsed.Reason,
		CredentialRequired: parsed.CredentialOrNot,
		CredentialLicense:  parsed.CredentialLicense,
		SourceCodeRequired: parsed.SourceCodeRequired,
	}, nil
}

func (r *LLMReviewer) fallbackReview(ctx context.Context, lt report.LicenseText, cause error) (report.RiskAssessment, error) {
	r.log.Warn("ANALYSIS", "License review fell back to rules", map[string]interface{}{
		"license": lt.Title,
		"error":   cause.Error(),
	})
	return r.fallback.Review(ctx, lt)
}
