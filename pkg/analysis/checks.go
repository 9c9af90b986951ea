package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/prompt"
	"oss-clearance-be/pkg/readme"
	"oss-clearance-be/pkg/report"
	"oss-clearance-be/pkg/retrieval"
	"oss-clearance-be/pkg/store"
)

const (
	maxBlockHTML    = 8000
	retrievalLimit  = 5
	noDependencyMsg = "No dependency detected."
)

// SpecialCategory classifies copyleft families that need a dedicated
// compliance check. It returns "" for every other license.
func SpecialCategory(title string) string {
	switch {
	case strings.Contains(title, "GPLv3") || strings.Contains(title, "LGPLv3"):
		return "GPLv3, LGPLv3"
	case strings.Contains(title, "GPL") && strings.Contains(title, "Exception"):
		return "GPL with Exception"
	case strings.Contains(title, "LGPL"):
		return "GPL, LGPL"
	case strings.Contains(title, "GPL"):
		return "GPL"
	}
	return ""
}

// CollectSpecial lists the license texts that fall into a special category.
func CollectSpecial(doc *report.Document) []store.Item {
	var out []store.Item
	for _, lt := range doc.LicenseTexts {
		if category := SpecialCategory(lt.Title); category != "" {
			out = append(out, store.Item{"licName": lt.Title, "category": category})
		}
	}
	return out
}

// MainLicenseItems lists the releases declaring more than one distinct
// license; the reviewer picks the one that governs the component.
func MainLicenseItems(doc *report.Document) []store.Item {
	var out []store.Item
	for _, rel := range doc.Releases {
		names := distinctLicenses(rel.LicenseNames)
		if len(names) < 2 {
			continue
		}
		out = append(out, store.Item{
			"compName":    rel.Name,
			"compHtml":    rel.BlockHTML,
			"licenseList": names,
		})
	}
	return out
}

func distinctLicenses(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, n := range raw {
		name := readme.NormalizeName(n)
		if name == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(name)]; ok {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		out = append(out, name)
	}
	return out
}

// CredentialItems lists the releases carrying at least one license whose
// review asks for a credential. Licenses are matched on their normalized
// title or on the license name the reviewer reported.
func CredentialItems(doc *report.Document, risks []report.RiskAssessment) []store.Item {
	required := make(map[string]struct{})
	for _, r := range risks {
		if !r.CredentialRequired {
			continue
		}
		required[strings.ToLower(readme.NormalizeName(r.LicenseTitle))] = struct{}{}
		if alt := strings.TrimSpace(r.CredentialLicense); alt != "" {
			required[strings.ToLower(alt)] = struct{}{}
		}
	}
	if len(required) == 0 {
		return nil
	}

	var out []store.Item
	for _, rel := range doc.Releases {
		for _, l := range rel.LicenseNames {
			if _, ok := required[strings.ToLower(readme.NormalizeName(l))]; ok {
				out = append(out, store.Item{"compName": rel.Name, "blockHtml": rel.BlockHTML})
				break
			}
		}
	}
	return out
}

// ProductComponents is the component list walked by the report chapters.
func ProductComponents(doc *report.Document) []store.Item {
	out := make([]store.Item, 0, len(doc.Components))
	for _, c := range doc.Components {
		out = append(out, store.Item{
			"compName": c.Name,
			"licenses": append([]string(nil), c.Licenses...),
		})
	}
	return out
}

// checker holds what the retrieval-grounded checks share.
type checker struct {
	provider  llm.LLMProvider
	catalog   *prompt.Catalog
	retriever retrieval.Retriever
	log       logger.ILogger
}

func (c checker) reference(ctx context.Context, query string) string {
	passages, err := c.retriever.Search(ctx, query, retrievalLimit)
	if err != nil {
		c.log.Warn("ANALYSIS", "Reference lookup failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return retrieval.Context(nil)
	}
	return retrieval.Context(passages)
}

// ask runs a JSON prompt and decodes the reply into out.
func (c checker) ask(ctx context.Context, name, body string, out any) error {
	instructions, err := c.catalog.Get(name)
	if err != nil {
		return err
	}
	reply, err := c.provider.Generate(ctx, instructions+"\n\n"+body, llm.WithJSONMode(), llm.WithTemperature(0))
	if err != nil {
		return err
	}
	raw := llm.ExtractJSON(reply)
	if raw == "" {
		return fmt.Errorf("%s: no JSON object in reply", name)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", name, err)
	}
	return nil
}

// RiskChecker has a second reviewer validate the first review against the
// reference notes. The result feeds the COMPLIANCE phase.
type RiskChecker struct {
	checker
}

func NewRiskChecker(provider llm.LLMProvider, catalog *prompt.Catalog, retriever retrieval.Retriever, log logger.ILogger) *RiskChecker {
	return &RiskChecker{checker{provider: provider, catalog: catalog, retriever: retriever, log: log}}
}

type riskCheckReply struct {
	CheckedLevel  string `json:"CheckedLevel"`
	Justification string `json:"Justification"`
}

// Check returns the checkedRisk item for one license. When the model is
// unavailable or its reply is unusable the original review is kept.
func (c *RiskChecker) Check(ctx context.Context, lt report.LicenseText, ra report.RiskAssessment) (store.Item, error) {
	item := store.Item{
		"title":         lt.Title,
		"originalLevel": ra.Level,
		"CheckedLevel":  ra.Level,
		"Justification": ra.Reason,
	}
	if c.provider == nil {
		return item, nil
	}

	text := lt.Text
	if len(text) > maxLicenseText {
		text = text[:maxLicenseText]
	}
	body := fmt.Sprintf("License title: %s\nLicense text:\n%s\n\nPrevious level: %s\nPrevious reason: %s\n\nReference context:\n%s",
		lt.Title, text, ra.Level, ra.Reason, c.reference(ctx, lt.Title))

	var reply riskCheckReply
	if err := c.ask(ctx, "analysis/RiskCheck", body, &reply); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn("ANALYSIS", "Risk check kept the original review", map[string]interface{}{
			"license": lt.Title,
			"error":   err.Error(),
		})
		return item, nil
	}
	if reply.CheckedLevel != "" {
		item["CheckedLevel"] = report.NormalizeRiskLevel(reply.CheckedLevel)
	}
	if reply.Justification != "" {
		item["Justification"] = reply.Justification
	}
	return item, nil
}

// DependencyChecker asks whether a release bundles other third party
// components.
type DependencyChecker struct {
	checker
}

func NewDependencyChecker(provider llm.LLMProvider, catalog *prompt.Catalog, retriever retrieval.Retriever, log logger.ILogger) *DependencyChecker {
	return &DependencyChecker{checker{provider: provider, catalog: catalog, retriever: retriever, log: log}}
}

type dependencyReply struct {
	Dependency bool   `json:"dependency"`
	Reason     string `json:"reason"`
}

// Check reports whether rel depends on other components, with the item the
// DEPENDENCY phase walks. Without a usable reply no dependency is assumed.
func (c *DependencyChecker) Check(ctx context.Context, rel report.Release) (store.Item, bool, error) {
	item := store.Item{"compName": rel.Name, "compHtml": rel.BlockHTML, "reason": noDependencyMsg}
	if c.provider == nil {
		return item, false, nil
	}

	block := rel.BlockHTML
	if len(block) > maxBlockHTML {
		block = block[:maxBlockHTML]
	}
	body := fmt.Sprintf("Component: %s\nComponent block:\n%s\n\nReference context:\n%s",
		rel.Name, block, c.reference(ctx, rel.Name))

	var reply dependencyReply
	if err := c.ask(ctx, "analysis/DependencyCheck", body, &reply); err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.log.Warn("ANALYSIS", "Dependency check failed", map[string]interface{}{
			"component": rel.Name,
			"error":     err.Error(),
		})
		return item, false, nil
	}
	if reply.Reason != "" {
		item["reason"] = reply.Reason
	}
	return item, reply.Dependency, nil
}
