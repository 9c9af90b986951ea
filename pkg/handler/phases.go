package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/readme"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"
)

const (
	finalListIntro   = "Now we are going to show you the list of confirmed licenses and components."
	ossGenerationMsg = "Checking for OSS has been finished, now we started generating readme file. Please let me know if you would like to proceed with generating the product clearance report."
	completedMsg     = "We have finished all checking in current session, please reupload a new license info file to start a new session."

	// MainLicenseField is where the chosen main license is stored on a
	// MAINLICENSE item.
	MainLicenseField = "mainLicense"
)

var errNoBot = errors.New("no assistant bound to handler")

type builder func(d *Deps, reg *Registry) workflow.Handler

var builders = map[workflow.Phase]builder{
	workflow.PhaseOEM: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseOEM, d,
			prompted("bot/OEM", "Please confirm the OEM information."), oemApproval)
	},
	workflow.PhaseContract: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseContract, d,
			prompted("bot/Contract", "Please provide the contract information."), nil)
	},
	workflow.PhaseDependency: func(d *Deps, _ *Registry) workflow.Handler {
		return newIterator(workflow.PhaseDependency, d, items.KindComponent,
			prompted("bot/Dependecy", "Please confirm the component dependencies."), nil)
	},
	workflow.PhaseMainLicense: func(d *Deps, _ *Registry) workflow.Handler {
		return newIterator(workflow.PhaseMainLicense, d, items.KindMainLicense,
			prompted("bot/MainLicense", "Please choose the main license of each component."), recordMainLicense)
	},
	workflow.PhaseCredential: func(d *Deps, _ *Registry) workflow.Handler {
		return newIterator(workflow.PhaseCredential, d, items.KindCredential,
			prompted("bot/Credential", "Please confirm the credential information."), nil)
	},
	workflow.PhaseSpecialCheck: func(d *Deps, _ *Registry) workflow.Handler {
		return newIterator(workflow.PhaseSpecialCheck, d, items.KindSpecialCheck,
			prompted("bot/SpecialCheck", "Please review the special licenses."), nil)
	},
	workflow.PhaseCompliance: func(d *Deps, _ *Registry) workflow.Handler {
		return newIterator(workflow.PhaseCompliance, d, items.KindLicense,
			prompted("bot/Compliance", "Please confirm the compliance information."), nil)
	},
	workflow.PhaseFinalList: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseFinalList, d, finalList, nil)
	},
	workflow.PhaseOSSGeneration: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseOSSGeneration, d, fixed(ossGenerationMsg), generateReadme)
	},
	workflow.PhaseProductOverview: func(d *Deps, _ *Registry) workflow.Handler {
		return newContent(workflow.PhaseProductOverview, d, store.ArtifactProductOverview,
			prompted("bot/ProductOverview", "We are now writing the product overview."), writeProductOverview)
	},
	workflow.PhaseComponentOverview: func(d *Deps, _ *Registry) workflow.Handler {
		return newContent(workflow.PhaseComponentOverview, d, store.ArtifactComponentOverview,
			fixed("Now we are generating component overview"),
			func(ctx context.Context, h *base, t *workflow.Turn) (string, error) {
				return ComponentTable(ctx, h.deps.Knowledge, t.Store.Document)
			})
	},
	workflow.PhaseCommonRules: func(d *Deps, _ *Registry) workflow.Handler {
		return newContent(workflow.PhaseCommonRules, d, store.ArtifactCommonRules,
			fixed("Now we are importing common rules."),
			func(_ context.Context, h *base, _ *workflow.Turn) (string, error) {
				return strings.TrimSpace(h.deps.CommonRules), nil
			})
	},
	workflow.PhaseObligations: func(d *Deps, reg *Registry) workflow.Handler {
		return newChapter(workflow.PhaseObligations, d, reg, items.KindProductComponent,
			func(t *workflow.Turn) []string {
				return items.MustLookup(items.KindProductComponent).Identities(t.Store)
			},
			prompted("bot/ConfirmingMode", "Please check the result for obligations"),
			ObligationSections...)
	},
	workflow.PhaseInteraction: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseInteraction, d,
			prompted("bot/Interaction", "Please check whether the obligations resulting from interaction between components is handled correctly."), nil)
	},
	workflow.PhaseCopyleft: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseCopyleft, d,
			prompted("bot/Copyleft", "Please check whether your code meets the requirements for copyleft."), nil)
	},
	workflow.PhaseSpecialConsideration: func(d *Deps, reg *Registry) workflow.Handler {
		return newChapter(workflow.PhaseSpecialConsideration, d, reg, "",
			func(t *workflow.Turn) []string {
				return []string{t.Store.Document.ProjectTitle()}
			},
			prompted("bot/ConfirmingMode", "Please check the result for special considerations"),
			SpecialConsiderationSections...)
	},
	workflow.PhaseCompleted: func(d *Deps, _ *Registry) workflow.Handler {
		return newSimple(workflow.PhaseCompleted, d, fixed(completedMsg), nil)
	},
}

// oemApproval maps the verdict field is_oem_approved onto the store flag.
func oemApproval(_ context.Context, _ *base, t *workflow.Turn, content string) error {
	if content != "" {
		return nil
	}
	approved, ok := t.Verdict.Bool("is_oem_approved")
	switch {
	case ok && approved:
		t.Store.OEMApproval = store.OEMApproved
	case ok:
		t.Store.OEMApproval = store.OEMRejected
	default:
		t.Store.OEMApproval = store.OEMPending
	}
	return nil
}

// recordMainLicense writes the license the reviewer picked onto the item
// being confirmed.
func recordMainLicense(_ context.Context, _ *base, t *workflow.Turn, content string) error {
	if content != "" || t.Status != verdictNext {
		return nil
	}
	chosen := t.Verdict.String("main_license")
	if chosen == "" {
		return nil
	}
	spec := items.MustLookup(items.KindMainLicense)
	list := spec.Items(t.Store)
	idx := t.Store.Cursor(spec.CursorKey)
	if idx < 0 || idx >= len(list) {
		return fmt.Errorf("%w: %s=%d, %d items", items.ErrCursorOutOfRange, spec.CursorKey, idx, len(list))
	}
	list[idx][MainLicenseField] = chosen
	return nil
}

func finalList(_ context.Context, _ *base, t *workflow.Turn) (string, error) {
	var b strings.Builder
	b.WriteString(finalListIntro)
	b.WriteString("\n\nConfirmed licenses:\n")
	b.WriteString(bullets(readme.Confirmed(t.Store, items.KindLicense)))
	b.WriteString("\n\nConfirmed components:\n")
	b.WriteString(bullets(readme.Confirmed(t.Store, items.KindCredential)))
	return b.String(), nil
}

// generateReadme writes the filtered README when the reviewer leaves the
// OSS generation phase.
func generateReadme(_ context.Context, h *base, t *workflow.Turn, content string) error {
	if content != "" || t.Status != verdictNext {
		return nil
	}
	if _, err := readme.Build(t.Store, h.deps.SessionDir(t.SessionID)); err != nil {
		return fmt.Errorf("generate readme: %w", err)
	}
	t.Store.DownloadURL = "download/" + t.SessionID
	return nil
}

func writeProductOverview(ctx context.Context, h *base, t *workflow.Turn) (string, error) {
	doc := t.Store.Document
	var material strings.Builder
	if doc != nil {
		fmt.Fprintf(&material, "Product: %s\n\n", doc.ProjectTitle())
		intro, err := h.deps.Markdown(doc.IntroHTML)
		if err != nil {
			return "", err
		}
		material.WriteString(intro)
	}
	bot := h.botFor(t)
	if bot == nil {
		return "", errNoBot
	}
	return bot.Write(ctx, "bot/WriteProductOverview", material.String())
}
