package handler

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"oss-clearance-be/pkg/knowledge"
)

//go:embed assets/common_rules.md
var defaultCommonRules string

// Deps are the process-wide collaborators of the handlers. They are read-only
// and shared by every session.
type Deps struct {
	Knowledge   knowledge.Base
	CommonRules string
	// DownloadDir is the root of the per-session download folders.
	DownloadDir string
	// AssetPortalURL is linked from the OSS software declaration.
	AssetPortalURL string

	converter *md.Converter
}

type DepsOption func(*Deps)

// WithCommonRulesFile replaces the built-in common rules chapter.
func WithCommonRulesFile(path string) DepsOption {
	return func(d *Deps) {
		if path == "" {
			return
		}
		if raw, err := os.ReadFile(path); err == nil {
			d.CommonRules = string(raw)
		}
	}
}

func WithAssetPortalURL(url string) DepsOption {
	return func(d *Deps) { d.AssetPortalURL = url }
}

func NewDeps(kb knowledge.Base, downloadDir string, opts ...DepsOption) *Deps {
	if kb == nil {
		kb = knowledge.NewFileBase(knowledge.Dataset{})
	}
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())

	d := &Deps{
		Knowledge:   kb,
		CommonRules: defaultCommonRules,
		DownloadDir: downloadDir,
		converter:   conv,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Markdown converts report HTML to markdown for the language model.
func (d *Deps) Markdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	if d.converter == nil {
		return "", fmt.Errorf("convert html: deps built without NewDeps")
	}
	out, err := d.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// SessionDir is the folder holding a session's generated files.
func (d *Deps) SessionDir(sessionID string) string {
	return filepath.Join(d.DownloadDir, sessionID)
}
