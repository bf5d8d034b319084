package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/loader"
	"github.com/mind-engage/mindengage-qti/internal/qti/node"
	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <item.xml|package.zip>...",
		Short: "Load items and print validation diagnostics",
		Long: `Loads each item (or every item listed in a content package
manifest) and prints load errors and validation diagnostics.
Exits non-zero when any item has errors.

Example:
  qtictl validate item.xml
  qtictl validate --json package.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}
}

type report struct {
	Source      string                  `json:"source"`
	LoadErrors  []string                `json:"load_errors,omitempty"`
	Diagnostics []validation.Diagnostic `json:"diagnostics"`
	Valid       bool                    `json:"valid"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	var reports []report
	for _, path := range args {
		rs, err := validatePath(path)
		if err != nil {
			return err
		}
		reports = append(reports, rs...)
	}

	failed := false
	for _, r := range reports {
		failed = failed || !r.Valid
	}
	out := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			for _, e := range r.LoadErrors {
				fmt.Fprintf(out, "%s: error: %s\n", r.Source, e)
			}
			for _, d := range r.Diagnostics {
				fmt.Fprintf(out, "%s: %s\n", r.Source, d)
			}
			if r.Valid {
				fmt.Fprintf(out, "%s: ok\n", r.Source)
			}
		}
	}
	if failed {
		return errFound
	}
	return nil
}

func validatePath(path string) ([]report, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		doc, loadErrs, err := loader.Load(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []report{newReport(path, doc, loadErrs)}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pkg, err := loader.OpenPackageBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []report
	for _, href := range pkg.Items() {
		src := path + "!" + href
		doc, loadErrs, err := pkg.LoadItem(href)
		if err != nil {
			out = append(out, report{Source: src, LoadErrors: []string{err.Error()}, Diagnostics: []validation.Diagnostic{}})
			continue
		}
		out = append(out, newReport(src, doc, loadErrs))
	}
	logger.Debug("package validated", zap.String("path", path), zap.Int("items", len(out)))
	return out, nil
}

func newReport(src string, doc *node.Document, loadErrs []error) report {
	vctx := doc.Validate()
	r := report{Source: src, Diagnostics: vctx.Diagnostics()}
	if r.Diagnostics == nil {
		r.Diagnostics = []validation.Diagnostic{}
	}
	for _, e := range loadErrs {
		// malformed attribute literals show up as diagnostics
		var be *attribute.BindingError
		if errors.As(e, &be) {
			continue
		}
		r.LoadErrors = append(r.LoadErrors, e.Error())
	}
	r.Valid = len(r.LoadErrors) == 0 && vctx.Valid()
	return r
}
