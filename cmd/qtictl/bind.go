package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-qti/internal/grading"
	"github.com/mind-engage/mindengage-qti/internal/qti/loader"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
	"github.com/mind-engage/mindengage-qti/internal/session"
)

var tokenSep string

func newBindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind <item.xml> ID=tok[,tok...]...",
		Short: "Bind raw responses to an item and run response processing",
		Long: `Initialises a session on the item, binds each ID=tokens argument
through the interaction collecting ID, checks the bound values against
the interaction's constraints and runs the item's response processing.

Example:
  qtictl bind item.xml RESPONSE=B
  qtictl bind item.xml RESPONSE=9.81 --sep ';'`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBind,
	}
	cmd.Flags().StringVar(&tokenSep, "sep", ",", "Separator between tokens of one response")
	return cmd
}

type bindReport struct {
	Bound     []string          `json:"bound"`
	Invalid   []string          `json:"invalid,omitempty"`
	Ignored   []string          `json:"ignored,omitempty"`
	Failures  map[string]string `json:"failures,omitempty"`
	Template  string            `json:"template,omitempty"`
	Score     float64           `json:"score"`
	Responses value.Map         `json:"responses"`
	Outcomes  value.Map         `json:"outcomes"`
}

func parseAssignments(args []string, sep string) (map[value.Identifier][]string, error) {
	raw := make(map[value.Identifier][]string, len(args))
	for _, a := range args {
		id, toks, ok := strings.Cut(a, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("expected ID=tokens, got %q", a)
		}
		if toks == "" {
			raw[value.Identifier(id)] = []string{}
			continue
		}
		raw[value.Identifier(id)] = strings.Split(toks, sep)
	}
	return raw, nil
}

func runBind(cmd *cobra.Command, args []string) error {
	raw, err := parseAssignments(args[1:], tokenSep)
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	doc, loadErrs, err := loader.Load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if len(loadErrs) > 0 {
		return fmt.Errorf("%s: %w", args[0], loadErrs[0])
	}
	if vctx := doc.Validate(); !vctx.Valid() {
		return fmt.Errorf("%s: %s", args[0], vctx.Errors()[0])
	}

	ctl := session.New(doc.Item(), logger)
	if err := ctl.Initialize(); err != nil {
		return err
	}
	sub := ctl.BindResponses(raw)
	res, err := ctl.ProcessResponses(cmd.Context())
	if err != nil && !errors.Is(err, grading.ErrUnknownTemplate) {
		return err
	}

	rep := bindReport{
		Template:  res.Template,
		Score:     res.Score,
		Responses: ctl.Responses(),
		Outcomes:  ctl.Outcomes(),
	}
	for _, id := range sub.Bound {
		rep.Bound = append(rep.Bound, string(id))
	}
	for _, id := range sub.Invalid {
		rep.Invalid = append(rep.Invalid, string(id))
	}
	for _, id := range sub.Ignored {
		rep.Ignored = append(rep.Ignored, string(id))
	}
	if len(sub.Failures) > 0 {
		rep.Failures = map[string]string{}
		for id, ferr := range sub.Failures {
			rep.Failures[string(id)] = ferr.Error()
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printBind(cmd, rep)
	}
	if !sub.OK() {
		return errFound
	}
	return nil
}

func printBind(cmd *cobra.Command, rep bindReport) {
	out := cmd.OutOrStdout()
	for _, id := range rep.Bound {
		fmt.Fprintf(out, "bound    %s = %s\n", id, rep.Responses[value.Identifier(id)])
	}
	for _, id := range rep.Invalid {
		fmt.Fprintf(out, "invalid  %s\n", id)
	}
	for _, id := range rep.Ignored {
		fmt.Fprintf(out, "ignored  %s\n", id)
	}
	ids := make([]string, 0, len(rep.Failures))
	for id := range rep.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "failed   %s: %s\n", id, rep.Failures[id])
	}
	if rep.Template != "" {
		fmt.Fprintf(out, "%s: score %g\n", rep.Template, rep.Score)
	}
}
