package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/qti/loader"
	"github.com/mind-engage/mindengage-qti/internal/qti/node"
)

var packOut string

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack -o <package.zip> <item.xml>...",
		Short: "Bundle valid items into a content package",
		Long: `Loads and validates each item and writes them, with an
imsmanifest.xml, into a content package zip. Nothing is written when any
item fails to load or validate.

Example:
  qtictl pack -o unit1.zip q1.xml q2.xml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPack,
	}
	cmd.Flags().StringVarP(&packOut, "output", "o", "", "Package file to write (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runPack(cmd *cobra.Command, args []string) error {
	docs := make([]*node.Document, 0, len(args))
	for _, path := range args {
		rs, err := validatePath(path)
		if err != nil {
			return err
		}
		if len(rs) != 1 || !rs[0].Valid {
			return fmt.Errorf("%s: item has errors, run qtictl validate", path)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		doc, _, err := loader.Load(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	b, err := loader.BuildPackage(docs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(packOut, b, 0o644); err != nil {
		return err
	}
	logger.Debug("package written", zap.String("path", packOut), zap.Int("items", len(docs)))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d items to %s\n", len(docs), packOut)
	return nil
}
