package main

import (
	"github.com/ormasoftchile/catpatch/pkg/stepper"
	"github.com/ormasoftchile/catpatch/pkg/trace"
	"github.com/spf13/cobra"
)

var (
	stepFile  string
	stepRules string
	stepTrace string
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Apply rules one at a time in an interactive REPL",
	Args:  cobra.NoArgs,
	RunE:  runStep,
}

func runStep(cmd *cobra.Command, args []string) error {
	m, table, err := loadTable(cmd.ErrOrStderr(), stepRules)
	if err != nil {
		return err
	}
	target, err := resolveTarget(stepFile, m)
	if err != nil {
		return err
	}

	s, err := stepper.New(table, openStore(), target)
	if err != nil {
		return err
	}
	s.SetOutput(cmd.OutOrStdout())
	if stepTrace != "" {
		tw, err := trace.NewFileWriter(stepTrace, trace.NewRunID())
		if err != nil {
			return err
		}
		defer tw.Close()
		if err := tw.EmitRunStart(target, table.Len(), table.Digest(), false); err != nil {
			return err
		}
		s.SetTrace(tw)
	}
	return s.Run(cmd.Context())
}

func init() {
	stepCmd.Flags().StringVarP(&stepFile, "file", "f", "", "Document to patch (default: the manifest target, or catalog.html)")
	stepCmd.Flags().StringVar(&stepRules, "rules", "", "Patchset manifest YAML to step through instead of the built-in table")
	stepCmd.Flags().StringVar(&stepTrace, "trace", "", "Append JSONL trace events to this file")
}
