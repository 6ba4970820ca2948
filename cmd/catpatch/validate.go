package main

import (
	"fmt"

	"github.com/ormasoftchile/catpatch/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [manifest.yaml]",
	Short: "Validate a patchset manifest against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, errs := schema.ValidateFile(args[0])
	if printValidationErrors(cmd.ErrOrStderr(), errs) {
		return fmt.Errorf("validation failed")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d rules)\n", m.Meta.Name, len(m.Rules))
	return nil
}
