package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ormasoftchile/catpatch/pkg/catalog"
	"github.com/ormasoftchile/catpatch/pkg/patch"
	"github.com/ormasoftchile/catpatch/pkg/render"
	"github.com/ormasoftchile/catpatch/pkg/schema"
	"github.com/ormasoftchile/catpatch/pkg/store"
	"github.com/ormasoftchile/catpatch/pkg/trace"
	"github.com/spf13/cobra"
)

// applyOptions holds the flags shared by the root command and apply.
type applyOptions struct {
	file   string
	rules  string
	dryRun bool
	strict bool
	trace  string
	quiet  bool
}

var applyOpts applyOptions

// openStore is the document store used by every command.
var openStore = store.NewOS

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the patch table to a document (the default command)",
	Args:  cobra.NoArgs,
	RunE:  runApply,
}

func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&applyOpts.file, "file", "f", "", "Document to patch (default: the manifest target, or catalog.html)")
	cmd.Flags().StringVar(&applyOpts.rules, "rules", "", "Patchset manifest YAML to apply instead of the built-in carousel table")
	cmd.Flags().BoolVar(&applyOpts.dryRun, "dry-run", false, "Print the diff without writing the document")
	cmd.Flags().BoolVar(&applyOpts.strict, "strict", false, "Fail without writing when a rule's target is missing")
	cmd.Flags().StringVar(&applyOpts.trace, "trace", "", "Append JSONL trace events to this file")
	cmd.Flags().BoolVarP(&applyOpts.quiet, "quiet", "q", false, "Suppress the per-rule summary")
}

func init() {
	addApplyFlags(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	return applyDocument(cmd.OutOrStdout(), cmd.ErrOrStderr(), openStore(), applyOpts)
}

// loadTable returns the table to apply and the document it targets. An empty
// rulesPath selects the built-in carousel table.
func loadTable(errW io.Writer, rulesPath string) (*schema.Manifest, *patch.Table, error) {
	if rulesPath == "" {
		return catalog.Manifest(), catalog.Table(), nil
	}
	m, errs := schema.ValidateFile(rulesPath)
	if printValidationErrors(errW, errs) {
		return nil, nil, fmt.Errorf("manifest %s is invalid", rulesPath)
	}
	table, err := m.Table()
	if err != nil {
		return nil, nil, fmt.Errorf("build table: %w", err)
	}
	return m, table, nil
}

// resolveTarget picks the document path: the explicit flag first, then the
// manifest's target.
func resolveTarget(file string, m *schema.Manifest) (string, error) {
	if file != "" {
		return file, nil
	}
	if m.Meta.Target != "" {
		return m.Meta.Target, nil
	}
	return "", errors.New("no target document: pass --file or set meta.target in the manifest")
}

func applyDocument(w, errW io.Writer, st *store.Store, o applyOptions) (err error) {
	m, table, err := loadTable(errW, o.rules)
	if err != nil {
		return err
	}
	target, err := resolveTarget(o.file, m)
	if err != nil {
		return err
	}

	var tw *trace.Writer
	if o.trace != "" {
		tw, err = trace.NewFileWriter(o.trace, trace.NewRunID())
		if err != nil {
			return err
		}
		defer tw.Close()
	}

	start := time.Now()
	status := "failed"
	var res *patch.Result
	defer func() {
		if terr := tw.EmitRunComplete(status, res, time.Since(start)); terr != nil && err == nil {
			err = fmt.Errorf("trace: %w", terr)
		}
	}()

	text, err := st.Read(target)
	if err != nil {
		return err
	}
	if err := tw.EmitRunStart(target, table.Len(), table.Digest(), o.dryRun); err != nil {
		return fmt.Errorf("trace: %w", err)
	}

	res, applyErr := table.Apply(text, patch.Options{Strict: o.strict})
	if res == nil {
		return applyErr
	}
	for _, r := range res.Rules {
		if err := tw.EmitRuleEvaluated(r); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}
	if !o.quiet {
		render.Summary(w, target, res)
	}

	if o.dryRun {
		if d := render.Diff(target, res.Original, res.Text, 3); d != "" && !o.quiet {
			fmt.Fprintf(w, "\n%s", d)
		}
		status = "dry_run"
		return applyErr
	}
	if applyErr != nil {
		status = "drifted"
		return applyErr
	}

	// The document is written back even when no rule changed it.
	if err := st.Write(target, res.Text); err != nil {
		return err
	}
	if err := tw.EmitDocumentWritten(target, len(res.Text)); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	status = "completed"
	return nil
}
