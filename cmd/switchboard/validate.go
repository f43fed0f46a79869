package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"switchboard-hq/switchboard/pkg/apic"
	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/apic/validator"
	"switchboard-hq/switchboard/pkg/catalog"
	"switchboard-hq/switchboard/pkg/cli"
)

var validateFlags struct {
	strict   bool
	format   string
	progress bool
}

var validateCmd = &cobra.Command{
	Use:   "validate [PATH]",
	Short: "Validate API definitions",
	Long: `Parse and statically validate API definitions without serving them.

PATH is a definition file or a directory tree; it defaults to the configured
definitions directory. Every file is checked and every finding is reported.
For directories the definitions are also checked against each other for
conflicting routes.

--strict additionally lints the Swagger body of each file.

The command exits non-zero when any error is found.

Examples:
  switchboard validate ./definitions
  switchboard validate orders.yaml --strict
  switchboard validate --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateDefinitions,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "lint the Swagger body as well")
	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format: text, json")
	validateCmd.Flags().BoolVar(&validateFlags.progress, "progress", false, "show progress on stderr")
}

// fileReport holds the findings for one definition file.
type fileReport struct {
	File     string   `json:"file"`
	API      string   `json:"api,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// validateReport is the result of a validate run.
type validateReport struct {
	Path       string       `json:"path"`
	Files      []fileReport `json:"files"`
	Conflicts  []string     `json:"conflicts,omitempty"`
	ErrorCount int          `json:"error_count"`
	WarnCount  int          `json:"warning_count"`
}

func (r *validateReport) WriteText(w io.Writer) error {
	for _, f := range r.Files {
		status := "ok"
		if len(f.Errors) > 0 {
			status = "FAIL"
		}
		name := f.File
		if f.API != "" {
			name = fmt.Sprintf("%s (%s)", f.File, f.API)
		}
		fmt.Fprintf(w, "%-4s %s\n", status, name)
		for _, e := range f.Errors {
			fmt.Fprintf(w, "     error: %s\n", e)
		}
		for _, warn := range f.Warnings {
			fmt.Fprintf(w, "     warning: %s\n", warn)
		}
	}
	for _, c := range r.Conflicts {
		fmt.Fprintf(w, "FAIL %s\n     error: %s\n", r.Path, c)
	}
	_, err := fmt.Fprintf(w, "\n%d files, %d errors, %d warnings\n", len(r.Files), r.ErrorCount, r.WarnCount)
	return err
}

func validateDefinitions(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.Definitions.Dir
	if len(args) > 0 {
		path = args[0]
	}

	loader := catalog.NewLoader(cfg.Definitions.ToLoader(), nil, quietLogger())
	report, err := runValidation(commandContext(cmd), loader, path, validateFlags.strict, progressWriter(cmd))
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.ErrorCount > 0 {
		return &cli.ExitError{Code: cli.ExitFailure}
	}
	return nil
}

func progressWriter(cmd *cobra.Command) io.Writer {
	if !validateFlags.progress {
		return nil
	}
	return cmd.ErrOrStderr()
}

// runValidation checks the file or directory at path. It returns an error
// only when path itself cannot be read; findings go in the report.
func runValidation(ctx context.Context, loader *catalog.Loader, path string, strict bool, progress io.Writer) (*validateReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if info.IsDir() {
		if files, err = loader.Files(path); err != nil {
			return nil, err
		}
	}

	var reporter cli.ProgressReporter
	if progress != nil {
		reporter = cli.NewProgressReporter(progress, "validating")
		reporter.Start(int64(len(files)))
	}

	report := &validateReport{Path: path, Files: make([]fileReport, 0, len(files))}
	var defs []*ast.Definition
	linter := validator.NewSwaggerLinter()
	for i, file := range files {
		fr, def := validateFile(ctx, loader, linter, file, strict)
		report.Files = append(report.Files, fr)
		report.ErrorCount += len(fr.Errors)
		report.WarnCount += len(fr.Warnings)
		if def != nil {
			defs = append(defs, def)
		}
		if reporter != nil {
			reporter.Update(int64(i + 1))
		}
	}
	if reporter != nil {
		reporter.Finish()
	}

	if info.IsDir() && len(defs) > 1 {
		if _, err := catalog.New(defs, ""); err != nil {
			report.Conflicts = append(report.Conflicts, err.Error())
			report.ErrorCount++
		}
	}
	return report, nil
}

func validateFile(ctx context.Context, loader *catalog.Loader, linter *validator.SwaggerLinter, file string, strict bool) (fileReport, *ast.Definition) {
	fr := fileReport{File: file}

	def, warnings, err := loader.LoadFile(file)
	if err != nil {
		fr.Errors = append(fr.Errors, err.Error())
		return fr, nil
	}
	fr.API = def.ID()
	for _, w := range warnings {
		fr.Warnings = append(fr.Warnings, finding(w.Message, w.Path))
	}

	result := apic.Validate(def)
	for _, e := range result.Errors.Errors {
		fr.Errors = append(fr.Errors, finding(e.Message, e.Path))
	}
	for _, w := range result.Warnings.Errors {
		fr.Warnings = append(fr.Warnings, finding(w.Message, w.Path))
	}

	if strict {
		data, err := os.ReadFile(file)
		if err == nil {
			err = linter.Lint(ctx, data)
		}
		if err != nil {
			fr.Errors = append(fr.Errors, err.Error())
		}
	}

	if len(fr.Errors) > 0 {
		return fr, nil
	}
	return fr, def
}

func finding(message, path string) string {
	if path == "" {
		return message
	}
	return fmt.Sprintf("%s (at %s)", message, path)
}
