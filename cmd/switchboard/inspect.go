package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/catalog"
	"switchboard-hq/switchboard/pkg/cli"
)

var inspectFlags struct {
	operation string
	format    string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print the policy tree of a definition",
	Long: `Parse one definition and print its assembly as a tree.

With --operation, print only the policies that run for that operation: the
case of the root operation switch that declares it, or nothing when no case
does. Operations are written "verb path" and matched exactly as declared.

Examples:
  switchboard inspect orders.yaml
  switchboard inspect orders.yaml --operation "get /orders/{id}"
  switchboard inspect orders.yaml --format json`,
	Args: cobra.ExactArgs(1),
	RunE: inspectDefinition,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFlags.operation, "operation", "", `operation to resolve, as "verb path"`)
	inspectCmd.Flags().StringVarP(&inspectFlags.format, "format", "f", "text", "output format: text, json")
}

// policyNode is the printable form of one policy.
type policyNode struct {
	Kind     string          `json:"kind"`
	Title    string          `json:"title,omitempty"`
	Detail   string          `json:"detail,omitempty"`
	Branches [][]*policyNode `json:"branches,omitempty"`
}

// catchNode is the printable form of one catch clause.
type catchNode struct {
	Errors   []string      `json:"errors,omitempty"`
	Default  bool          `json:"default,omitempty"`
	Policies []*policyNode `json:"policies"`
}

// inspection is the result of an inspect run.
type inspection struct {
	API        string        `json:"api"`
	File       string        `json:"file"`
	BasePath   string        `json:"base_path"`
	Operations []string      `json:"operations"`
	Operation  string        `json:"operation,omitempty"`
	Matched    *bool         `json:"matched,omitempty"`
	CaseIndex  *int          `json:"case_index,omitempty"`
	Policies   []*policyNode `json:"policies"`
	Catch      []*catchNode  `json:"catch,omitempty"`
}

func (in *inspection) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s  %s\n", in.API, in.File)
	fmt.Fprintf(w, "base path: %s\n", in.BasePath)
	fmt.Fprintf(w, "operations: %s\n", strings.Join(in.Operations, ", "))
	fmt.Fprintln(w)

	if in.Operation != "" {
		if in.Matched != nil && !*in.Matched {
			_, err := fmt.Fprintf(w, "%s: no case matches\n", in.Operation)
			return err
		}
		fmt.Fprintf(w, "%s: case %d\n", in.Operation, *in.CaseIndex)
	} else {
		fmt.Fprintln(w, "execute:")
	}
	writeNodes(w, in.Policies, 1)

	for _, c := range in.Catch {
		label := strings.Join(c.Errors, ", ")
		if c.Default {
			label = "default"
		}
		fmt.Fprintf(w, "catch %s:\n", label)
		writeNodes(w, c.Policies, 1)
	}
	return nil
}

func writeNodes(w io.Writer, nodes []*policyNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		line := n.Kind
		if n.Title != "" && n.Title != n.Kind {
			line += " " + n.Title
		}
		if n.Detail != "" {
			line += "  " + n.Detail
		}
		fmt.Fprintf(w, "%s- %s\n", indent, line)
		for i, branch := range n.Branches {
			if len(n.Branches) > 1 {
				fmt.Fprintf(w, "%s  case %d:\n", indent, i)
				writeNodes(w, branch, depth+2)
				continue
			}
			writeNodes(w, branch, depth+1)
		}
	}
}

func inspectDefinition(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(inspectFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	def, _, err := catalog.NewLoader(cfg.Definitions.ToLoader(), nil, quietLogger()).LoadFile(args[0])
	if err != nil {
		return cli.NewCommandError("inspect", err)
	}

	result, err := inspect(def, inspectFlags.operation)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}

// inspect builds the printable tree. A non-empty operation narrows the tree
// to the case the root operation switch selects for it.
func inspect(def *ast.Definition, operation string) (*inspection, error) {
	in := &inspection{
		API:      def.ID(),
		File:     def.SourceFile,
		BasePath: def.BasePath,
	}
	for _, op := range def.Operations() {
		in.Operations = append(in.Operations, op.String())
	}

	asm := def.Assembly()
	if operation == "" {
		if asm != nil {
			in.Policies = policyNodes(asm.Execute)
			for _, c := range asm.Catch {
				in.Catch = append(in.Catch, &catchNode{
					Errors:   c.Errors,
					Default:  c.Default,
					Policies: policyNodes(c.Execute),
				})
			}
		}
		return in, nil
	}

	op, err := parseOperation(operation)
	if err != nil {
		return nil, err
	}
	in.Operation = op.String()
	res, ok := asm.RootSwitch().Resolve(op)
	in.Matched = &ok
	if ok {
		in.CaseIndex = &res.CaseIndex
		in.Policies = policyNodes(res.Execute)
	}
	return in, nil
}

// parseOperation parses "verb path".
func parseOperation(s string) (ast.Operation, error) {
	verb, path, ok := strings.Cut(strings.TrimSpace(s), " ")
	path = strings.TrimSpace(path)
	if !ok || verb == "" || path == "" {
		return ast.Operation{}, cli.NewConfigError("operation", fmt.Sprintf("%q is not of the form \"verb path\"", s))
	}
	return ast.Operation{Verb: verb, Path: path}, nil
}

func policyNodes(policies []*ast.Policy) []*policyNode {
	nodes := make([]*policyNode, 0, len(policies))
	for _, p := range policies {
		n := &policyNode{Kind: string(p.Kind), Title: p.Title(), Detail: policyDetail(p)}
		for _, children := range p.Children() {
			n.Branches = append(n.Branches, policyNodes(children))
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func policyDetail(p *ast.Policy) string {
	switch p.Kind {
	case ast.PolicyKindBetterInvoke:
		inv := p.BetterInvoke
		parts := []string{inv.Verb, inv.TargetURL}
		if inv.Timeout > 0 {
			parts = append(parts, fmt.Sprintf("timeout=%d", inv.Timeout))
		}
		if inv.Forever {
			parts = append(parts, "forever")
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	case ast.PolicyKindResponseHandler:
		var parts []string
		if p.ResponseHandler.SuccessCode != nil {
			parts = append(parts, fmt.Sprintf("success-code=%d", *p.ResponseHandler.SuccessCode))
		}
		if p.ResponseHandler.HardFail {
			parts = append(parts, "hard-fail")
		}
		return strings.Join(parts, " ")
	case ast.PolicyKindIf:
		return p.If.Condition
	case ast.PolicyKindOperationSwitch:
		var ops []string
		for _, c := range p.OperationSwitch.Cases {
			for _, op := range c.Operations {
				ops = append(ops, op.String())
			}
		}
		return strings.Join(ops, ", ")
	}
	return ""
}
