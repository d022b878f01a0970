// Package cli provides shared CLI utilities for brandpulse and brandpulsed.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandSchema is a machine-readable description of a command tree,
// emitted by --help-json for tooling that drives the CLI.
type CommandSchema struct {
	Name     string          `json:"name"`
	Usage    string          `json:"usage,omitempty"`
	Short    string          `json:"short,omitempty"`
	Long     string          `json:"long,omitempty"`
	Flags    []FlagSchema    `json:"flags,omitempty"`
	Commands []CommandSchema `json:"commands,omitempty"`
}

// FlagSchema describes one flag of a command.
type FlagSchema struct {
	Name     string `json:"name"`
	Short    string `json:"short,omitempty"`
	Type     string `json:"type"`
	Default  string `json:"default,omitempty"`
	Usage    string `json:"usage,omitempty"`
	Required bool   `json:"required"`
}

// GenerateSchema walks a cobra command tree into a CommandSchema.
func GenerateSchema(cmd *cobra.Command) CommandSchema {
	s := CommandSchema{
		Name:  cmd.Name(),
		Usage: cmd.Use,
		Short: cmd.Short,
		Long:  cmd.Long,
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "help-json" {
			return
		}
		_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
		s.Flags = append(s.Flags, FlagSchema{
			Name:     f.Name,
			Short:    f.Shorthand,
			Type:     f.Value.Type(),
			Default:  f.DefValue,
			Usage:    f.Usage,
			Required: required,
		})
	})

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" {
			continue
		}
		s.Commands = append(s.Commands, GenerateSchema(sub))
	}

	return s
}

// AddHelpJSONFlag registers the --help-json flag on a command tree.
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Output command schema as JSON")
}

// CheckHelpJSON scans os.Args for --help-json and, when present, prints
// the schema of the addressed subcommand and exits. It runs before
// cmd.Execute so the flag works even on commands with required args.
func CheckHelpJSON(root *cobra.Command) {
	for i, arg := range os.Args {
		if arg != "--help-json" {
			continue
		}

		target := root
		for _, name := range os.Args[1:i] {
			next := subcommand(target, name)
			if next == nil {
				break
			}
			target = next
		}

		out, err := json.MarshalIndent(GenerateSchema(target), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

func subcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}
