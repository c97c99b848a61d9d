// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"triage-scan/internal/engine"
	"triage-scan/internal/profile"
)

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <profile.yaml>",
		Short: "Validate and compile a rule profile without scanning",
		Long: `Validate loads a profile, applies defaults, and compiles every pattern
and rule equation exactly as a scan would. Fatal configuration errors
fail validation; compile warnings (unmatchable patterns, unparseable
equations) are listed but pass unless --strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat compile warnings as errors")
	return cmd
}

func runValidate(path string, strict bool) error {
	prof, err := profile.LoadFile(path)
	if err != nil {
		return err
	}

	eng, err := engine.New(prof)
	if err != nil {
		return err
	}

	fmt.Printf("profile: %s (policy: %s, window: %d)\n", displayName(prof), prof.Policy, prof.Window)
	fmt.Printf("  positives: %d  negatives: %d  context groups: %d  rules: %d\n",
		len(prof.Positives), len(prof.Negatives), len(prof.Contexts), len(prof.Rules))

	warnings := eng.Warnings()
	for _, w := range warnings {
		color.Yellow("  warning: %s: %s", w.Component, w.Message)
	}

	if strict && len(warnings) > 0 {
		return fmt.Errorf("%d compile warning(s) with --strict", len(warnings))
	}
	color.Green("profile OK")
	return nil
}

func displayName(p *profile.Profile) string {
	if p.Name != "" {
		return p.Name
	}
	return "(unnamed)"
}
