package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/health-package-engine/internal/models"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, catalog, rules and package plan without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			eng, err := loadEngine(context.Background(), cfg)
			if err != nil {
				return err
			}

			tiers, err := eng.builder.Build(models.NewRiskProfile(nil))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog: %d tests (%s)\n", eng.catalog.Len(), eng.catalog.Version())
			fmt.Fprintf(out, "rules:   %s [%s]\n", eng.scorer.Version(), strings.Join(eng.scorer.Domains(), ", "))
			fmt.Fprintf(out, "plan:    %s\n", eng.builder.PlanVersion())
			for _, t := range tiers {
				fmt.Fprintf(out, "  %-14s %2d tests  list %5d  discount %5d  final %5d\n",
					t.Tier, len(t.Tests), t.Price, t.Discount, t.FinalPrice)
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
