package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/health-package-engine/internal/assessment"
)

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate a questionnaire file offline and print the packages",
		Long: "Reads questionnaire answers as a JSON object from --file (or stdin when the\n" +
			"file is \"-\") and prints the same payload the HTTP endpoint returns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			raw, err := readAnswers(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			ctx := context.Background()
			eng, err := loadEngine(ctx, cfg)
			if err != nil {
				return err
			}

			service := assessment.NewService(eng.scorer, eng.builder, nil)
			result, err := service.Evaluate(ctx, raw, assessment.EvaluateOptions{})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringP("file", "f", "-", "Questionnaire JSON file, or - for stdin")

	return cmd
}

func readAnswers(stdin io.Reader, file string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if file == "" || file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire: %w", err)
	}
	return data, nil
}
