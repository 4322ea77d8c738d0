/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/longkey1/turnchat/internal/openai"
	"github.com/spf13/cobra"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long: `List all models available to the configured credential.
Fetches the latest model information directly from the API.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		provider, err := openai.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("creating provider: %w", err)
		}

		models, err := provider.ListModels(cmd.Context(), cfg.Model)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			return fmt.Errorf("no models returned from API")
		}

		fmt.Printf("Available models for %s:\n\n", openai.ProviderName)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tDEFAULT\tDESCRIPTION")
		fmt.Fprintln(w, "-----\t-------\t-----------")
		for _, m := range models {
			defaultMark := ""
			if m.IsDefault {
				defaultMark = "Yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, defaultMark, m.Description)
		}
		w.Flush()

		fmt.Printf("\nUse a model with: turnchat chat --model <model> [message]\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
