package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nutriscan/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// labeltool inspects recognized label text offline, running the same
// normalization the server applies to OCR output.
func main() {
	rootCmd := &cobra.Command{
		Use:   "labeltool",
		Short: "Inspect recognized food-label text",
	}

	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(servingCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readInput joins args, or falls back to stdin so OCR dumps can be piped in.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [text]",
		Short: "Extract and clean an ingredient list from label text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			normalizer := usecase.NewTextNormalizer(zap.NewNop())
			ingredients, err := normalizer.IngredientsFromLabel(text)
			if err != nil {
				return err
			}
			fmt.Println(ingredients)
			return nil
		},
	}
}

func servingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serving [text]",
		Short: "Parse a serving-size string into amount and unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			amount, unit := usecase.ParseServingSize(text)
			fmt.Printf("%s %s\n", amount, unit)
			return nil
		},
	}
}
