package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/people"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find the best matching person for an embedding",
	Long: `Run the same matching as POST /api/scan from the command line.

Examples:
  face-recall scan --pair 7f3c --embedding "[0.12, -0.4, 0.33]"
  face-recall scan --pair 7f3c --embedding "[...]" --threshold 0.5 --json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("pair", "", "Pair ID (required)")
	scanCmd.Flags().String("embedding", "", "Embedding as a JSON array of numbers (required)")
	scanCmd.Flags().Float64("threshold", 0, "Override MATCH_THRESHOLD for this scan")
	scanCmd.Flags().Bool("json", false, "Output as JSON")
	scanCmd.MarkFlagRequired("pair")
	scanCmd.MarkFlagRequired("embedding")
}

func runScan(cmd *cobra.Command, args []string) error {
	pairID := mustGetString(cmd, "pair")
	raw := mustGetString(cmd, "embedding")
	jsonOutput := mustGetBool(cmd, "json")

	embedding, err := facematch.ParseEmbedding(raw)
	if err != nil {
		return err
	}
	query := make([]float64, len(embedding))
	for i, v := range embedding {
		query[i] = float64(v)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	service := a.service
	if cmd.Flags().Changed("threshold") {
		opts := people.Options{Threshold: mustGetFloat64(cmd, "threshold"), EmbeddingDim: a.cfg.Matching.EmbeddingDim}
		service = a.service.WithOptions(opts)
	}

	result, err := service.Scan(ctx, people.ScanRequest{PairID: pairID, Embedding: query})
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(result)
	}
	if !result.Matched {
		fmt.Println("No match.")
		return nil
	}
	fmt.Printf("Match: %s (%s)\n", result.Person.Name, result.Person.ID)
	fmt.Printf("  Score:        %.4f\n", *result.Score)
	if result.Person.Relationship != "" {
		fmt.Printf("  Relationship: %s\n", result.Person.Relationship)
	}
	return nil
}
