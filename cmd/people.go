package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/spf13/cobra"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List the people registered for a pair",
	Long: `List the people registered for a pair together with the number of
face embeddings stored for each.

Examples:
  face-recall people --pair 7f3c
  face-recall people --pair 7f3c --json`,
	RunE: runPeople,
}

func init() {
	rootCmd.AddCommand(peopleCmd)

	peopleCmd.Flags().String("pair", "", "Pair ID (required)")
	peopleCmd.Flags().Bool("json", false, "Output as JSON")
	peopleCmd.MarkFlagRequired("pair")
}

func runPeople(cmd *cobra.Command, args []string) error {
	pairID := mustGetString(cmd, "pair")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.service.GetPeople(ctx, pairID)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(list)
	}
	printPeople(list)
	return nil
}

func printPeople(list []database.PersonWithEmbeddings) {
	if len(list) == 0 {
		fmt.Println("No people registered.")
		return
	}
	fmt.Printf("%-36s  %-20s  %-14s  %-4s  %s\n", "ID", "NAME", "RELATIONSHIP", "AGE", "EMBEDDINGS")
	for _, p := range list {
		age := "-"
		if p.Age != nil {
			age = strconv.Itoa(*p.Age)
		}
		fmt.Printf("%-36s  %-20s  %-14s  %-4s  %d\n", p.ID, p.Name, p.Relationship, age, len(p.FaceEmbeddings))
	}
	fmt.Printf("\n%d people\n", len(list))
}
