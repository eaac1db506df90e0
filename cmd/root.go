package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-recall",
	Short: "Backend for a face recognition memory aid",
	Long: `Face Recall stores the familiar people of a pair (a user and a
caregiver) together with a profile image and face embeddings, and answers
scans from the mobile client with the best matching person.

Configuration is read from the environment; a .env file in the working
directory is loaded when present.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
