package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bulbank-notification-parser/cmd/bankmail/config"
)

var vocabularyYAML bool

// vocabularyCmd prints the active label vocabulary
var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary",
	Short: "Print the transaction type label vocabulary",
	Long: `Vocabulary prints the labels that classify a notification's transaction
type, longest first, as they are tried. With --yaml the vocabulary is written
in the format accepted by --vocabulary-file, which makes it a starting point
for a custom vocabulary.`,
	RunE: runVocabulary,
}

func init() {
	rootCmd.AddCommand(vocabularyCmd)
	vocabularyCmd.Flags().BoolVar(&vocabularyYAML, "yaml", false, "print as a YAML vocabulary file")
}

func runVocabulary(cmd *cobra.Command, args []string) error {
	appConfig, err := loadConfig()
	if err != nil {
		return err
	}
	vocab, err := config.CreateVocabulary(appConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if vocabularyYAML {
		return vocab.Encode(out)
	}

	fmt.Fprintf(out, "Vocabulary %s (%d labels)\n\n", vocab.Version(), vocab.Len())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tTRANSACTION TYPE")
	for _, e := range vocab.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Label, e.Type)
	}
	return w.Flush()
}
