package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/reader"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
)

func (a *app) summarizeCmd() *cobra.Command {
	var (
		n       int
		asJSON  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize a txt, pdf or docx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := reader.FormatFromFilename(args[0])
			if err != nil {
				return err
			}
			data, err := readFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			text, err := reader.Read(format, data)
			if err != nil {
				return err
			}

			resources, err := summarizer.LoadResources(a.cfg.Summarizer)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("sentences") {
				n = a.cfg.Summarizer.DefaultSentences
			}
			summary, err := summarizer.New(resources, summarizer.WithWorkers(a.cfg.Summarizer.Workers)).
				Summarize(cmd.Context(), text, n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			if verbose {
				for _, s := range summary.Sentences {
					fmt.Fprintf(out, "[%d] %s\n", s.Index, s.Text)
				}
				fmt.Fprintf(out, "\n%d of %d sentences\n", len(summary.Sentences), summary.SentenceCount)
				return nil
			}
			fmt.Fprintln(out, summary.Text)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "sentences", "n", 5, "number of sentences to extract")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print each selected sentence with its index")
	return cmd
}

func (a *app) evaluateCmd() *cobra.Command {
	var (
		refPath string
		sumPath string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a summary against a reference with ROUGE-1, ROUGE-2 and ROUGE-L",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := readFile(refPath)
			if err != nil {
				return fmt.Errorf("reading reference: %w", err)
			}
			sum, err := readFile(sumPath)
			if err != nil {
				return fmt.Errorf("reading summary: %w", err)
			}
			scores := evaluation.Evaluate(string(ref), string(sum))

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(scores)
			}
			fmt.Fprintf(out, "%-8s %9s %9s %9s\n", "metric", "precision", "recall", "f1")
			for _, row := range []struct {
				name string
				s    evaluation.Score
			}{{"rouge-1", scores.Rouge1}, {"rouge-2", scores.Rouge2}, {"rouge-l", scores.RougeL}} {
				fmt.Fprintf(out, "%-8s %9.4f %9.4f %9.4f\n", row.name, row.s.Precision, row.s.Recall, row.s.F1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&refPath, "reference", "", "reference summary file")
	cmd.Flags().StringVar(&sumPath, "summary", "", "generated summary file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print scores as JSON")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("summary")
	return cmd
}
