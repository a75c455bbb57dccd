// Command sumctl summarizes documents locally, evaluates summaries with ROUGE
// and administers the summarizer's API keys.
//
// Usage:
//
//	sumctl summarize report.pdf -n 5
//	sumctl evaluate --reference ref.txt --summary out.txt
//	sumctl keys create --name dashboard
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
