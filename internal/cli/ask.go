package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/logger"
)

const prompt = "Query: "

type askOptions struct {
	fileMatches     int
	sentenceMatches int
	query           string
	explain         bool
}

func newAskCommand(g *globalOptions) *cobra.Command {
	o := &askOptions{}
	cmd := &cobra.Command{
		Use:   "questions <corpus-dir>",
		Short: "Answer a question from a corpus of text documents",
		Long: `Loads every file in corpus-dir as a document, reads one question and
prints the sentences that best answer it, one per line.

The documents most relevant to the question are chosen by TF-IDF; their
sentences are then ranked by the inverse document frequency of the query
words they contain, ties going to the denser sentence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, g, o, args)
		},
	}
	cmd.Flags().IntVarP(&o.fileMatches, "file-matches", "f", 0, "number of documents to draw sentences from (default from config, 1)")
	cmd.Flags().IntVarP(&o.sentenceMatches, "sentence-matches", "s", 0, "number of sentences to print (default from config, 1)")
	cmd.Flags().StringVarP(&o.query, "query", "q", "", "question to answer instead of reading it from stdin")
	cmd.Flags().BoolVar(&o.explain, "explain", false, "print query terms, chosen files and scores to stderr")
	return cmd
}

func runAsk(cmd *cobra.Command, g *globalOptions, o *askOptions, args []string) error {
	cfg, err := g.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	useDir(cfg, args)
	if cmd.Flags().Changed("file-matches") {
		cfg.Retrieval.FileMatches = o.fileMatches
	}
	if cmd.Flags().Changed("sentence-matches") {
		cfg.Retrieval.SentenceMatches = o.sentenceMatches
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	query := o.query
	if !cmd.Flags().Changed("query") {
		in := cmd.InOrStdin()
		query, err = readQuery(in, cmd.ErrOrStderr(), isTerminal(in))
		if err != nil {
			return err
		}
	}

	ans, err := a.engine.Answer(ctx, query, a.limits())
	if err != nil {
		return err
	}
	if rec := a.recorder(); rec != nil {
		rec.Record(analytics.FromAnswer(ans, analytics.OriginCLI, logger.RequestID(ctx)))
	}
	if o.explain {
		explain(cmd.ErrOrStderr(), ans)
	}
	out := cmd.OutOrStdout()
	for _, s := range ans.Sentences {
		if _, err := fmt.Fprintln(out, s.Text); err != nil {
			return fmt.Errorf("writing answer: %w", err)
		}
	}
	return nil
}

// readQuery reads one line from in, prompting on errOut when interactive.
// End of input before a newline is accepted as the last line.
func readQuery(in io.Reader, errOut io.Writer, interactive bool) (string, error) {
	if interactive {
		fmt.Fprint(errOut, prompt)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading query: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func explain(w io.Writer, ans *engine.Answer) {
	fmt.Fprintf(w, "terms: %s\n", strings.Join(ans.Terms, " "))
	for i, f := range ans.Files {
		fmt.Fprintf(w, "file %d: %s (tf-idf %.4f)\n", i+1, f.DocID, f.Score)
	}
	for i, s := range ans.Sentences {
		fmt.Fprintf(w, "sentence %d: idf %.4f, density %.4f, from %s\n", i+1, s.Score, s.Density, s.Source)
	}
	fmt.Fprintf(w, "took: %s\n", ans.Took)
}
