package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"webtoon-rag/internal/app"
	"webtoon-rag/internal/rag"
)

var (
	windowSize int
	verbose    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question, or start an interactive session",
	Long: `Ask a question about the webtoon.

With a question argument the answer is printed once. Without one an
interactive session starts; type "exit" or "quit" to leave.

Examples:
  webtoonqa ask "3화 줄거리 알려줘"
  webtoonqa ask "조이와 동구가 처음 만난 장면" --window 2 --verbose
  webtoonqa ask`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVar(&windowSize, "window", -1, "Neighbour window size (default from config)")
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show rewritten query and stage latencies")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	req := rag.AskRequest{Debug: verbose}
	if cmd.Flags().Changed("window") {
		req.WindowSize = &windowSize
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		req.Question = args[0]
		resp, err := a.Engine.Ask(ctx, req)
		if err != nil {
			return err
		}
		renderAnswer(out, resp, verbose)
		return nil
	}
	return repl(ctx, a.Engine, req, cmd.InOrStdin(), out)
}

// repl answers one question per input line until EOF or an exit command.
// Errors are printed and the session continues.
func repl(ctx context.Context, engine rag.Engine, base rag.AskRequest, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, headerStyle.Render("Webtoon QA")+" "+contextStyle.Render(`(type "exit" to quit)`))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, accentStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		req := base
		req.Question = line
		resp, err := engine.Ask(ctx, req)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("Error:"), err)
			continue
		}
		renderAnswer(out, resp, req.Debug)
		fmt.Fprintln(out)
	}
}
