package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/logger"
	"github.com/spigell/talent-scout/internal/review"
	"github.com/spigell/talent-scout/internal/sourcing"
)

const (
	PromptAccept           = "Accept"
	PromptReject           = "Reject"
	PromptShowShortlist    = "Show shortlist"
	PromptReorderShortlist = "Reorder shortlist"
	PromptShortlistToFile  = "Dump shortlist to file"
	PromptQuit             = "Quit"
	PromptBack             = "back"

	defaultLimit = 10
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Candidate",
	Items: []string{PromptAccept, PromptReject, PromptShowShortlist, PromptReorderShortlist, PromptShortlistToFile, PromptQuit},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search candidates for a job description and review them",
	Run: func(cmd *cobra.Command, _ []string) {
		search(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("description", "p", "", "job description text")
	searchCmd.Flags().String("description-file", "", "file with the job description. Stdin is read when neither is set.")
	searchCmd.Flags().BoolP("auto-accept", "y", false, "accept every candidate without asking")
	searchCmd.Flags().Int("limit", defaultLimit, "number of candidates to accept in auto-accept mode")
	searchCmd.Flags().StringP("exclude-file", "e", "", "file with GitHub users to exclude. Default is unset.")

	viper.BindPFlag("exclude-file", searchCmd.Flags().Lookup("exclude-file"))
}

func search(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talent-scout", zap.String("version", resolveVersion()))

	jobDescription, err := readDescription(cmd, os.Stdin)
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	pipeline, err := newPipeline(ctx, config, nil, logger)
	if err != nil {
		logger.Fatal("creating the pipeline", zap.Error(err))
	}

	board, err := newBoard(config, logger)
	if err != nil {
		logger.Fatal("creating the review board", zap.Error(err))
	}

	keywords, err := pipeline.ExtractKeywords(ctx, jobDescription)
	if err != nil {
		logger.Fatal("extracting keywords", zap.Error(err))
	}

	logger.Info("starting the search", zap.Strings("keywords", keywords))

	autoAccept, _ := cmd.Flags().GetBool("auto-accept")
	limit, _ := cmd.Flags().GetInt("limit")

	for {
		candidate, err := pipeline.FetchNextCandidate(ctx, keywords, board.Exclusions())
		if errors.Is(err, sourcing.ErrExhausted) {
			logger.Info("exiting", zap.String("reason", err.Error()))
			break
		}
		if err != nil {
			logger.Fatal("fetching the next candidate", zap.Error(err))
		}

		board.Show(candidate)
		printCandidate(os.Stdout, candidate)

		if autoAccept {
			if _, err := board.Accept(); err != nil {
				logger.Fatal("accepting candidate", zap.Error(err))
			}
			if len(board.Shortlist()) >= limit {
				logger.Info("exiting", zap.String("reason", "limit reached"), zap.Int("limit", limit))
				break
			}
			continue
		}

		if err := decide(board, logger); err != nil {
			if errors.Is(err, errExit) {
				break
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	snapshot := pipeline.Session().Snapshot()
	logger.Info("search finished",
		zap.Int("shortlisted", len(board.Shortlist())),
		zap.Int("rejected", len(board.Rejected())),
		zap.Int("tokens_used", snapshot.TokensUsed),
		zap.Int("skipped", len(snapshot.Skips)),
	)
	printShortlist(os.Stdout, board.Shortlist())
}

// decide prompts until the current candidate is accepted or rejected.
func decide(board *review.Board, logger *zap.Logger) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		decided, err := handleAction(action, board, logger)
		if err != nil || decided {
			return err
		}
	}
}

func handleAction(action string, board *review.Board, logger *zap.Logger) (bool, error) {
	switch action {
	case PromptAccept:
		c, err := board.Accept()
		if err != nil {
			return false, err
		}
		logger.Info("accepted", zap.String("login", c.Login))
		return true, nil
	case PromptReject:
		login, err := board.Reject()
		if err != nil {
			return false, err
		}
		logger.Info("rejected", zap.String("login", login))
		return true, nil
	case PromptShowShortlist:
		printShortlist(os.Stdout, board.Shortlist())
		return false, nil
	case PromptReorderShortlist:
		return false, reorder(board)
	case PromptShortlistToFile:
		filename, err := board.Export("")
		if err != nil {
			return false, fmt.Errorf("dump shortlist to file: %w", err)
		}
		logger.Info("dumping shortlist to file", zap.String("filename", filename))
		return false, nil
	case PromptQuit:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return false, errExit
	default:
		return false, fmt.Errorf("invalid action: %s", action)
	}
}

// reorder moves one shortlisted candidate to a new position.
func reorder(board *review.Board) error {
	shortlist := board.Shortlist()
	if len(shortlist) < 2 {
		fmt.Println("nothing to reorder")
		return nil
	}

	items := make([]string, 0, len(shortlist)+1)
	for i, c := range shortlist {
		items = append(items, fmt.Sprintf("%d. %s (%.1f)", i+1, c.Login, c.MatchScore))
	}

	selectPrompt := promptui.Select{
		Label: "Choose a candidate to move and press ENTER",
		Items: append(items, PromptBack),
	}

	from, selected, err := selectPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	positionPrompt := promptui.Prompt{
		Label:    fmt.Sprintf("New position (1-%d)", len(shortlist)),
		Validate: positionValidator(len(shortlist)),
	}

	answer, err := positionPrompt.Run()
	if err != nil {
		return err
	}

	to, _ := strconv.Atoi(strings.TrimSpace(answer))
	return board.Move(from, to-1)
}

func positionValidator(n int) promptui.ValidateFunc {
	return func(input string) error {
		pos, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return errors.New("enter a number")
		}
		if pos < 1 || pos > n {
			return fmt.Errorf("position must be between 1 and %d", n)
		}
		return nil
	}
}

// readDescription takes the job description from flags, falling back to stdin.
func readDescription(cmd *cobra.Command, stdin io.Reader) (string, error) {
	if text, _ := cmd.Flags().GetString("description"); strings.TrimSpace(text) != "" {
		return text, nil
	}

	if path, _ := cmd.Flags().GetString("description-file"); strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading description file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading description from stdin: %w", err)
	}
	return string(data), nil
}

func printCandidate(w io.Writer, c *sourcing.Candidate) {
	fmt.Fprintf(w, "\n%s (@%s)  score %.1f\n", c.Name, c.Login, c.MatchScore)
	fmt.Fprintf(w, "  %s\n", c.ProfileURL)
	if c.Summary != "" {
		fmt.Fprintf(w, "  %s\n", c.Summary)
	}
	if len(c.Skills) > 0 {
		fmt.Fprintf(w, "  skills: %s\n", strings.Join(c.Skills, ", "))
	}
	for _, repo := range c.Repositories {
		fmt.Fprintf(w, "  - %s [%s]\n", repo.Name, strings.Join(repo.Languages, ", "))
	}
	fmt.Fprintf(w, "\n  %s\n\n", c.Justification)
}

func printShortlist(w io.Writer, shortlist []*sourcing.Candidate) {
	if len(shortlist) == 0 {
		fmt.Fprintln(w, "shortlist is empty")
		return
	}
	for i, c := range shortlist {
		fmt.Fprintf(w, "%d. %s %s (%.1f)\n", i+1, c.Login, c.ProfileURL, c.MatchScore)
	}
}
