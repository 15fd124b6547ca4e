// Command microquest runs an interactive narrative session from the
// terminal: it builds a character from flags, starts a session against
// the configured backend, and feeds typed lines to the game master.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitstr0m/micro-quest/pkg/quest"
	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

type config struct {
	APIKey string `env:"OPENAI_API_KEY"`
	Model  string `env:"MICROQUEST_MODEL"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		name    string
		race    string
		class   string
		apiKey  string
		model   string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:          "microquest",
		Short:        "Play a short LLM-run text adventure",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg config
			if err := env.Parse(&cfg); err != nil {
				return fmt.Errorf("parse environment: %w", err)
			}
			if apiKey != "" {
				cfg.APIKey = apiKey
			}
			if model != "" {
				cfg.Model = model
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			character := schema.NewCharacterBuilder(name).
				WithRace(race).
				WithClass(class).
				Build()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return play(ctx, cfg, character, logger)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "character name")
	cmd.Flags().StringVar(&race, "race", "", "character race")
	cmd.Flags().StringVar(&class, "class", "", "character class")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "backend API key (falls back to OPENAI_API_KEY)")
	cmd.Flags().StringVar(&model, "model", "", "backend model (falls back to MICROQUEST_MODEL)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func play(ctx context.Context, cfg config, character schema.Character, logger *zap.Logger) error {
	handle, err := quest.NewBuilder(character).
		WithAPIKey(cfg.APIKey).
		WithModel(cfg.Model).
		WithLogger(logger).
		Build(ctx)
	if err != nil {
		return err
	}
	defer handle.Close()

	fmt.Printf("Playing %s, a %s %s. Type your actions; \"quit\" to leave.\n\n",
		character.Name, character.Race, character.Class)

	var view viewState
	if err := handle.Start(ctx); err != nil {
		reportTurnError(err)
	}
	view.render(handle.Snapshot())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if err := handle.Input(ctx, line); err != nil {
			reportTurnError(err)
		}
		view.render(handle.Snapshot())

		if ctx.Err() != nil {
			break
		}
	}

	return scanner.Err()
}

// viewState tracks what has already been printed so each render emits
// only the transcript delta and quest changes.
type viewState struct {
	printed int
	quest   schema.QuestDefinition
}

func (v *viewState) render(snapshot quest.Snapshot) {
	if snapshot.Quest != v.quest && !snapshot.Quest.IsZero() {
		v.quest = snapshot.Quest
		fmt.Printf("\n=== %s ===\n%s\nObjective: %s\n\n",
			v.quest.Title, v.quest.Description, v.quest.ObjectiveSummary)
	}

	for _, entry := range snapshot.Log[v.printed:] {
		switch entry.Speaker {
		case quest.SpeakerGameMaster:
			fmt.Printf("GM: %s\n", entry.Content)
		case quest.SpeakerPlayerCharacter:
			fmt.Printf("%s: %s\n", snapshot.Character.Name, entry.Content)
		}
	}
	v.printed = len(snapshot.Log)
}

func reportTurnError(err error) {
	if reason := questerrs.RefusalText(err); reason != "" {
		fmt.Printf("The game master declines: %s\n", reason)

		return
	}

	fmt.Printf("The turn failed (%s); try again.\n", questerrs.CodeOf(err))
}
