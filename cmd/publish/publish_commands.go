package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-publish/pkg/publish"
)

type unitFlags struct {
	language string
	cefr     string
	topic    string
	date     string
	pages    int
}

func (f *unitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.language, "language", "", "Content language, e.g. French")
	cmd.Flags().StringVar(&f.cefr, "cefr", "", "CEFR level (A1-C2)")
	cmd.Flags().StringVar(&f.topic, "topic", "", "Topic, e.g. \"Daily Life\"")
	cmd.Flags().StringVar(&f.date, "date", "", "Creation date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.pages, "pages", 0, "Expected page count (0 skips the check)")
	for _, name := range []string{"language", "cefr", "topic", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *unitFlags) request(dir string) publish.UnitRequest {
	return publish.UnitRequest{
		Dir:      dir,
		Language: f.language,
		Level:    f.cefr,
		Topic:    f.topic,
		Date:     f.date,
		Pages:    f.pages,
	}
}

type publishFunc func(ctx context.Context, svc publish.Service) (*publish.Result, error)

// runPublish locks dir, publishes it and prints the outcome
func (c *commandContext) runPublish(cmd *cobra.Command, dir string, n needs, fn publishFunc) error {
	ctx := cmd.Context()
	svc, release, err := c.openService(ctx, n)
	if err != nil {
		return err
	}
	defer release()

	unlock, err := lockFolder(dir)
	if err != nil {
		return err
	}
	defer unlock()

	res, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res *publish.Result) {
	switch {
	case res.Unit.Type == publish.ContentTypeFlashcardDeck:
		fmt.Fprintf(w, "Published deck %d with %d cards (%s %s)\n", res.DeckID, res.Cards, res.Unit.Language.Display(), res.Unit.Level)
	case !res.Inserted:
		fmt.Fprintf(w, "Uploaded %d objects for %s; metadata already present\n", len(res.Keys), res.Unit)
	default:
		fmt.Fprintf(w, "Published %s (%d objects)\n", res.Unit, len(res.Keys))
	}
}

func newStoryCommand(c *commandContext) *cobra.Command {
	var flags unitFlags
	var requirePreview bool

	cmd := &cobra.Command{
		Use:   "story <folder>",
		Short: "Publish a story folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd, args[0], needs{store: true, repository: true}, func(ctx context.Context, svc publish.Service) (*publish.Result, error) {
				return svc.PublishStory(ctx, publish.StoryRequest{
					UnitRequest:    flags.request(args[0]),
					RequirePreview: requirePreview,
				})
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&requirePreview, "require-preview", false, "Fail when preview.txt is missing")
	return cmd
}

func newNewsCommand(c *commandContext) *cobra.Command {
	var flags unitFlags

	cmd := &cobra.Command{
		Use:   "news <folder>",
		Short: "Publish a news folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd, args[0], needs{store: true, repository: true}, func(ctx context.Context, svc publish.Service) (*publish.Result, error) {
				return svc.PublishNews(ctx, publish.NewsRequest{UnitRequest: flags.request(args[0])})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newAudiobookCommand(c *commandContext) *cobra.Command {
	var flags unitFlags
	var sourceType, tier string
	var skipSynthesis bool

	cmd := &cobra.Command{
		Use:   "audiobook <folder>",
		Short: "Voice and publish an audiobook folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := needs{store: true, repository: true, synthesizer: !skipSynthesis}
			return c.runPublish(cmd, args[0], n, func(ctx context.Context, svc publish.Service) (*publish.Result, error) {
				return svc.PublishAudiobook(ctx, publish.AudiobookRequest{
					UnitRequest:   flags.request(args[0]),
					SourceType:    sourceType,
					Tier:          tier,
					SkipSynthesis: skipSynthesis,
				})
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&sourceType, "source-type", "", "Narrated content type: Story or News")
	cmd.Flags().StringVar(&tier, "tier", "", "Subscription tier: FREE, BASIC or PREMIUM")
	cmd.Flags().BoolVar(&skipSynthesis, "skip-synthesis", false, "Publish existing page*.json instead of voicing page*.md")
	_ = cmd.MarkFlagRequired("source-type")
	_ = cmd.MarkFlagRequired("tier")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

func newDeckCommand(c *commandContext) *cobra.Command {
	var language, cefr, owner, date string

	cmd := &cobra.Command{
		Use:   "deck <folder>",
		Short: "Replace the cards of a system flashcard deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := needs{repository: true, deckOwner: owner == ""}
			return c.runPublish(cmd, args[0], n, func(ctx context.Context, svc publish.Service) (*publish.Result, error) {
				return svc.PublishDeck(ctx, publish.DeckRequest{
					Dir:      args[0],
					Language: language,
					Level:    cefr,
					Owner:    owner,
					Date:     date,
				})
			})
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Deck language, e.g. French")
	cmd.Flags().StringVar(&cefr, "cefr", "", "CEFR level (A1-C2)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner user id (defaults to ADMIN_USER_ID)")
	cmd.Flags().StringVar(&date, "date", "", "Creation date (YYYY-MM-DD, defaults to today)")
	_ = cmd.MarkFlagRequired("language")
	_ = cmd.MarkFlagRequired("cefr")
	return cmd
}

func newSynthesizeCommand(c *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "synthesize <folder>",
		Short: "Write page*.json for every page*.md without publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, release, err := c.openService(ctx, needs{synthesizer: true})
			if err != nil {
				return err
			}
			defer release()

			unlock, err := lockFolder(args[0])
			if err != nil {
				return err
			}
			defer unlock()

			n, err := svc.Synthesize(ctx, publish.SynthesizeRequest{Dir: args[0], Language: language})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d audiobook pages to %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Text language, selects the voice")
	_ = cmd.MarkFlagRequired("language")
	return cmd
}
