package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docsbot-dev/docsbot/chat"
	"github.com/docsbot-dev/docsbot/config"
	"github.com/docsbot-dev/docsbot/formatter"
	"github.com/docsbot-dev/docsbot/index"
	"github.com/docsbot-dev/docsbot/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newAskCmd(o *options) *cobra.Command {
	var intent string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the persisted vector index and print the formatted answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), o, cmd.OutOrStdout(), strings.Join(args, " "), intent)
		},
	}

	cmd.Flags().StringVar(&intent, "intent", "", "intent of the question given to the chat prompt")

	return cmd
}

func runAsk(ctx context.Context, o *options, out io.Writer, question string, intent string) (err error) {
	v, err := o.loadConfig()
	if err != nil {
		return err
	}

	ic, err := config.GetIndexConfig(v)
	if err != nil {
		return err
	}

	lang := v.GetString(config.LanguageKey)
	profile, err := config.GetMessagesProfile(v, lang)
	if err != nil {
		return err
	}

	prompt, err := chat.LoadChatPrompt(ic.PromptPath, lang, intent)
	if err != nil {
		return err
	}

	sc, err := index.LoadServiceContext(ctx, ic)
	if err != nil {
		return err
	}
	defer sc.Close()

	idx, err := index.LoadIndexFromStorage(sc, index.LoadStorageContext(ic.Dimensions), ic.PersistDir)
	if store.IsNotFound(err) {
		return fmt.Errorf("no index in [%s], build it with the index command first", ic.PersistDir)
	}

	if err != nil {
		return err
	}

	resp, err := chat.NewPipeline(prompt, idx, sc.LLM, lang, ic.TopK).Answer(ctx, question, nil)
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintln(out, formatter.FormatResponse(formatter.NewConfig(profile), resp, profile.OutroMessage)); err != nil {
		return errors.Wrap(err, "failed to write answer")
	}

	return nil
}
