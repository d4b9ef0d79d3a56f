package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/cryptodesk/internal/app"
	"github.com/newthinker/cryptodesk/internal/assistant"
	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/logger"
)

var (
	askTo     string
	askAmount float64
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about a cryptocurrency",
	Long: `Answer a question about a cryptocurrency, for example:

  cryptodesk ask "What's SOL doing today?" --to EUR --amount 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askTo, "to", "", "currency to convert into (USD, EUR, BTC, ETH, ...)")
	askCmd.Flags().Float64Var(&askAmount, "amount", 1, "amount of the asset to convert")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer as JSON")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	level := "warn"
	if debug {
		level = "debug"
	}
	log := logger.Must(debug, level)
	defer log.Sync()

	cfg, err := loadConfig(cfgFile, os.Getenv, log)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Fetch.LegTimeout)
	defer cancel()

	answer, err := a.Ask(ctx, assistant.Request{
		Query:     strings.Join(args, " "),
		ConvertTo: askTo,
		Amount:    askAmount,
	})
	if err != nil {
		log.Debug("ask failed", zap.Error(err))
		return userError(err)
	}
	return printAnswer(cmd.OutOrStdout(), answer, askJSON)
}

const conversionHint = "Try USD, a fiat currency such as EUR, or a crypto such as BTC or ETH."

// guidanceError replaces a coded error's text with advice for the user while
// keeping the code available to errors.Is.
type guidanceError struct {
	msg string
	err error
}

func (e *guidanceError) Error() string { return e.msg }
func (e *guidanceError) Unwrap() error { return e.err }

func userError(err error) error {
	var msg string
	switch {
	case errors.Is(err, core.ErrTickerNotFound):
		msg = "couldn't find a supported cryptocurrency in your question. Try 'Bitcoin' or 'Ethereum', or a ticker such as BTC."
	case errors.Is(err, core.ErrDataUnavailable):
		msg = "market data is unavailable right now. Check your connection and try again in a moment."
	case errors.Is(err, core.ErrConversionUnsupported):
		msg = "that conversion isn't supported. " + conversionHint
	case errors.Is(err, core.ErrInvalidAmount):
		msg = "the amount must be a positive number, for example --amount 2."
	case errors.Is(err, core.ErrInvalidRequest):
		msg = `ask a question, for example: cryptodesk ask "What's the price of Bitcoin?"`
	default:
		return err
	}
	return &guidanceError{msg: msg, err: err}
}

// printAnswer writes the composed text, or the whole answer as indented JSON
func printAnswer(w io.Writer, answer *assistant.Answer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	fmt.Fprintln(w, answer.Response)
	if answer.ConversionError != "" {
		fmt.Fprintf(w, "\nNote: %s\n%s\n", answer.ConversionError, conversionHint)
	}
	return nil
}
