// Command giftwallet is a terminal client for the gift card wallet API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"giftwallet/internal/api"
	"giftwallet/internal/cli"
	"giftwallet/internal/config"
	"giftwallet/internal/core"
	"giftwallet/internal/log"
	"giftwallet/internal/render"
	"giftwallet/internal/wallet"
)

const usage = `usage: giftwallet [-api URL] <command> [args]

commands:
  list                 show the wallet
  show <id|last4>      show a card and its recent activity
  add [flags]          add a card (-number, -cvv, -month, -year, -balance)
  remove <id|last4>    remove a card
`

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat, Output: os.Stderr})

	if err := run(context.Background(), os.Args[1:], cfg, logger, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	fs := flag.NewFlagSet("giftwallet", flag.ContinueOnError)
	fs.SetOutput(out)
	baseURL := fs.String("api", cfg.APIBaseURL, "API base URL")
	timeout := fs.Duration("timeout", cfg.APITimeout, "request timeout")
	fs.Usage = func() { fmt.Fprint(out, usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	w := wallet.New(api.New(*baseURL, *timeout), wallet.Options{Logger: logger})
	r := render.New()
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "list":
		return list(ctx, w, r, out)
	case "show":
		return show(ctx, w, r, out, rest)
	case "add":
		return add(ctx, w, r, out, rest)
	case "remove", "rm":
		return remove(ctx, w, r, out, rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(ctx context.Context, w *wallet.Wallet, r *render.Renderer, out io.Writer) error {
	if err := w.LoadCards(ctx); err != nil {
		return fmt.Errorf("load cards: %w", err)
	}
	fmt.Fprintln(out, r.Page(w.Cards()))
	return nil
}

// findCard matches an id or the last four digits.
func findCard(ctx context.Context, w *wallet.Wallet, ref string) (core.CardView, error) {
	if err := w.LoadCards(ctx); err != nil {
		return core.CardView{}, fmt.Errorf("load cards: %w", err)
	}
	var match []core.CardView
	for _, v := range w.Cards().Cards {
		if v.ID == ref {
			return v, nil
		}
		if v.LastFourDigits == ref {
			match = append(match, v)
		}
	}
	switch len(match) {
	case 0:
		return core.CardView{}, fmt.Errorf("no card matches %q", ref)
	case 1:
		return match[0], nil
	default:
		return core.CardView{}, fmt.Errorf("%d cards end in %s, use the id", len(match), ref)
	}
}

func show(ctx context.Context, w *wallet.Wallet, r *render.Renderer, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: giftwallet show <id|last4>")
	}
	card, err := findCard(ctx, w, args[0])
	if err != nil {
		return err
	}
	w.SelectCard(ctx, card)
	w.Wait()
	fmt.Fprintln(out, r.Details(w.Details(), w.Transactions()))
	return nil
}

func add(ctx context.Context, w *wallet.Wallet, r *render.Renderer, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(out)
	var form core.AddCardForm
	fs.StringVar(&form.CardNumber, "number", "", "16 digit card number")
	fs.StringVar(&form.CVV, "cvv", "", "3 digit CVV")
	fs.StringVar(&form.ExpiryMonth, "month", "", "expiry month (01-12)")
	fs.StringVar(&form.ExpiryYear, "year", "", "expiry year (YY)")
	fs.StringVar(&form.Balance, "balance", "", "current balance, e.g. 50.00")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Group digits the way the input field does while typing.
	form.CardNumber = core.FormatCardNumber(form.CardNumber)

	res, err := w.AddCard(ctx, form)
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		for _, field := range fe.Fields() {
			fmt.Fprintf(out, "%s: %s\n", field, fe[field])
		}
		return errors.New("card not added")
	}
	if err != nil {
		return err
	}
	return finish(w, r, out, (<-res).Err)
}

func remove(ctx context.Context, w *wallet.Wallet, r *render.Renderer, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: giftwallet remove <id|last4>")
	}
	card, err := findCard(ctx, w, args[0])
	if err != nil {
		return err
	}
	return finish(w, r, out, (<-w.RemoveCard(ctx, card.ID)).Err)
}

// finish prints the toasts of a mutation and, on success, the refreshed
// wallet.
func finish(w *wallet.Wallet, r *render.Renderer, out io.Writer, err error) error {
	if toasts := r.Toasts(w.Notifier().Active()); strings.TrimSpace(toasts) != "" {
		fmt.Fprintln(out, toasts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, r.Page(w.Cards()))
	return nil
}
