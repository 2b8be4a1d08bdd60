package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/spf13/cobra"
)

const chatHelp = "/new  /list  /switch <id>  /rename <title>  /delete [id]  /clear  /lang <code>  /exit"

var errExit = errors.New("exit")

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long:  `Chat with CivicChat in the active session. Lines starting with '/' are commands: ` + chatHelp,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return current.chatLoop(cmd.Context(), cmd.InOrStdin())
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a single question in the active session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current.askAndRender(cmd.Context(), strings.Join(args, " "))
		return nil
	},
}

// chatLoop reads lines until EOF or /exit
func (a *app) chatLoop(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(a.out, renderTranscript(a.store.Active()))
	fmt.Fprintln(a.out, hintStyle.Render(chatHelp))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "\n> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			err := a.command(ctx, line)
			if errors.Is(err, errExit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(a.out, errorStyle.Render(err.Error()))
			}
			continue
		}

		a.askAndRender(ctx, line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// command executes one slash command
func (a *app) command(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "exit", "quit":
		return errExit

	case "new":
		s, err := a.store.Create(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, renderTranscript(s))

	case "list":
		fmt.Fprintln(a.out, renderSessionList(a.store.Sessions(), a.store.ActiveID()))

	case "switch":
		if arg == "" {
			return errors.New("usage: /switch <id>")
		}
		if err := a.store.Select(ctx, arg); err != nil {
			return describe(err)
		}
		fmt.Fprintln(a.out, renderTranscript(a.store.Active()))

	case "rename":
		s, err := a.store.Rename(ctx, a.store.ActiveID(), arg)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(a.out, hintStyle.Render("Renamed to "+s.Title))

	case "delete":
		id := arg
		if id == "" {
			id = a.store.ActiveID()
		}
		if err := a.store.Delete(ctx, id); err != nil {
			return describe(err)
		}
		fmt.Fprintln(a.out, renderTranscript(a.store.Active()))

	case "clear":
		s, err := a.store.ClearAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, renderTranscript(s))

	case "lang":
		if arg == "" {
			fmt.Fprintln(a.out, hintStyle.Render("Answering in "+a.lang))
			return nil
		}
		a.lang = arg
		fmt.Fprintln(a.out, hintStyle.Render("Answering in "+a.lang))

	case "help":
		fmt.Fprintln(a.out, hintStyle.Render(chatHelp))

	default:
		return fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return nil
}

func describe(err error) error {
	if errors.Is(err, civic.ErrNotFound) {
		return errors.New("no session with that id")
	}
	return err
}
