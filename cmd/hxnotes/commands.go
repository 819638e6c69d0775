package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/2beens/householdnotes/internal/notes"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errNoIdentity = errors.New("choose who you are first: hxnotes use Ben|Wife")

// newRootCmd builds the command tree. The app is created before any
// subcommand runs and handed back through *appRef so main can close it.
func newRootCmd(out io.Writer, appRef **app) *cobra.Command {
	var (
		env        string
		configPath string
		noColor    bool
	)

	root := &cobra.Command{
		Use:           "hxnotes",
		Short:         "Shared household notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true
			}
			a, err := newApp(cmd.Context(), appParams{
				Environment: env,
				ConfigPath:  configPath,
				Out:         out,
			})
			if err != nil {
				return err
			}
			*appRef = a
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&env, "env", "development", "environment [prod | production | dev | development]")
	root.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return run(cmd, *appRef, args)
		}
	}

	root.AddCommand(
		newWhoamiCmd(withApp),
		newUseCmd(withApp),
		newSwitchCmd(withApp),
		newListCmd(withApp),
		newShowCmd(withApp),
		newAddCmd(withApp),
		newEditCmd(withApp),
		newRemoveCmd(withApp),
		newPingCmd(withApp),
	)

	return root
}

type runWithApp func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func newWhoamiCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity used on this device",
		Args:  cobra.NoArgs,
		RunE: withApp(func(_ *cobra.Command, a *app, _ []string) error {
			author, ok := a.identity.Author()
			if !ok {
				fmt.Fprintln(a.out, "no identity chosen yet, run: hxnotes use Ben|Wife")
				return nil
			}
			fmt.Fprintf(a.out, "you are %s\n", authorBadge(author))
			return nil
		}),
	}
}

func newUseCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "use Ben|Wife",
		Short: "Choose who you are on this device",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
			author, err := notes.ParseAuthor(args[0])
			if err != nil {
				return err
			}
			if err := a.identity.SetAuthor(author); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "you are %s\n", authorBadge(author))
			return nil
		}),
	}
}

func newSwitchCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "switch",
		Short: "Switch between Ben and Wife",
		Args:  cobra.NoArgs,
		RunE: withApp(func(_ *cobra.Command, a *app, _ []string) error {
			author := a.identity.Toggle()
			fmt.Fprintf(a.out, "you are %s\n", authorBadge(author))
			return nil
		}),
	}
}

func newListCmd(withApp runWithApp) *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes, newest first",
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			filter, err := notes.ParseFilter(filterFlag)
			if err != nil {
				return err
			}

			a.syncer.SetFilter(cmd.Context(), filter)
			state := a.syncer.Snapshot()
			renderState(a.out, state, a.now())

			if state.Err != nil {
				return errSilent
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&filterFlag, "filter", "f", string(notes.FilterAll), "all | Ben | Wife")

	return cmd
}

func newShowCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one note",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseNoteId(args[0])
			if err != nil {
				return err
			}
			note, err := a.api.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderNote(a.out, *note, a.now())
			return nil
		}),
	}
}

func newAddCmd(withApp runWithApp) *cobra.Command {
	var form notes.Form

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a note as the current identity",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			author, err := a.requireAuthor()
			if err != nil {
				return err
			}

			payload, err := form.CreatePayload(author)
			if err != nil {
				return err
			}

			note, err := a.syncer.Create(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added #%d %s\n", note.Id, note.Title)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&form.Title, "title", "t", "", "note title (required)")
	cmd.Flags().StringVarP(&form.Body, "body", "b", "", "note body")

	return cmd
}

func newEditCmd(withApp runWithApp) *cobra.Command {
	var title, body string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit the title or body of a note",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseNoteId(args[0])
			if err != nil {
				return err
			}

			note, err := a.api.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			// start from the current values, like a prefilled form
			form := notes.FormFromNote(*note)
			if cmd.Flags().Changed("title") {
				form.Title = title
			}
			if cmd.Flags().Changed("body") {
				form.Body = body
			}

			payload, err := form.UpdatePayload()
			if err != nil {
				return err
			}

			updated, err := a.syncer.Update(cmd.Context(), id, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "updated #%d %s\n", updated.Id, updated.Title)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&body, "body", "b", "", "new body")

	return cmd
}

func newRemoveCmd(withApp runWithApp) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseNoteId(args[0])
			if err != nil {
				return err
			}

			if !yes && !confirm(cmd.InOrStdin(), a.out, fmt.Sprintf("delete note #%d?", id)) {
				fmt.Fprintln(a.out, "cancelled")
				return nil
			}

			if err := a.syncer.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted #%d\n", id)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// confirm asks a yes/no question; anything but an explicit yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func newPingCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the notes backend is reachable",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.api.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "ok [%s]\n", a.api.BaseUrl())
			return nil
		}),
	}
}

// errSilent marks a failure already shown to the user.
var errSilent = errors.New("silent")

func parseNoteId(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id: %q", s)
	}
	return id, nil
}
