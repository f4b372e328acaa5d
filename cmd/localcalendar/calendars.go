package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/file"
)

var AddCommand = _addCommand{
	Name:        "add",
	Description: "Add a local calendar",
}

type _addCommand struct {
	Name        string
	Description string
}

func (s _addCommand) Run(ctx context.Context, a *app, args []string) error {
	var account string

	fs := newFlagSet(s.Name, "<display name>")
	fs.StringVar(&account, "account", a.cfg.DefaultAccount, "local account owning the calendar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	displayName := strings.Join(fs.Args(), " ")
	if displayName == "" {
		fs.Usage()
		return errors.New("add: missing display name")
	}

	id, err := a.repo.AddLocalCalendar(ctx, account, displayName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Calendar %q added to %q with id %d\n", displayName, account, id)
	return nil
}

var DeleteCommand = _deleteCommand{
	Name:        "delete",
	Description: "Delete a local calendar and its events",
}

type _deleteCommand struct {
	Name        string
	Description string
}

func (s _deleteCommand) Run(ctx context.Context, a *app, args []string) error {
	var account string

	fs := newFlagSet(s.Name, "<calendar id>")
	fs.StringVar(&account, "account", a.cfg.DefaultAccount, "local account owning the calendar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := calendarIDArg(fs)
	if err != nil {
		return err
	}

	ok, err := a.repo.DeleteLocalCalendar(ctx, account, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no local calendar %d in %q", id, account)
	}
	fmt.Fprintf(a.out, "Calendar %d deleted\n", id)
	return nil
}

var ListCommand = _listCommand{
	Name:        "list",
	Description: "List calendars ordered by account",
}

type _listCommand struct {
	Name        string
	Description string
}

func (s _listCommand) Run(ctx context.Context, a *app, args []string) error {
	var (
		watch    bool
		timeout  time.Duration
		accounts Strings
	)

	fs := newFlagSet(s.Name, "")
	fs.BoolVar(&watch, "watch", false, "keep listing after every change until interrupted")
	fs.DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the calendars")
	fs.Var(&accounts, "account", "only list calendars of the account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots := a.repo.CalendarsOrderedByAccount(ctx)
	for {
		select {
		case cals, ok := <-snapshots:
			if !ok {
				return nil
			}
			s.print(a, filterAccounts(cals, accounts))
			if !watch {
				return nil
			}
		case <-time.After(timeout):
			if watch {
				continue
			}
			if !a.cfg.CanReadCalendar() {
				return errors.New("list: reading calendars isn't allowed, see read_calendar in the configuration")
			}
			return errors.New("list: timed out waiting for the calendars")
		case <-ctx.Done():
			return nil
		}
	}
}

func (s _listCommand) print(a *app, cals []localcalendar.Calendar) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACCOUNT\tTYPE\tNAME\tCOLOR\tVISIBLE\tSYNC")
	for _, cal := range cals {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%t\n",
			cal.ID, cal.AccountName, a.registry.Label(cal.AccountType), cal.DisplayName,
			file.FormatColor(cal.Color), cal.Visible, cal.SyncEvents)
	}
	w.Flush()
	fmt.Fprintln(a.out)
}

func filterAccounts(cals []localcalendar.Calendar, accounts []string) []localcalendar.Calendar {
	if len(accounts) == 0 {
		return cals
	}
	var out []localcalendar.Calendar
	for _, cal := range cals {
		if slices.Contains(accounts, cal.AccountName) {
			out = append(out, cal)
		}
	}
	return out
}

var AccountCommand = _accountCommand{
	Name:        "account",
	Description: "Show the account owning a calendar",
}

type _accountCommand struct {
	Name        string
	Description string
}

func (s _accountCommand) Run(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(s.Name, "<calendar id>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := calendarIDArg(fs)
	if err != nil {
		return err
	}

	acc, err := a.repo.QueryAccount(ctx, id)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("calendar %d not found", id)
	}
	fmt.Fprintf(a.out, "%s (%s)\n", acc.Name, a.registry.Label(acc.Type))
	return nil
}

var CountCommand = _countCommand{
	Name:        "count",
	Description: "Count the events of a calendar",
}

type _countCommand struct {
	Name        string
	Description string
}

func (s _countCommand) Run(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(s.Name, "<calendar id>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := calendarIDArg(fs)
	if err != nil {
		return err
	}

	n, ok, err := a.repo.QueryNumberOfEvents(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unable to count the events of %d", id)
	}
	fmt.Fprintln(a.out, n)
	return nil
}
