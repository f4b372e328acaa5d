package main

import (
	"context"
	"fmt"

	"github.com/guilherme-santos/localcalendar/internal"
	"github.com/guilherme-santos/localcalendar/internal/ics"
	"github.com/guilherme-santos/localcalendar/internal/importer"
)

var ImportCommand = _importCommand{
	Name:        "import",
	Description: "Import the events of an .ics file into a local calendar",
}

type _importCommand struct {
	Name        string
	Description string
}

func (s _importCommand) Run(ctx context.Context, a *app, args []string) error {
	var from internal.Date

	fs := newFlagSet(s.Name, "<calendar id> <file.ics>")
	fs.Var(&from, "from", "only import events since the date (e.g. 2022-08-12)")
	imp := importer.New(a.log, a.repo)
	fs.BoolVar(&imp.SkipRecurring, "skip-recurring", false, "ignore recurring events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := calendarIDArg(fs)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("%s: missing file", s.Name)
	}

	f, err := a.fs.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := imp.Import(ctx, id, ics.Events(ctx, f, a.log), from)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d event(s) imported into %d\n", n, id)
	return nil
}
