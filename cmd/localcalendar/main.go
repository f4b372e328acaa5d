package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/guilherme-santos/localcalendar/calendar"
	"github.com/guilherme-santos/localcalendar/file"
	"github.com/guilherme-santos/localcalendar/internal"
	"github.com/guilherme-santos/localcalendar/internal/permission"
	"github.com/guilherme-santos/localcalendar/internal/repository"
	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

type command interface {
	Run(_ context.Context, _ *app, args []string) error
}

var commands = []struct {
	name, description string
	cmd               command
}{
	{AddCommand.Name, AddCommand.Description, AddCommand},
	{DeleteCommand.Name, DeleteCommand.Description, DeleteCommand},
	{ListCommand.Name, ListCommand.Description, ListCommand},
	{AccountCommand.Name, AccountCommand.Description, AccountCommand},
	{CountCommand.Name, CountCommand.Description, CountCommand},
	{ImportCommand.Name, ImportCommand.Description, ImportCommand},
}

var cfg struct {
	ConfigFile string
	Database   string
	Verbose    bool
}

func init() {
	flag.StringVar(&cfg.ConfigFile, "config", defaultConfigFile(), "configuration file")
	flag.StringVar(&cfg.Database, "db", "", "calendar database, overrides the configuration")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "log debug messages")
	flag.Usage = usage
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := run(ctx, c.cmd, args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", name)
	flag.Usage()
	os.Exit(2)
}

func run(ctx context.Context, cmd command, args []string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd.Run(ctx, a, args)
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "Usage of %s [options] <command> [arguments]:\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	flag.PrintDefaults()
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "localcalendar.yaml"
	}
	return filepath.Join(dir, "localcalendar", "config.yaml")
}

// app holds what the commands share: one store and the repository over it.
type app struct {
	cfg      *file.Config
	fs       afero.Fs
	out      io.Writer
	logOut   io.WriteCloser
	log      zerolog.Logger
	store    *sqlite.Storage
	repo     *repository.CalendarRepository
	registry *calendar.Registry
}

func newApp(ctx context.Context) (*app, error) {
	fsys := afero.NewOsFs()
	conf, err := file.Load(fsys, cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %v", err)
	}
	conf.ApplyEnv()
	if cfg.Database != "" {
		conf.Database = cfg.Database
	}
	if cfg.Verbose {
		conf.LogLevel = "debug"
	}
	palette, err := conf.Colors()
	if err != nil {
		return nil, fmt.Errorf("loading config: %v", err)
	}

	a := &app{
		cfg:      conf,
		fs:       fsys,
		out:      os.Stdout,
		registry: calendar.NewRegistry(),
	}
	var logOut io.Writer = os.Stderr
	if conf.LogFile != "" {
		a.logOut = &lumberjack.Logger{
			Filename:   conf.LogFile,
			MaxSize:    conf.LogMaxSizeMB,
			MaxBackups: 3,
		}
		logOut = a.logOut
	}
	a.log = internal.NewLogger(logOut, conf.LogLevel)

	db, err := sqlite.Open(conf.Database)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database: %v", err)
	}
	a.store, err = sqlite.NewStorage(ctx, db, a.log)
	if err != nil {
		db.Close()
		a.Close()
		return nil, fmt.Errorf("opening database: %v", err)
	}
	a.store.BusyRetries = conf.BusyRetries

	perms := permission.NewSet(permission.WriteCalendar)
	if conf.CanReadCalendar() {
		perms.Grant(permission.ReadCalendar)
	}
	a.repo = repository.New(a.store, perms, repository.Options{
		Palette: palette,
		Log:     a.log,
	})
	return a, nil
}

func (a *app) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.logOut != nil {
		a.logOut.Close()
	}
	return err
}
