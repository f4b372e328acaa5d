package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Strings []string

func (i *Strings) String() string {
	return strings.Join(*i, ", ")
}

func (i *Strings) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func newFlagSet(name, arguments string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage of %s %s [options] %s:\n", os.Args[0], fs.Name(), arguments)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
	}
	return fs
}

func calendarIDArg(fs *flag.FlagSet) (int64, error) {
	if fs.NArg() < 1 {
		fs.Usage()
		return 0, fmt.Errorf("%s: missing calendar id", fs.Name())
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid calendar id %q", fs.Name(), fs.Arg(0))
	}
	return id, nil
}
