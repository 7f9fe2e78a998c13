// Package cli holds the flags and setup shared by the openrec commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
)

var errInterrupted = errors.New("interrupted")

type Flags struct {
	showVersion bool
	profiles    profiles
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.StringVar(&f.profiles.cpuPath, "cpuprofile", "", "write cpu profile to given file name")
	fs.StringVar(&f.profiles.memPath, "memprofile", "", "write allocation profile to given file name on exit")
}

type Initializer interface {
	Init() error
}

// Init prints the version and exits if -version was given.  Otherwise it
// initializes each of all, starts any requested profiles, and returns a
// context that is canceled on SIGINT, SIGPIPE, or SIGTERM along with a
// function that releases both.
func (f *Flags) Init(all ...Initializer) (context.Context, func(), error) {
	if f.showVersion {
		fmt.Printf("openrec %s\n", Version())
		os.Exit(0)
	}
	for _, flags := range all {
		if err := flags.Init(); err != nil {
			return nil, nil, err
		}
	}
	if err := f.profiles.start(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGPIPE, syscall.SIGTERM)
	return interrupted{ctx}, func() {
		cancel()
		f.profiles.stop()
	}, nil
}

// interrupted reports a canceled run as "interrupted" rather than
// "context canceled".
type interrupted struct{ context.Context }

func (i interrupted) Err() error {
	if err := i.Context.Err(); !errors.Is(err, context.Canceled) {
		return err
	}
	return errInterrupted
}

type profiles struct {
	cpuPath string
	memPath string
	cpuFile *os.File
}

func (p *profiles) start() error {
	if p.cpuPath == "" {
		return nil
	}
	f, err := os.Create(p.cpuPath)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}
	p.cpuFile = f
	return nil
}

func (p *profiles) stop() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
	}
	if p.memPath != "" {
		if err := writeAllocs(p.memPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func writeAllocs(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
