package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"escore/pkg/config"
	"escore/pkg/driver"
	"escore/pkg/source"
)

const (
	exitOK       = 0
	exitScript   = 1
	exitUsage    = 64 // command line usage error
	exitInternal = 70 // internal software error
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("escore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	exprFlag := fs.String("e", "", "Run the given expression and exit")
	configFlag := fs.String("config", config.DefaultFileName, "Configuration file")
	envFlag := fs.String("env", ".env", "Environment overlay file")
	strictFlag := fs.Bool("strict", false, "Evaluate scripts as strict mode code")
	logLevelFlag := fs.String("log-level", "", "Log level: debug, info, warn or error")
	printConfigFlag := fs.Bool("print-config", false, "Print the effective configuration and exit")
	var preludeFlag stringList
	fs.Var(&preludeFlag, "prelude", "Script to evaluate before the main script (repeatable)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "escore: %v\n", err)
		return exitUsage
	}
	if err := cfg.ApplyEnv(*envFlag); err != nil {
		fmt.Fprintf(stderr, "escore: %v\n", err)
		return exitUsage
	}
	// Flags override the file and the environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strict":
			cfg.Strict = *strictFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		case "prelude":
			cfg.Prelude = append(cfg.Prelude, preludeFlag...)
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "escore: %v\n", err)
		return exitUsage
	}

	if *printConfigFlag {
		if err := cfg.Save(stdout); err != nil {
			fmt.Fprintf(stderr, "escore: %v\n", err)
			return exitInternal
		}
		return exitOK
	}

	if fs.NArg() > 1 || (*exprFlag != "" && fs.NArg() > 0) {
		fs.Usage()
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *exprFlag == "" && fs.NArg() == 0 {
		if err := runREPL(ctx, cfg); err != nil {
			fmt.Fprintf(stderr, "escore: %v\n", err)
			return exitInternal
		}
		return exitOK
	}

	var src *source.SourceFile
	baseDir := "."
	switch {
	case *exprFlag != "":
		src = source.NewEvalSource(*exprFlag)
	case fs.Arg(0) == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read stdin: %s\n", err.Error())
			return exitInternal
		}
		src = source.NewStdinSource(string(data))
	default:
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "escore: %v\n", err)
			return exitInternal
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read file '%s': %s\n", fs.Arg(0), err.Error())
			return exitInternal
		}
		src = source.FromFile(path, string(data))
		baseDir = filepath.Dir(path)
	}

	session, err := driver.NewSession(ctx,
		driver.WithConfig(cfg),
		driver.WithOutput(stdout, stderr),
		driver.WithBaseDir(baseDir),
	)
	if err != nil {
		fmt.Fprintf(stderr, "escore: %v\n", err)
		return exitInternal
	}
	value, errs := session.Run(ctx, src)
	if !session.DisplayResult(src.Content, value, errs) {
		return exitScript
	}
	return exitOK
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: escore [flags] [script | -]\n")
	fmt.Fprintf(w, "       escore [flags] -e \"expression\"\n")
	fmt.Fprintf(w, "With no script, an interactive REPL is started.\n\nFlags:\n")
	fs.PrintDefaults()
}

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}
