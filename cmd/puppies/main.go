package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
	"github.com/eugenenazirov/hungry-puppies/internal/logging"
	"github.com/eugenenazirov/hungry-puppies/internal/solver"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "puppies: %v\n", err)
		os.Exit(1)
	}
}

var errArgsAndFile = errors.New("treat sizes given both as arguments and with --file")

type options struct {
	sizes     []int
	file      string
	score     bool
	verbose   bool
	maxTreats int
	timeout   time.Duration
}

func parseArgs(args []string) (options, error) {
	var opts options

	app := kingpin.New("puppies", "Hand out treats so that as many puppies as possible are happy")
	app.Flag("file", "Read treat sizes from a file instead of arguments ('-' for stdin)").Short('f').StringVar(&opts.file)
	app.Flag("score", "Score the treats in the given order instead of searching").BoolVar(&opts.score)
	app.Flag("verbose", "Log search statistics to stderr").Short('v').BoolVar(&opts.verbose)
	app.Flag("max-treats", "Maximum number of treats to search (0 disables the limit)").Default("0").IntVar(&opts.maxTreats)
	app.Flag("timeout", "Give up the search after this long (0 waits forever)").Default("0s").DurationVar(&opts.timeout)
	app.Arg("sizes", "Treat sizes").IntsVar(&opts.sizes)

	if _, err := app.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	logger, err := logging.NewConsole(opts.verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if len(opts.sizes) > 0 && opts.file != "" {
		return errArgsAndFile
	}

	treats := opts.sizes
	if len(treats) == 0 {
		treats, err = readTreats(opts.file, stdin)
		if err != nil {
			return err
		}
	}

	if opts.score {
		if err := validate(treats); err != nil {
			return err
		}
		fmt.Fprintln(stdout, lineup.Score(treats))
		fmt.Fprintln(stdout, formatTreats(treats))
		return nil
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := solver.New(solver.WithMaxTreats(opts.maxTreats)).Solve(ctx, treats)
	if err != nil {
		return err
	}
	logger.Debug("search finished",
		zap.Int("treats", len(treats)),
		zap.Int("happiness", result.Happiness),
		zap.Int("guess", result.GuessHappiness),
		zap.Int64("nodes", result.Stats.Nodes),
		zap.Int64("pruned", result.Stats.Pruned),
		zap.Duration("duration", time.Since(start)),
	)

	fmt.Fprintln(stdout, result.Happiness)
	fmt.Fprintln(stdout, formatTreats(result.Treats))
	return nil
}

// readTreats reads sizes separated by whitespace, commas or brackets from
// path, or from stdin when path is empty or "-".
func readTreats(path string, stdin io.Reader) ([]int, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open treats file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read treats: %w", err)
	}
	return parseTreats(string(data))
}

func parseTreats(raw string) ([]int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', '[', ']', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})

	treats := make([]int, 0, len(fields))
	for _, field := range fields {
		size, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid treat size %q", field)
		}
		treats = append(treats, size)
	}
	return treats, nil
}

func validate(treats []int) error {
	if len(treats) == 0 {
		return solver.ErrNoTreats
	}
	for _, size := range treats {
		if size <= 0 {
			return fmt.Errorf("%w: got %d", solver.ErrInvalidTreatSize, size)
		}
	}
	return nil
}

func formatTreats(treats []int) string {
	parts := make([]string, len(treats))
	for i, size := range treats {
		parts[i] = strconv.Itoa(size)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
