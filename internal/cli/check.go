package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TwigBush/kmpolicy/internal/logging"
	"github.com/TwigBush/kmpolicy/internal/policy"
	"github.com/TwigBush/kmpolicy/internal/token"
	"github.com/TwigBush/kmpolicy/internal/trace"
)

// CheckResult is one evaluated token. Tokens are never echoed, only their
// fingerprint.
type CheckResult struct {
	Line        int           `json:"line,omitempty"  yaml:"line,omitempty"`
	Fingerprint string        `json:"token_fp"        yaml:"token_fp"`
	Handle      bool          `json:"handle"          yaml:"handle"`
	Reason      policy.Reason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Claim       string        `json:"claim,omitempty" yaml:"claim,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Trace       string        `json:"trace"           yaml:"trace"`
}

func cmdCheck() *cobra.Command {
	var tok string
	var file string
	var workers int

	c := &cobra.Command{
		Use:   "check",
		Short: "Decide whether the configured key manager handles a token",
		Example: `  kmpolicy check --token eyJhbGciOi...
  kmpolicy check --file tokens.txt -o yaml
  cat tokens.txt | kmpolicy check --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (tok == "") == (file == "") {
				return fmt.Errorf("exactly one of --token or --file is required")
			}
			_, p, log, err := loadPolicy()
			if err != nil {
				return err
			}

			if tok != "" {
				res, evalErr := evaluate(cmd.Context(), p, log, tok)
				if err := render(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				return evalErr
			}

			b, err := readInput(file)
			if err != nil {
				return err
			}
			toks, err := splitTokens(bytes.NewReader(b))
			if err != nil {
				return err
			}
			results, err := checkAll(cmd.Context(), p, log, toks, workers)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), results)
		},
	}
	c.Flags().StringVar(&tok, "token", "", "bearer token to check")
	c.Flags().StringVarP(&file, "file", "f", "", "file with one token per line, - for stdin")
	c.Flags().IntVar(&workers, "workers", 8, "tokens evaluated in parallel with --file")
	return c
}

type lineToken struct {
	line int
	tok  string
}

// splitTokens skips blank lines and # comments, keeping 1-based line numbers.
// Lines have no length limit.
func splitTokens(r io.Reader) ([]lineToken, error) {
	var out []lineToken
	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read tokens at line %d: %w", n, err)
		}
		if s := strings.TrimSpace(line); s != "" && !strings.HasPrefix(s, "#") {
			out = append(out, lineToken{line: n, tok: s})
		}
		if err != nil {
			return out, nil
		}
	}
}

// checkAll evaluates tokens concurrently; results keep input order. A token
// that fails to parse is reported in its result, not as an error.
func checkAll(ctx context.Context, p *policy.Policy, log zerolog.Logger, toks []lineToken, workers int) ([]CheckResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]CheckResult, len(toks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, lt := range toks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, _ := evaluate(ctx, p, log, lt.tok)
			res.Line = lt.line
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluate gives each token its own trace id so its log lines can be found.
func evaluate(ctx context.Context, p *policy.Policy, log zerolog.Logger, tok string) (CheckResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := trace.NewID()
	ctx = trace.With(ctx, id)
	d, err := p.WithLogger(logging.WithTrace(ctx, log)).Evaluate(tok)

	res := CheckResult{
		Fingerprint: token.Fingerprint(tok),
		Handle:      d.Handle,
		Reason:      d.Reason,
		Claim:       d.Claim,
		Trace:       id,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res, err
}
