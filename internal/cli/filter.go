package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gzhole/streamguard/internal/config"
	"github.com/gzhole/streamguard/internal/guard"
	"github.com/gzhole/streamguard/internal/logger"
	"github.com/gzhole/streamguard/internal/policy"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	filterText      string
	filterChunkSize int
	filterMaxBuffer int
	filterThreshold int
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a text stream through StreamGuard",
	Long: `Read text from stdin (or --text) in chunks, evaluate every chunk with the
guard engine, and write the permitted text to stdout.

In enforce mode rewrites are applied and the stream stops at the first
block. In audit mode the text passes through unchanged and every
non-allow decision is written to the audit log.

Examples:
  some-llm-client | streamguard filter
  streamguard filter --text "my password is hunter2"
  streamguard filter --mode audit --chunk-size 16 < transcript.txt`,
	RunE: filterCommand,
}

func init() {
	filterCmd.Flags().StringVar(&filterText, "text", "", "Filter this text instead of stdin")
	filterCmd.Flags().IntVar(&filterChunkSize, "chunk-size", 0, "Bytes read per chunk (default 256)")
	filterCmd.Flags().IntVar(&filterMaxBuffer, "max-buffer", 0, "Override the engine's held-back byte limit")
	filterCmd.Flags().IntVar(&filterThreshold, "threshold", 0, "Override the policy score threshold")
	rootCmd.AddCommand(filterCmd)
}

func filterCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, logPath, mode)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if filterChunkSize > 0 {
		cfg.Engine.ChunkSize = filterChunkSize
	}
	if filterThreshold > 0 {
		cfg.Engine.ScoreThreshold = filterThreshold
	}
	var overrides []guard.Option
	if filterMaxBuffer > 0 {
		overrides = append(overrides, guard.WithMaxBuffer(filterMaxBuffer))
	}

	engine, pol, err := loadEngine(cfg, overrides...)
	if err != nil {
		return err
	}

	var logOpts []logger.Option
	if !pol.Defaults.Redacts() {
		logOpts = append(logOpts, logger.WithoutRedaction())
	}
	auditLogger, err := logger.New(cfg.LogPath, logOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	defer auditLogger.Close()

	var in io.Reader = os.Stdin
	if filterText != "" {
		in = strings.NewReader(filterText)
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Reading from terminal. End input with Ctrl-D.")
	}

	out := bufio.NewWriter(os.Stdout)
	f := &streamFilter{
		engine:  engine,
		out:     out,
		mode:    cfg.Mode,
		audit:   auditLogger,
		session: logger.NewSession(),
	}
	res, err := f.run(in, cfg.Engine.ChunkSize)
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		return err
	}

	if res.Stopped {
		fmt.Fprintln(os.Stderr, "\n\xe2\x9d\x8c BLOCKED by StreamGuard") // ❌
		fmt.Fprintln(os.Stderr, res.Reason)
		os.Exit(1)
	}
	if cfg.Mode == config.ModeAudit && res.Blocks > 0 {
		fmt.Fprintf(os.Stderr, "\n\xe2\x9a\xa0  %d block decision(s) recorded in %s\n", res.Blocks, cfg.LogPath)
	}
	return nil
}

// loadEngine builds an engine from the policy file, installed packs and
// the engine settings in cfg. Options in overrides are applied last.
func loadEngine(cfg *config.Config, overrides ...guard.Option) (*guard.Engine, *policy.Policy, error) {
	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load policy: %w", err)
	}
	pol, infos, err := policy.LoadPacks(cfg.PacksDir, pol)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load packs: %w", err)
	}
	for _, info := range infos {
		if info.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping pack %s: %v\n", info.Name, info.Err)
		}
	}

	var opts []guard.Option
	if pol.Defaults.MaxBuffer == 0 && cfg.Engine.MaxBuffer > 0 {
		opts = append(opts, guard.WithMaxBuffer(cfg.Engine.MaxBuffer))
	}
	if cfg.Engine.ScoreThreshold > 0 {
		opts = append(opts, guard.WithScoreThreshold(cfg.Engine.ScoreThreshold))
	}

	engine, err := policy.Build(pol, append(opts, overrides...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build engine: %w", err)
	}
	return engine, pol, nil
}

// filterResult summarizes one filtered stream.
type filterResult struct {
	Chunks   int
	Rewrites int
	Blocks   int
	Reason   string
	// Stopped is set when enforce mode cut the stream short.
	Stopped bool
}

// streamFilter forwards text through an engine. It holds back exactly the
// text the engine reports as buffered, so anything written to out is final.
type streamFilter struct {
	engine  *guard.Engine
	out     io.Writer
	mode    string
	audit   *logger.AuditLogger
	session string

	pending string
	result  filterResult
}

func (f *streamFilter) run(r io.Reader, chunkSize int) (filterResult, error) {
	if chunkSize <= 0 {
		chunkSize = config.DefaultEngineConfig().ChunkSize
	}

	buf := make([]byte, chunkSize+utf8.UTFMax)
	carry := 0
	for {
		n, readErr := io.ReadAtLeast(r, buf[carry:carry+chunkSize], 1)
		data := buf[:carry+n]

		// A read can end inside a multi-byte rune. Hold the partial rune
		// back unless the input is finished.
		end := len(data)
		if readErr == nil {
			end = completeRunes(data)
		}
		if end > 0 {
			stop, err := f.feed(string(data[:end]))
			if err != nil || stop {
				return f.result, err
			}
		}
		carry = copy(buf, data[end:])

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				break
			}
			return f.result, readErr
		}
	}

	_, err := f.handle(f.engine.Flush(), "")
	return f.result, err
}

func (f *streamFilter) feed(chunk string) (bool, error) {
	f.result.Chunks++
	f.pending += chunk
	return f.handle(f.engine.Feed(chunk), chunk)
}

// handle writes whatever a decision releases and reports whether the
// stream must stop.
func (f *streamFilter) handle(d guard.Decision, chunk string) (bool, error) {
	held := f.engine.Buffered()

	switch d.Verdict {
	case guard.Block:
		f.result.Blocks++
		f.result.Reason = d.Reason
		f.log(d, chunk)
		if f.mode != config.ModeAudit {
			f.result.Stopped = true
			return true, nil
		}
		// Audit mode: release the raw text and start a fresh stream.
		err := f.write(f.pending)
		f.pending = ""
		f.engine.Reset()
		return false, err

	case guard.Rewrite:
		f.result.Rewrites++
		f.log(d, chunk)
		text := d.Text
		if f.mode == config.ModeAudit {
			text = f.pending
		}
		err := f.write(strings.TrimSuffix(text, held))
		f.pending = held
		return false, err

	default:
		err := f.write(strings.TrimSuffix(f.pending, held))
		f.pending = held
		return false, err
	}
}

func (f *streamFilter) write(s string) error {
	if s == "" {
		return nil
	}
	_, err := io.WriteString(f.out, s)
	return err
}

func (f *streamFilter) log(d guard.Decision, chunk string) {
	if f.audit == nil {
		return
	}

	event := logger.AuditEvent{
		Session:  f.session,
		Decision: d.Verdict.String(),
		Reason:   d.Reason,
		Chunk:    chunk,
		Score:    f.engine.CurrentScore(),
		Mode:     f.mode,
	}
	for _, c := range f.engine.ScoreDetails() {
		event.Rules = append(event.Rules, c.RuleID)
	}
	if err := f.audit.Log(event); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write audit log: %v\n", err)
	}
}

// completeRunes returns the length of the longest prefix of b that does not
// end inside a UTF-8 sequence.
func completeRunes(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
