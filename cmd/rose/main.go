// Command rose is the Library's CLI: scan the source tree into the
// cache, run one-off or stored Rules Engine passes, and mount the
// Virtual Filesystem Projector. Subcommand dispatch and per-command
// flag.FlagSets follow the stdlib-only flag idiom demlo.go uses for
// its own top-level flags (custom Usage func, flag.BoolVar/StringVar
// against pre-populated defaults) — generalized from "one command" to
// "one flag.NewFlagSet per subcommand," the standard library's own
// idiom for a multi-command CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"

	"github.com/azuline/rose-sub000/internal/cache"
	"github.com/azuline/rose-sub000/internal/config"
	"github.com/azuline/rose-sub000/internal/logging"
	"github.com/azuline/rose-sub000/internal/rules"
	"github.com/azuline/rose-sub000/internal/rulesui"
	"github.com/azuline/rose-sub000/internal/scan"
	"github.com/azuline/rose-sub000/internal/vfs"
)

// confirm picks the TUI confirmation prompt (internal/rulesui) when
// stdout is an interactive terminal, and falls back to rules.Confirm's
// plain bufio.Scanner y/n prompt otherwise — a piped or scripted
// invocation has no business driving a bubbletea program.
func confirm(preview *rules.Preview) (bool, error) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return rulesui.Confirm(os.Stdin, os.Stdout, preview)
	}
	rules.PrintPreview(os.Stdout, preview)
	return rules.Confirm(os.Stdin, os.Stdout)
}

const appName = "rose"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	if _, err := logging.Init(logging.Config{
		Format:     logging.Format(cfg.Logging.Format),
		Level:      cfg.SlogLevel(),
		LogFile:    cfg.Logging.LogFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}

	c, err := openCache(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	defer c.Close()

	scanner := scan.New(c, cfg)

	switch args[0] {
	case "scan":
		return cmdScan(scanner, args[1:])
	case "run":
		return cmdRun(c, scanner, cfg, args[1:])
	case "run-stored":
		return cmdRunStored(c, scanner, cfg, args[1:])
	case "mount":
		return cmdMount(c, scanner, cfg, args[1:])
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "rose: unknown command %q\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: rose COMMAND [ARGS]

Commands:
  scan [--force] [DIR...]          Scan the source tree into the cache.
  run MATCHER ACTION [ACTION...]   Run one ad-hoc rule (dry-run by default).
  run-stored [--apply]             Run every rule in the stored rules file.
  mount                            Mount the virtual filesystem.

Run 'rose COMMAND -h' for a command's own flags.
`)
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	path, err := xdg.DataFile(filepath.Join(appName, "cache.sqlite3"))
	if err != nil {
		return nil, fmt.Errorf("rose: resolve cache path: %w", err)
	}
	configHash, err := cfg.ConfigHash()
	if err != nil {
		return nil, err
	}
	return cache.Open(path, cache.ToolVersion, configHash)
}

func cmdScan(scanner *scan.Scanner, args []string) int {
	fs := newFS("scan", "[--force] [DIR...]")
	force := fs.Bool("force", false, "Re-read every file unconditionally, skipping the freshness check.")
	if !parseOrUsage(fs, args) {
		return 2
	}

	report, err := scanner.Scan(context.Background(), scan.Options{Dirs: fs.Args(), Force: *force})
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	fmt.Printf("scanned %d, updated %d, skipped %d, failed %d\n",
		report.Scanned, report.Updated, report.Skipped, report.Failed)
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", e.Dir, e.Err)
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}

func cmdRun(c *cache.Cache, scanner *scan.Scanner, cfg *config.Config, args []string) int {
	fs := newFS("run", "[--apply] MATCHER ACTION [ACTION...]")
	apply := fs.Bool("apply", false, "Apply the rule instead of only previewing it.")
	if !parseOrUsage(fs, args) {
		return 2
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}

	rule, err := rules.ParseRule(fs.Arg(0), fs.Args()[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}

	engine := rules.New(c, scanner, cfg)
	preview, err := engine.Run(context.Background(), rule, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	if !*apply {
		rules.PrintPreview(os.Stdout, preview)
		return 0
	}
	ok, err := confirm(preview)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	if !ok {
		fmt.Println("aborted")
		return 1
	}
	if _, err := engine.Run(context.Background(), rule, false); err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	return 0
}

func cmdRunStored(c *cache.Cache, scanner *scan.Scanner, cfg *config.Config, args []string) int {
	fs := newFS("run-stored", "[--apply]")
	apply := fs.Bool("apply", false, "Apply every stored rule instead of only previewing them.")
	if !parseOrUsage(fs, args) {
		return 2
	}

	storedRules, err := rules.LoadStoredRules(cfg.StoredRulesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}

	engine := rules.New(c, scanner, cfg)
	combined := &rules.Preview{}
	for _, rule := range storedRules {
		preview, err := engine.Run(context.Background(), rule, true)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rose:", err)
			return 1
		}
		if !*apply {
			rules.PrintPreview(os.Stdout, preview)
			continue
		}
		combined.Changes = append(combined.Changes, preview.Changes...)
	}
	if !*apply {
		return 0
	}

	ok, err := confirm(combined)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	if !ok {
		fmt.Println("aborted")
		return 1
	}
	previews, err := engine.RunStored(context.Background(), storedRules)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	for _, preview := range previews {
		rules.PrintPreview(os.Stdout, preview)
	}
	return 0
}

func cmdMount(c *cache.Cache, scanner *scan.Scanner, cfg *config.Config, args []string) int {
	fs := newFS("mount", "[--dir MOUNTPOINT]")
	mountDir := fs.String("dir", cfg.VFS.MountDir, "Mount point (defaults to vfs.mount_dir in config).")
	if !parseOrUsage(fs, args) {
		return 2
	}
	if *mountDir == "" {
		fmt.Fprintln(os.Stderr, "rose: mount: no mount point given (--dir or vfs.mount_dir)")
		return 2
	}

	projector := vfs.New(c, scanner, cfg)
	server, err := vfs.Mount(*mountDir, projector)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rose:", err)
		return 1
	}
	slog.Info("mounted", "dir", *mountDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("unmounting", "dir", *mountDir)
		_ = server.Unmount()
	}()

	server.Wait()
	return 0
}

