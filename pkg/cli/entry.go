// Package cli implements rulejitc's command-line front end: load a
// rule-set document, translate it, and either report diagnostics or
// drive an interpreter Engine for a fixed number of ticks, printing its
// output fields. Grounded on github.com/funvibe/funxy/pkg/cli's
// entry.go Run(args)-int dispatch shape, trimmed to this tool's much
// smaller command surface.
package cli

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/interpreter"
	"github.com/funvibe/rulejitc/internal/metrics"
	"github.com/funvibe/rulejitc/internal/parsecache"
	"github.com/funvibe/rulejitc/internal/rlog"
	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/rulesetxml"
)

// Run is the CLI entry point; it returns a process exit code rather
// than calling os.Exit directly, so it can be driven from tests as well
// as cmd/rulejitc's main.
func Run(args []string) int {
	if len(args) < 2 {
		printUsage()
		return 1
	}

	switch args[1] {
	case "-help", "--help", "help":
		printUsage()
		return 0
	case "check":
		return runCheck(args[2:])
	case "run":
		return runTick(args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println("Usage: rulejitc <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check <doc.xml> [--cache path.db]     translate a rule-set document and report diagnostics")
	fmt.Println("  run <doc.xml> [--ticks N] [--set k=v]  translate and run N ticks, printing outputs")
}

func loadDocument(path string) (*ruleset.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rulesetxml.Decode(f)
}

func runCheck(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rulejitc check <doc.xml> [--cache path.db]")
		return 1
	}
	docPath := args[0]
	cachePath := ""
	for i := 1; i < len(args); i++ {
		if args[i] == "--cache" && i+1 < len(args) {
			cachePath = args[i+1]
			i++
		}
	}

	raw, err := os.ReadFile(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", docPath, err)
		return 1
	}

	var cache *parsecache.Cache
	var hash string
	if cachePath != "" {
		cache, err = parsecache.Open(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening cache: %s\n", err)
			return 1
		}
		defer cache.Close()
		hash = parsecache.Hash(raw)
		if cached, hit, err := cache.Lookup(hash); err == nil && hit && !cached.OK {
			fmt.Fprintf(os.Stderr, "%s: %s (cached %s)\n", cached.DiagnosticKind, cached.DiagnosticText, cached.CachedAt.Format("2006-01-02T15:04:05"))
			return 1
		}
	}

	doc, err := rulesetxml.Decode(bytes.NewReader(raw))
	if err != nil {
		storeOutcome(cache, hash, false, 0, "HostError", err.Error())
		fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", docPath, err)
		return 1
	}
	info, _, diags := ruleset.Translate(doc)
	if len(diags) > 0 {
		storeOutcome(cache, hash, false, 0, string(diags[0].Kind), diags[0].Cause)
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return 1
	}
	storeOutcome(cache, hash, true, len(info.SubRuleSets), "", "")

	fmt.Printf("OK: %d sub-rule-set(s), preprocess=%s\n", len(info.SubRuleSets), info.PreprocessMangled)
	for _, sub := range info.SubRuleSets {
		fmt.Printf("  %s -> %s (%d rules)\n", sub.Name, sub.Mangled, len(sub.AtomModifiedVars))
	}
	return 0
}

func storeOutcome(cache *parsecache.Cache, hash string, ok bool, subRuleSetN int, kind, text string) {
	if cache == nil {
		return
	}
	o := parsecache.Outcome{OK: ok, SubRuleSetN: subRuleSetN, DiagnosticKind: kind, DiagnosticText: text, CachedAt: time.Now()}
	if err := cache.Store(hash, o); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: parsecache store failed: %s\n", err)
	}
}

func runTick(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rulejitc run <doc.xml> [--ticks N] [--set name=value]")
		return 1
	}
	docPath := args[0]
	ticks := 1
	sets := map[string]string{}
	verbose := false

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--ticks":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--ticks requires a value")
				return 1
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --ticks value: %s\n", args[i+1])
				return 1
			}
			ticks = n
			i++
		case "--set":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--set requires a name=value argument")
				return 1
			}
			kv := args[i+1]
			if eq := strings.IndexByte(kv, '='); eq >= 0 {
				sets[kv[:eq]] = kv[eq+1:]
			}
			i++
		case "--verbose":
			verbose = true
		}
	}

	doc, err := loadDocument(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", docPath, err)
		return 1
	}

	info, ctx, diags := ruleset.Translate(doc)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return 1
	}

	cfg := config.Default()
	cfg.Verbose = verbose
	logger := rlog.New(os.Stderr)
	if verbose {
		logger.Min = rlog.Debug
	}

	eng := interpreter.NewEngine(doc, info, ctx, cfg)
	for name, raw := range sets {
		eng.SetInput(name, parseSetValue(raw))
	}

	collector := metrics.New()
	for i := 0; i < ticks; i++ {
		if err := eng.Tick(); err != nil {
			fmt.Fprintf(os.Stderr, "Runtime error on tick %d: %s\n", i, err)
			return 1
		}
		atoms := make([]int, len(eng.SubRuleSets))
		for j, sub := range eng.SubRuleSets {
			atoms[j] = sub.LastAtom
		}
		collector.RecordTick(atoms)
		if verbose {
			logger.Infof("tick %d complete", i)
		}
	}
	if verbose {
		logger.Infof("%s", collector.Summary())
		fmt.Print(collector.Histogram())
	}

	for _, v := range doc.Meta.Outputs {
		val, _ := eng.GetOutput(v.Name)
		fmt.Printf("%s = %v\n", v.Name, val)
	}
	return 0
}

// parseSetValue interprets a --set value as a number when possible,
// else as a bare string, matching the f64/string RuntimeValue split.
func parseSetValue(raw string) interpreter.RuntimeValue {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
