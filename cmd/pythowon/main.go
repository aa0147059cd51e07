package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"gopkg.in/urfave/cli.v1"

	"pythowon/internal/cache"
	"pythowon/internal/codefile"
	"pythowon/internal/pipeline"
	"pythowon/internal/repl"
)

const Version = "0.0.1"

// Exit codes: 0 success, 65 compile error, 70 runtime error, 74 I/O error,
// 1 usage error.
const exitIO = 74

func main() {
	app := cli.NewApp()
	app.Name = "pythowon"
	app.Usage = "the PythOwOn bytecode compiler and virtual machine"
	app.Version = Version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "run, r",
			Usage: "run a PythOwOn source file or compiled artifact",
		},
		cli.StringFlag{
			Name:  "compile, c",
			Usage: "compile a PythOwOn file into bytecode",
		},
		cli.StringFlag{
			Name:  "output, o",
			Usage: "output path for --compile",
		},
		cli.BoolFlag{
			Name:  "interpret, i",
			Usage: "start PythOwOn in interactive mode",
		},
		cli.BoolFlag{
			Name:  "disassemble, d",
			Usage: "show bytecode disassembly",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "trace the stack and each instruction while executing",
		},
		cli.BoolFlag{
			Name:  "no-cache",
			Usage: "skip the compile cache",
		},
	}

	app.Action = func(ctx *cli.Context) error {
		switch {
		case ctx.IsSet("run"):
			runFile(ctx.String("run"), ctx.Bool("disassemble"), ctx.Bool("trace"))
		case ctx.IsSet("compile"):
			compileFile(ctx.String("compile"), ctx.String("output"),
				ctx.Bool("no-cache"), ctx.Bool("disassemble"))
		default:
			// Interactive mode is the default behaviour.
			repl.Start(repl.Config{Version: Version, Trace: ctx.Bool("trace")})
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fatalf(1, "%v", err)
	}
}

func fatalf(code int, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}

func runFile(path string, disasm, trace bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf(exitIO, "Could not open file %q.", path)
	}

	p := pipeline.NewWithConfig(pipeline.Config{Trace: trace})
	defer p.Close()

	if codefile.Sniff(data) {
		ch, header, err := codefile.Read(bytes.NewReader(data), p.Pool())
		if err != nil {
			fatalf(exitIO, "Could not load %q: %v", path, err)
		}
		if disasm {
			fmt.Printf("build %s, compiled %s, %s\n",
				header.BuildID, header.Timestamp(), humanize.Bytes(uint64(len(data))))
			ch.Disassemble(os.Stdout, filepath.Base(path))
		}
		os.Exit(p.Run(ch).ExitCode())
	}

	result, ch := p.Compile(string(data))
	if result != pipeline.OK {
		os.Exit(result.ExitCode())
	}
	if disasm {
		ch.Disassemble(os.Stdout, filepath.Base(path))
	}
	os.Exit(p.Run(ch).ExitCode())
}

func compileFile(path, output string, noCache, disasm bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf(exitIO, "Could not open file %q.", path)
	}
	source := string(data)

	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".pwc"
	}

	var store *cache.Cache
	if !noCache {
		if store, err = openCache(); err != nil {
			// A broken cache never blocks compilation.
			store = nil
		} else {
			defer store.Close()
		}
	}

	key := cache.Key(source)
	if store != nil {
		if artifact, ok, err := store.Get(key); err == nil && ok {
			writeArtifact(output, artifact, true)
			return
		}
	}

	p := pipeline.New()
	defer p.Close()

	result, ch := p.Compile(source)
	if result != pipeline.OK {
		os.Exit(result.ExitCode())
	}

	var buf bytes.Buffer
	if err := codefile.Write(&buf, ch); err != nil {
		fatalf(exitIO, "Could not encode %q: %v", path, err)
	}
	if store != nil {
		store.Put(key, buf.Bytes())
	}
	if disasm {
		ch.Disassemble(os.Stdout, filepath.Base(path))
	}
	writeArtifact(output, buf.Bytes(), false)
}

func writeArtifact(output string, artifact []byte, cached bool) {
	if err := os.WriteFile(output, artifact, 0o644); err != nil {
		fatalf(exitIO, "Could not write %q: %v", output, err)
	}
	suffix := ""
	if cached {
		suffix = " (cached)"
	}
	fmt.Printf("Wrote %s (%s)%s\n", output, humanize.Bytes(uint64(len(artifact))), suffix)
}

func openCache() (*cache.Cache, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".pythowon")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return cache.Open(filepath.Join(dir, "cache.db"))
}
