// Package repl implements interactive mode. One pipeline is shared across
// the whole session so globals persist between lines.
package repl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"pythowon/internal/pipeline"
)

const prompt = "PythOwOn <<< "

const historyName = ".pythowon_history"

type Config struct {
	Version string
	Trace   bool
}

// Start runs the session until EOF or "exit". Piped stdin falls back to a
// plain line reader.
func Start(cfg Config) {
	p := pipeline.NewWithConfig(pipeline.Config{Trace: cfg.Trace})
	defer p.Close()

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		runPiped(p)
		return
	}

	color.New(color.FgCyan).Printf("PythOwOn %s\n", cfg.Version)
	fmt.Println("Type 'exit' to quit.")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := historyFile()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	for {
		input, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			fmt.Println()
			break
		}
		if strings.TrimSpace(input) == "exit" {
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		line.AppendHistory(input)
		p.Interpret(input)
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
}

func runPiped(p *pipeline.Pipeline) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := scanner.Text()
		if strings.TrimSpace(input) == "exit" {
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		p.Interpret(input)
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyName)
}
