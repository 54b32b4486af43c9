package main

// Exercise the parse prompt against a real provider:
//   go run ./cmd/prompttest -resume ./testdata/resume.pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex-technology/workwise-backend/internal/extract"
	openai "github.com/lex-technology/workwise-backend/internal/llm/openai"
	"github.com/lex-technology/workwise-backend/internal/parser"
	"github.com/lex-technology/workwise-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (pdf, docx, txt, or rtf)")
	model := flag.String("model", cfg.ParseModel, "Model to parse with")
	outPath := flag.String("out", "", "Path to write raw JSON output (optional)")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}

	resumeBytes, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	fileName := filepath.Base(*resumePath)

	ctx := context.Background()
	resumeText, meta, err := extract.ExtractText(ctx, resumeBytes, fileName)
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}
	fmt.Fprintf(os.Stderr, "extracted %d chars from %s (%s)\n", len(resumeText), meta.OriginalFilename, meta.FileType)

	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   *model,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		exitErr(err.Error())
	}

	svc := parser.NewService(client, *model)
	structured, raw, err := svc.Parse(ctx, resumeText)
	if err != nil {
		exitErr(fmt.Sprintf("parse: %v", err))
	}
	fmt.Fprintf(os.Stderr, "parsed %d sections\n", len(structured.Content.Sections))

	pretty, err := prettyJSON(raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
