// Copyright 2025 Evidentia Works
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evidentia/ragline"
	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/ingest"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ragline",
		Usage: "Document-grounded question answering over local collections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest text documents into a collection",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Embedding worker pool size (0 = half the CPUs)",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question against a collection",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Conversation session ID (default: a fresh session)",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Suppress progress and source output, print only the answer",
					},
				),
			},
			{
				Name:   "chat",
				Usage:  "Interactive conversation against a collection",
				Action: chatCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Resume an existing session instead of starting fresh",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are shared by every command that opens the engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Path to the data directory",
			Value:   "./ragline-data",
		},
		&cli.StringFlag{
			Name:    "collection",
			Aliases: []string{"c"},
			Usage:   "Collection name",
			Value:   "default",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible host URL for embedding and generation",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL (overrides --host)",
		},
		&cli.StringFlag{
			Name:  "generation-host",
			Usage: "Generation service host URL (overrides --host)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
		},
		&cli.StringFlag{
			Name:  "rerank-model",
			Usage: "Rerank model name (default: the generation model)",
		},
		&cli.Float64Flag{
			Name:  "temperature",
			Usage: "Answer generation temperature",
			Value: 0.2,
		},
	}
}

func openEngine(c *cli.Context) (*ragline.Engine, error) {
	var opts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if host := c.String("generation-host"); host != "" {
		opts = append(opts, ai.WithGenerationHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("generation-model"); model != "" {
		opts = append(opts, ai.WithGenerationModel(model))
	}
	if model := c.String("rerank-model"); model != "" {
		opts = append(opts, ai.WithRerankModel(model))
	}
	opts = append(opts, ai.WithTemperature(c.Float64("temperature")))

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := ragline.NewEngine(c.String("data-dir"), ragline.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file to ingest is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var pipelineOpts []ingest.Option
	if workers := c.Int("workers"); workers > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(workers))
	}
	ingester, err := engine.NewIngestPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ingest pipeline: %w", err)
	}
	defer ingester.Release()

	ctx := context.Background()
	collection := c.String("collection")

	for _, path := range c.Args().Slice() {
		pages, err := readPages(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		document := filepath.Base(path)
		if err := ingester.IngestDocument(ctx, collection, document, pages); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "ingested %s into %s (%d pages)\n", document, collection, len(pages))
	}
	return nil
}

// readPages loads a text file as pages. Form feeds mark page breaks;
// a file without them is a single page.
func readPages(path string) ([]ingest.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pages []ingest.Page
	for i, text := range strings.Split(string(data), "\f") {
		pages = append(pages, ingest.Page{Number: i + 1, Text: text})
	}
	return pages, nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	session := c.String("session")
	if session == "" {
		session = uuid.NewString()
	}

	sink := newConsoleSink(c.Bool("quiet"))
	msg, err := engine.Ask(context.Background(), session, c.String("collection"), strings.Join(c.Args().Slice(), " "), sink)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if c.Bool("quiet") {
		fmt.Println(msg.Text)
	}
	return nil
}

func chatCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	session := c.String("session")
	if session == "" {
		session = uuid.NewString()
	}
	collection := c.String("collection")

	fmt.Fprintf(os.Stderr, "session %s, collection %s (Ctrl-D to exit)\n", session, collection)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		if _, err := engine.Ask(ctx, session, collection, message, newConsoleSink(false)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
