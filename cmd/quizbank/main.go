package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"quizbank"
)

func main() {
	var (
		configPath = flag.String("config", "quizbank.yaml", "YAML config file")
		importFile = flag.String("import", "", "Import questions from a text file ('-' for stdin)")
		playMode   = flag.Bool("play", false, "Practice questions from the bank interactively")
		listMode   = flag.Bool("list", false, "Print the bank as JSON")
		clearBank  = flag.Bool("clear", false, "Delete every question in the bank")
		storeKind  = flag.String("store", "", "Bank store: file, sqlite, redis, mongo")
		storePath  = flag.String("store-path", "", "Bank file or database path")
		apiKey     = flag.String("api-key", "", "API key (or set QUIZBANK_API_KEY / OPENAI_API_KEY)")
		model      = flag.String("model", "", "Model used for extraction")
		strict     = flag.Bool("strict", false, "Reject structurally invalid questions")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	quizbank.SetVerbose(*verbose)

	cfg, err := quizbank.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *storeKind != "" {
		cfg.Store.Driver = *storeKind
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *apiKey != "" {
		cfg.APIKey = *apiKey
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *strict {
		cfg.Strict = true
	}

	ctx := context.Background()
	store, closeStore, err := quizbank.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open bank store: %v", err)
	}
	defer closeStore()

	switch {
	case *clearBank:
		pipeline := quizbank.NewPipeline(nil, store)
		if err := pipeline.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear bank: %v", err)
		}
		fmt.Println("Bank cleared.")

	case *importFile != "":
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}
		text, err := readInput(*importFile)
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
		pipeline := quizbank.NewPipeline(quizbank.NewExtractor(cfg.ExtractorConfig()), store, cfg.PipelineOptions()...)

		// the extractor's own timeout bounds the network call; this bounds the whole import
		importCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		bank, report := pipeline.Ingest(importCtx, text)
		fmt.Println(report.Summary())
		if report.Failed() {
			os.Exit(1)
		}
		fmt.Printf("Bank now holds %d questions.\n", len(bank))

	case *listMode:
		bank, err := store.Load(ctx)
		if err != nil {
			log.Fatalf("Failed to load bank: %v", err)
		}
		output, err := json.MarshalIndent(bank, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal bank: %v", err)
		}
		fmt.Println(string(output))

	case *playMode:
		bank, err := store.Load(ctx)
		if err != nil {
			log.Fatalf("Failed to load bank: %v", err)
		}
		play(bank, os.Stdin, os.Stdout, rand.New(rand.NewSource(time.Now().UnixNano())))

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func readInput(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(name)
	return string(data), err
}

// play asks random questions until the user enters q or input ends
func play(bank quizbank.Bank, in io.Reader, out io.Writer, rng *rand.Rand) (asked, correct int) {
	if len(bank) == 0 {
		fmt.Fprintln(out, "The bank is empty, import some questions first.")
		return 0, 0
	}

	scanner := bufio.NewScanner(in)
	for {
		question, _, _ := bank.Random(rng)

		fmt.Fprintf(out, "[%s] %s\n\n", question.Type, question.Content)
		for _, opt := range question.Options {
			fmt.Fprintf(out, "%s. %s\n", opt.Label, opt.Text)
		}
		fmt.Fprintln(out)

		if question.IsMulti() {
			fmt.Fprint(out, "Your answer (letters, e.g. ACD; q to quit): ")
		} else {
			fmt.Fprint(out, "Your answer (one letter; q to quit): ")
		}
		if !scanner.Scan() {
			break
		}
		input := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if input == "Q" {
			break
		}

		selected := parseSelection(input)
		if !question.IsMulti() && len(selected) > 1 {
			selected = selected[:1]
		}

		asked++
		answer := strings.Join(question.CorrectLabels(), "")
		if quizbank.CheckAnswer(question, selected) {
			correct++
			fmt.Fprintf(out, "✅ Correct! The answer is %s\n", answer)
		} else {
			fmt.Fprintf(out, "❌ Incorrect. You chose %s, the answer is %s\n", strings.Join(selected, ""), answer)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.Repeat("─", 50))
		fmt.Fprintln(out)
	}

	if asked > 0 {
		percentage := float64(correct) / float64(asked) * 100
		fmt.Fprintf(out, "\n📊 Score: %d/%d (%.1f%%)\n", correct, asked, percentage)
	}
	return asked, correct
}

// parseSelection accepts "ACD", "A C D" or "A,C,D"
func parseSelection(input string) []string {
	var labels []string
	for _, r := range input {
		switch r {
		case ' ', ',', '，', '、':
			continue
		}
		labels = append(labels, string(r))
	}
	return labels
}
