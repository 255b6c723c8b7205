package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	appconfig "github.com/vkovalov/workbot/internal/config"
	"github.com/vkovalov/workbot/internal/model"
)

// classify runs the frozen artifact against a single message from argv, or
// against stdin lines in an interactive loop when no argument is given.
func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	artifact, err := model.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("load classifier artifact: %v", err)
	}

	if len(os.Args) > 1 {
		text := strings.Join(os.Args[1:], " ")
		pred, err := artifact.Predict(text)
		if err != nil {
			log.Fatalf("classify: %v", err)
		}
		fmt.Println(render(pred))
		return
	}

	fmt.Printf("Work Classifier %s | 'q' to quit\n\n", artifact.Version())
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, "q") {
			break
		}
		if text == "" {
			continue
		}
		pred, err := artifact.Predict(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			continue
		}
		fmt.Printf("  %s\n\n", render(pred))
	}
}

func render(pred model.Prediction) string {
	emoji := "😎"
	if pred.IsWork() {
		emoji = "💼"
	}
	return fmt.Sprintf("%s %s (%.0f%%)", emoji, pred.Label, pred.Confidence*100)
}
