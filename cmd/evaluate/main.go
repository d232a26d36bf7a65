// Command evaluate scores a trained model artifact against a labelled CSV
// dataset and reports regression error plus status-bucket agreement.
//
// Usage:
//
//	go run ./cmd/evaluate -model ml/model.bin -data ml/rainfall_data.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fixmycity/rainfall-service/internal/model"
)

func main() {
	modelPath := flag.String("model", "ml/model.bin", "path to the model artifact")
	dataPath := flag.String("data", "ml/rainfall_data.csv", "path to the labelled CSV dataset")
	flag.Parse()

	os.Exit(run(*modelPath, *dataPath))
}

func run(modelPath, dataPath string) int {
	fmt.Println("=== Rainfall Model Evaluation ===")
	fmt.Println()

	forest, err := model.Load(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load model: %v\n", err)
		return 1
	}

	records, err := model.ReadDataset(dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	scores, err := model.Evaluate(forest, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: evaluate: %v\n", err)
		return 1
	}

	fmt.Printf("  %-24s %s\n", "Model", modelPath)
	fmt.Printf("  %-24s %d trees, %d training records, trained %s\n", "",
		forest.Trees(), forest.Records(), forest.TrainedAt().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  %-24s %s (%d rows)\n", "Dataset", dataPath, scores.Samples)
	fmt.Println()
	fmt.Printf("  %-24s %.4f mm\n", "MAE", scores.MAE)
	fmt.Printf("  %-24s %.4f mm\n", "RMSE", scores.RMSE)
	fmt.Printf("  %-24s %.4f\n", "R²", scores.R2)
	fmt.Printf("  %-24s %.1f%%\n", "Status agreement", scores.StatusAgreement*100)
	return 0
}
