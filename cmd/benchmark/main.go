// Benchmark tool for testing Linesight breakdown predictions against
// labelled plant telemetry.
//
// Usage:
//
//	go run cmd/benchmark/main.go -csv /path/to/telemetry.csv -url http://localhost:8080
//
// This tool:
//  1. Reads historical plant telemetry (with maintenance-alert labels)
//  2. Optionally trains the models on the first part of the data
//  3. Sends each remaining record through POST /analyze
//  4. Compares the predicted breakdown risk with the actual alert label
//  5. Calculates precision, recall, F1-score, and the confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TelemetryRow is one labelled row of historical plant telemetry.
type TelemetryRow struct {
	Line               string
	Shift              string
	Uptime             float64
	Inventory          float64
	WorkerAvailability float64
	DefectRate         float64
	Energy             float64
	Demand             float64
	Semiconductor      string
	AlertStatus        string
}

// IsAlert reports whether the row carries the maintenance-alert label.
func (r TelemetryRow) IsAlert() bool {
	return r.AlertStatus == "Maintenance_Alert"
}

// Metrics tracks benchmark results.
type Metrics struct {
	TruePositives  int64 // alert predicted as high risk
	FalsePositives int64 // normal predicted as high risk
	TrueNegatives  int64 // normal predicted as low risk
	FalseNegatives int64 // alert predicted as low risk (missed!)

	TotalProcessed int64
	TotalAlerts    int64
	TotalNormal    int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to labelled telemetry CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Linesight base URL")
	limit := flag.Int("limit", 10000, "Maximum records to evaluate (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	threshold := flag.Float64("threshold", 0.5, "Breakdown probability treated as an alert")
	trainSplit := flag.Float64("train", 0.5, "Fraction of data used for training (0 = skip training)")
	verbose := flag.Bool("verbose", false, "Print each record result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/telemetry.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("LINESIGHT BENCHMARK - Breakdown Prediction Accuracy")
	fmt.Printf("\nCSV File:   %s\n", *csvPath)
	fmt.Printf("URL:        %s\n", *baseURL)
	fmt.Printf("Workers:    %d\n", *workers)
	fmt.Printf("Limit:      %d\n", *limit)
	fmt.Printf("Threshold:  %.2f\n", *threshold)
	fmt.Printf("Train Frac: %.2f\n", *trainSplit)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Linesight not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure the server is running:")
		fmt.Println("  go run cmd/linesight/main.go")
		os.Exit(1)
	}
	fmt.Println("server is healthy")

	fmt.Printf("\nReading telemetry from %s...\n", *csvPath)
	rows, err := readTelemetryCSV(*csvPath)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("loaded %d records\n", len(rows))

	// Split into training and evaluation portions.
	trainRows := []TelemetryRow{}
	evalRows := rows
	if *trainSplit > 0 && *trainSplit < 1 {
		cut := int(float64(len(rows)) * *trainSplit)
		trainRows, evalRows = rows[:cut], rows[cut:]
	}
	if *limit > 0 && len(evalRows) > *limit {
		evalRows = evalRows[:*limit]
	}

	if len(trainRows) > 0 {
		fmt.Printf("\nTraining on %d records...\n", len(trainRows))
		if err := train(*baseURL, trainRows); err != nil {
			fmt.Printf("WARNING: training failed, heuristics will be benchmarked: %v\n", err)
		}
	}

	alerts := 0
	for _, r := range evalRows {
		if r.IsAlert() {
			alerts++
		}
	}
	fmt.Printf("\nEvaluating %d records (%d alerts, %d normal)...\n",
		len(evalRows), alerts, len(evalRows)-alerts)

	startTime := time.Now()
	metrics := runBenchmark(evalRows, *baseURL, *workers, *threshold, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readTelemetryCSV(path string) ([]TelemetryRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(col)] = i
	}

	get := func(record []string, col string) string {
		if i, ok := colIndex[col]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}
	getFloat := func(record []string, col string) float64 {
		v, _ := strconv.ParseFloat(get(record, col), 64)
		return v
	}

	var rows []TelemetryRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		row := TelemetryRow{
			Line:               get(record, "assembly_line"),
			Shift:              get(record, "shift"),
			Uptime:             getFloat(record, "machine_uptime_%"),
			Inventory:          getFloat(record, "inventory_status_%"),
			WorkerAvailability: getFloat(record, "worker_availability_%"),
			DefectRate:         getFloat(record, "defect_rate_%"),
			Energy:             getFloat(record, "energy_consumption_kwh"),
			Demand:             getFloat(record, "demand_units"),
			Semiconductor:      get(record, "semiconductor_availability"),
			AlertStatus:        get(record, "alert_status"),
		}
		if row.Line == "" || row.Shift == "" {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func recordPayload(row TelemetryRow) map[string]any {
	return map[string]any{
		"assemblyLine":              row.Line,
		"shift":                     row.Shift,
		"machineUptimePct":          row.Uptime,
		"inventoryStatusPct":        row.Inventory,
		"workerAvailabilityPct":     row.WorkerAvailability,
		"defectRatePct":             row.DefectRate,
		"energyConsumptionKwh":      row.Energy,
		"demandUnits":               row.Demand,
		"semiconductorAvailability": row.Semiconductor,
		"alertStatus":               row.AlertStatus,
	}
}

func train(baseURL string, rows []TelemetryRow) error {
	records := make([]map[string]any, len(rows))
	for i, r := range rows {
		records[i] = recordPayload(r)
	}
	body, err := json.Marshal(map[string]any{"records": records})
	if err != nil {
		return err
	}

	resp, err := http.Post(baseURL+"/train", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var result struct {
		Trained bool `json:"trained"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if !result.Trained {
		return fmt.Errorf("models not trained (insufficient labels)")
	}
	fmt.Println("models trained")
	return nil
}

func runBenchmark(rows []TelemetryRow, baseURL string, numWorkers int, threshold float64, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan TelemetryRow, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for row := range work {
				start := time.Now()
				prob, err := breakdownRisk(client, baseURL, row)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s/%s -> %v\n", row.Line, row.Shift, err)
					}
					continue
				}

				if row.IsAlert() {
					atomic.AddInt64(&metrics.TotalAlerts, 1)
				} else {
					atomic.AddInt64(&metrics.TotalNormal, 1)
				}

				predicted := prob >= threshold
				actual := row.IsAlert()

				switch {
				case predicted && actual:
					atomic.AddInt64(&metrics.TruePositives, 1)
				case predicted && !actual:
					atomic.AddInt64(&metrics.FalsePositives, 1)
				case !predicted && !actual:
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				default:
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					mark := "ok"
					if predicted != actual {
						mark = "MISS"
					}
					fmt.Printf("%-4s %-15s | Uptime: %5.1f%% | Alert: %-5v | Risk: %.2f\n",
						mark, row.Line, row.Uptime, actual, prob)
				}
			}
		}()
	}

	for _, row := range rows {
		work <- row
	}
	close(work)

	wg.Wait()
	return metrics
}

// breakdownRisk runs one single-record analysis and extracts the breakdown
// probability for the record's line.
func breakdownRisk(client *http.Client, baseURL string, row TelemetryRow) (float64, error) {
	payload := map[string]any{
		"scenario": "benchmark_replay",
		"records":  []map[string]any{recordPayload(row)},
		"context":  map[string]any{"scenario": "benchmark_replay"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	resp, err := client.Post(baseURL+"/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result struct {
		Predictions struct {
			Breakdown []struct {
				Line        string  `json:"line"`
				Probability float64 `json:"probability"`
			} `json:"breakdownPredictions"`
		} `json:"mlPredictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}

	// Single-record scenarios make every line fall back to the same data;
	// the first prediction carries the record's risk.
	if len(result.Predictions.Breakdown) == 0 {
		return 0, fmt.Errorf("no breakdown predictions in response")
	}
	return result.Predictions.Breakdown[0].Probability, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\nBENCHMARK RESULTS")

	fmt.Printf("\nDATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Alerts:     %d\n", m.TotalAlerts)
	fmt.Printf("   Total Normal:     %d\n", m.TotalNormal)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\nCONFUSION MATRIX\n")
	fmt.Printf("   TP: %6d   FN: %6d\n", m.TruePositives, m.FalseNegatives)
	fmt.Printf("   FP: %6d   TN: %6d\n", m.FalsePositives, m.TrueNegatives)

	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\nDETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of high-risk calls, how many were real alerts)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of real alerts, how many were caught)\n", recall)
	fmt.Printf("   F1-Score:   %.4f\n", f1)
	fmt.Printf("   Accuracy:   %.4f\n", accuracy)

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		rps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f records/sec\n", rps)
	}
	fmt.Println()
}
