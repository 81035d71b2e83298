package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ImportResult mirrors the service response for POST /api/v1/admin/import.
type ImportResult struct {
	BatchID string `json:"batch_id"`
	Kind    string `json:"kind"`
	Summary struct {
		Imported   int            `json:"imported"`
		Skipped    map[string]int `json:"skipped,omitempty"`
		RangeStart *time.Time     `json:"range_start,omitempty"`
		RangeEnd   *time.Time     `json:"range_end,omitempty"`
	} `json:"summary"`
	Note string `json:"note,omitempty"`
}

const defaultServiceURL = "http://localhost:8080"

var (
	serviceURL = os.Getenv("ANALYTICS_URL")
	authToken  = os.Getenv("ANALYTICS_TOKEN")
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run import_dataset.go <kind> <workbook.xlsx> [more.xlsx ...]")
		fmt.Println("  kind: crash | ticket")
		fmt.Println("Example: go run import_dataset.go crash 114-accidents.xlsx")
		fmt.Println("Environment: ANALYTICS_URL (default http://localhost:8080), ANALYTICS_TOKEN")
		os.Exit(1)
	}

	kind := strings.ToLower(strings.TrimSpace(os.Args[1]))
	if kind != "crash" && kind != "ticket" {
		fmt.Printf("Error: unknown kind %q, expected crash or ticket\n", kind)
		os.Exit(1)
	}
	files := os.Args[2:]

	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}

	// The import endpoint is protected; prompt when no token is set.
	if authToken == "" {
		fmt.Print("Enter auth token (Bearer token): ")
		fmt.Scanln(&authToken)
	}

	fmt.Printf("Importing %d %s workbook(s) into %s\n\n", len(files), kind, serviceURL)

	successCount := 0
	failCount := 0
	totalImported := 0
	totalSkipped := 0

	for i, path := range files {
		fmt.Printf("[%d/%d] %s\n", i+1, len(files), path)

		result, err := uploadWorkbook(kind, path)
		if err != nil {
			fmt.Printf("  ✗ Failed: %v\n", err)
			failCount++
			continue
		}

		successCount++
		totalImported += result.Summary.Imported
		for _, n := range result.Summary.Skipped {
			totalSkipped += n
		}

		fmt.Printf("  ✓ Batch %s: %d rows imported\n", result.BatchID, result.Summary.Imported)
		if len(result.Summary.Skipped) > 0 {
			for reason, n := range result.Summary.Skipped {
				fmt.Printf("    ⚠ skipped %d (%s)\n", n, reason)
			}
		}
		if result.Summary.RangeStart != nil && result.Summary.RangeEnd != nil {
			fmt.Printf("    Data range: %s -> %s\n",
				result.Summary.RangeStart.Format("2006-01-02"),
				result.Summary.RangeEnd.Format("2006-01-02"))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("  Workbooks uploaded:  %d\n", successCount)
	fmt.Printf("  Workbooks failed:    %d\n", failCount)
	fmt.Printf("  Rows imported:       %d\n", totalImported)
	fmt.Printf("  Rows skipped:        %d\n", totalSkipped)
	fmt.Println(strings.Repeat("=", 80))

	if failCount > 0 {
		os.Exit(1)
	}
}

// uploadWorkbook posts one xlsx file as multipart form data.
func uploadWorkbook(kind, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	kindField, err := writer.CreateFormField("kind")
	if err != nil {
		return nil, fmt.Errorf("failed to create form field: %w", err)
	}
	if _, err := kindField.Write([]byte(kind)); err != nil {
		return nil, fmt.Errorf("failed to write kind field: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(path)))
	h.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	fileField, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileField.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/admin/import", strings.TrimRight(serviceURL, "/"))
	req, err := http.NewRequest("POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+authToken)

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
