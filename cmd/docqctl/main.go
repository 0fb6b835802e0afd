// Package main implements the docqctl CLI for manual operations against the docqd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the docqd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docqctl",
	Short: "CLI for docqd HTTP server operations",
	Long: `docqctl is a command-line interface for interacting with the docqd HTTP server.
It provides commands for uploading documents, asking questions, and warming embedding models.`,
	Version: version,
}

var (
	uploadDomain string
	queryDomain  string
	queryTopK    int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "docqd server URL")

	uploadCmd.Flags().StringVar(&uploadDomain, "domain", "general", "domain to store the document under")
	queryCmd.Flags().StringVar(&queryDomain, "domain", "general", "domain to query")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of passages to retrieve (0 = server default)")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(loadModelCmd)
	rootCmd.AddCommand(healthCmd)
}

// uploadCmd ingests a document into a domain collection
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document for ingestion",
	Long: `Upload a PDF, DOCX, or plain text document to the docqd server.

Examples:
  # Upload into the default domain
  docqctl upload lease.pdf

  # Upload into a specific domain
  docqctl upload --domain housing lease.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

// queryCmd asks a question against a domain
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question against ingested documents",
	Long: `Retrieve relevant passages and generate an answer.

Examples:
  # Query the default domain
  docqctl query "How much notice before eviction?"

  # Query a specific domain with more passages
  docqctl query --domain housing --top-k 8 "How much notice before eviction?"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

// loadModelCmd warms the embedding model for a domain
var loadModelCmd = &cobra.Command{
	Use:   "load-model <domain>",
	Short: "Preload the embedding model for a domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoadModel,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check docqd server health",
	RunE:  runHealth,
}

// UploadResponse matches internal/server/handlers.go UploadResponse
type UploadResponse struct {
	DocID   string `json:"doc_id"`
	Message string `json:"message"`
}

// QueryRequest matches internal/server/handlers.go QueryRequest
type QueryRequest struct {
	Domain   string `json:"domain"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Answer matches internal/generation Answer
type Answer struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	Guidance   string   `json:"guidance"`
	Citations  []string `json:"citations"`
	Disclaimer string   `json:"disclaimer"`
	Error      string   `json:"error,omitempty"`
}

// LoadModelResponse matches internal/server/handlers.go LoadModelResponse
type LoadModelResponse struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// HealthResponse matches internal/server/handlers.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runUpload handles the upload command
func runUpload(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", filepath.Base(args[0]))
	if err != nil {
		return fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := w.WriteField("domain", uploadDomain); err != nil {
		return fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build multipart request: %w", err)
	}

	url := fmt.Sprintf("%s/upload", serverURL)
	httpReq, err := http.NewRequest("POST", url, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	client := &http.Client{
		Timeout: 120 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var uploadResp UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("%s\n", uploadResp.Message)
	fmt.Printf("doc_id: %s\n", uploadResp.DocID)
	return nil
}

// runQuery handles the query command
func runQuery(cmd *cobra.Command, args []string) error {
	reqBody := QueryRequest{
		Domain:   queryDomain,
		Question: args[0],
		TopK:     queryTopK,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/query", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 120 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var answer Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if answer.Summary != "" {
		fmt.Println(answer.Summary)
	}
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range answer.Citations {
			fmt.Printf("  - %s\n", c)
		}
	}
	if answer.Disclaimer != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", answer.Disclaimer)
	}
	if answer.Error != "" {
		fmt.Fprintf(os.Stderr, "[docqctl] generation error: %s\n", answer.Error)
	}
	return nil
}

// runLoadModel handles the load-model command
func runLoadModel(cmd *cobra.Command, args []string) error {
	reqJSON, err := json.Marshal(map[string]string{"domain": args[0]})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/load-model", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Model downloads can take a while on first load
	client := &http.Client{
		Timeout: 10 * time.Minute,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var loadResp LoadModelResponse
	if err := json.NewDecoder(resp.Body).Decode(&loadResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("%s (%s)\n", loadResp.Message, loadResp.Model)
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server status: %s\n", healthResp.Status)
	return nil
}

// statusError builds an error from a non-200 response.
func statusError(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}
