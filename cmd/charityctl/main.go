// Package main implements the charityctl CLI for manual operations against
// the charityd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the charityd HTTP server
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
	Use:   "charityctl",
	Short: "CLI for charityd HTTP server operations",
	Long: `charityctl is a command-line interface for the charityd HTTP server.
It provides commands for indexing charity documents, asking questions,
and listing indexed collections.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "charityd server URL")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(healthCmd)
}

var (
	indexCharity string
	indexFile    string
)

// indexCmd indexes a charity document from a file or stdin.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a charity document",
	Long: `Index a charity document into its collection, replacing any prior
version.

Examples:
  # Index a document file
  charityctl index --charity "Red Cross" --file annual_report.txt

  # Index from stdin
  cat report.txt | charityctl index --charity "Red Cross" --file -`,
	RunE: runIndex,
}

var (
	queryCharity string
	queryTopK    int
)

// queryCmd asks a question about an indexed charity.
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question about an indexed charity",
	Long: `Ask a question, answered from the charity's indexed documents.

Examples:
  charityctl query "What programs do you run?" --charity "Red Cross"
  charityctl query "How are donations used?" --charity "Red Cross" --top-k 3`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

// collectionsCmd lists indexed collections.
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List indexed charity collections",
	RunE:  runCollections,
}

// healthCmd checks server health.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check charityd server health",
	RunE:  runHealth,
}

func init() {
	indexCmd.Flags().StringVar(&indexCharity, "charity", "", "charity name (required)")
	indexCmd.Flags().StringVar(&indexFile, "file", "", "document file, or - for stdin (required)")
	_ = indexCmd.MarkFlagRequired("charity")
	_ = indexCmd.MarkFlagRequired("file")

	queryCmd.Flags().StringVar(&queryCharity, "charity", "", "charity name")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of chunks to retrieve")
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// postJSON sends a JSON request and decodes a JSON response into out.
func postJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := httpClient().Post(serverURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, string(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// getJSON fetches a JSON response into out.
func getJSON(path string, out any) error {
	resp, err := httpClient().Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, string(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func runIndex(cmd *cobra.Command, args []string) error {
	var text []byte
	var err error
	if indexFile == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(indexFile)
	}
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	var result struct {
		Collection string `json:"collection"`
		ChunkCount int    `json:"chunk_count"`
	}
	err = postJSON("/api/v1/index", map[string]any{
		"charity_name": indexCharity,
		"text":         string(text),
	}, &result)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %q into collection %s (%d chunks)\n", indexCharity, result.Collection, result.ChunkCount)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	var resp struct {
		Answer     string `json:"answer"`
		Grounded   bool   `json:"grounded"`
		ChunkCount int    `json:"chunk_count"`
		Sources    []struct {
			Text       string  `json:"text"`
			Similarity float32 `json:"similarity"`
		} `json:"sources"`
	}
	err := postJSON("/api/v1/chat", map[string]any{
		"query":        args[0],
		"charity_name": queryCharity,
		"top_k":        queryTopK,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Println(resp.Answer)
	if resp.Grounded {
		fmt.Printf("\nBased on %d chunk(s):\n", resp.ChunkCount)
		for i, src := range resp.Sources {
			fmt.Printf("  %d. [%.2f] %s\n", i+1, src.Similarity, src.Text)
		}
	}
	return nil
}

func runCollections(cmd *cobra.Command, args []string) error {
	var resp struct {
		Collections []string `json:"collections"`
	}
	if err := getJSON("/api/v1/collections", &resp); err != nil {
		return err
	}

	if len(resp.Collections) == 0 {
		fmt.Println("No collections indexed")
		return nil
	}
	for _, name := range resp.Collections {
		fmt.Println(name)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := getJSON("/health", &resp); err != nil {
		return err
	}
	fmt.Printf("Server status: %s\n", resp.Status)
	return nil
}
