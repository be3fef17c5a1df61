package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

type entryResponse struct {
	Kind        string `json:"kind"`
	Path        string `json:"path"`
	Exported    bool   `json:"exported"`
	SourcePath  string `json:"sourcePath"`
	JavadocPath string `json:"javadocPath"`
}

type classpathResponse struct {
	Success     bool            `json:"success"`
	Project     string          `json:"project"`
	Description string          `json:"description"`
	Entries     []entryResponse `json:"entries"`
	Cause       string          `json:"cause"`
}

func main() {
	project := flag.String("project", "", "project key to query")
	baseURL := flag.String("url", "http://localhost:8480", "base URL of the lantern daemon")
	refresh := flag.Bool("refresh", false, "force a full refresh instead of a cached read")
	flag.Parse()

	if *project == "" {
		log.Fatal("No project provided")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	method := "GET"
	requestURL := fmt.Sprintf("%s/v1/classpath/%s", *baseURL, url.PathEscape(*project))
	if *refresh {
		method = "POST"
		requestURL += "/refresh"
	}

	req, err := http.NewRequest(method, requestURL, nil)
	if err != nil {
		log.Fatalf("Failed constructing request: %v", err)
	}
	req.Header.Set("X-Client-Id", "get-classpath")

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("Failed making request to lantern: %v", err)
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed reading response: %v", err)
	}

	var response classpathResponse
	if err := json.Unmarshal(data, &response); err != nil {
		log.Fatalf("Failed parsing response (status %d): %v", resp.StatusCode, err)
	}

	if !response.Success {
		log.Fatalf("lantern returned status %d: %s", resp.StatusCode, response.Cause)
	}

	fmt.Printf("%s: %s\n", response.Project, response.Description)
	for _, entry := range response.Entries {
		exported := " "
		if entry.Exported {
			exported = "x"
		}
		fmt.Printf("[%s] %-7s %s\n", exported, entry.Kind, entry.Path)
	}
}
