package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Project keys may contain ':' and '/' (gradle-style paths). Flatten them so
// every key maps to a single file directly inside the model directory.
func modelFileName(projectKey string) string {
	sanitized := strings.NewReplacer(":", "_", "/", "_").Replace(projectKey)
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "_"
	}
	return sanitized + ".json"
}

func main() {
	port := flag.String("port", "8481", "port to listen on")
	dir := flag.String("dir", "", "directory with {project}.json model files")
	delay := flag.Duration("delay", 0, "artificial build time before each response")
	flag.Parse()

	if *dir == "" {
		log.Fatal("No model directory provided")
	}
	if _, err := os.Stat(*dir); err != nil {
		log.Fatalf("Cannot read model directory: %v", err)
	}

	http.HandleFunc("GET /model/{project}", func(w http.ResponseWriter, r *http.Request) {
		project := r.PathValue("project")

		if *delay > 0 {
			time.Sleep(*delay)
		}

		data, err := os.ReadFile(filepath.Join(*dir, modelFileName(project)))
		if err != nil {
			log.Printf("No model for project %q: %v", project, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"cause":"unknown project"}`))
			return
		}

		log.Printf("Serving model for project %q (%d bytes)", project, len(data))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})

	log.Printf("Serving models from %s on :%s", *dir, *port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%s", *port), nil))
}
