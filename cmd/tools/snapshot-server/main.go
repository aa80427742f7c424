// Command snapshot-server serves a directory of images as an HTTP
// snapshot endpoint, one image per GET, cycling in natural filename
// order. It exists to exercise the remote-snapshot source end to end
// without a real camera.
//
// Usage:
//
//	go run ./cmd/tools/snapshot-server -dir ./frames [flags]
//
// Flags:
//
//	-listen  Listen address (default: localhost:8090)
//	-dir     Image directory (required)
//	-mode    Response mode: "image" (raw bytes) or "json" (base64 envelope)
//	-token   Optional bearer token the client must present
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quaystone/dwellwatch/internal/source"
)

var (
	listen = flag.String("listen", "localhost:8090", "Listen address")
	dir    = flag.String("dir", "", "Image directory (required)")
	mode   = flag.String("mode", "image", `Response mode: "image" or "json"`)
	token  = flag.String("token", "", "Optional bearer token to require")
)

type snapshotHandler struct {
	mu     sync.Mutex
	files  []string
	cursor int
}

func (h *snapshotHandler) next() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	path := h.files[h.cursor]
	h.cursor = (h.cursor + 1) % len(h.files)
	return path
}

func (h *snapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if *token != "" && r.Header.Get("Authorization") != "Bearer "+*token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := h.next()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("failed to read %q: %v", path, err)
		http.Error(w, "failed to read image", http.StatusInternalServerError)
		return
	}

	switch *mode {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"image": base64.StdEncoding.EncodeToString(data),
		})
	default:
		ct := mime.TypeByExtension(filepath.Ext(path))
		if !strings.HasPrefix(ct, "image/") {
			ct = "image/jpeg"
		}
		w.Header().Set("Content-Type", ct)
		w.Write(data)
	}
}

func main() {
	flag.Parse()

	if *dir == "" {
		log.Fatal("Error: -dir flag is required")
	}
	if *mode != "image" && *mode != "json" {
		log.Fatalf("Error: unknown -mode %q", *mode)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("failed to read directory: %v", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		log.Fatalf("no images found in %q", *dir)
	}
	source.SortNatural(files)
	for i, name := range files {
		files[i] = filepath.Join(*dir, name)
	}

	log.Printf("serving %d images from %q on %s (mode=%s)", len(files), *dir, *listen, *mode)
	if err := http.ListenAndServe(*listen, &snapshotHandler{files: files}); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
