package main

import (
	"embed"
	"encoding/json"
	"log"
	"net/http"
)

//go:embed web/index.html web/index.js
var webFiles embed.FS

const maxRequestBytes = 1 << 20

type sourceRequest struct {
	Code string `json:"code"`
}

type parseResponse struct {
	Stmt    Stmt   `json:"stmt"`
	Program *Store `json:"program"`
}

type compileResponse struct {
	Asm string `json:"asm"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer returns the playground's HTTP handler.
func NewServer() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", serveFile("web/index.html", "text/html"))
	mux.HandleFunc("GET /index.js", serveFile("web/index.js", "text/javascript"))
	mux.HandleFunc("POST /parse", handleParse)
	mux.HandleFunc("POST /compile", handleCompile)
	return mux
}

func serveFile(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := webFiles.ReadFile(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func readSourceRequest(w http.ResponseWriter, r *http.Request) (sourceRequest, bool) {
	var req sourceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		log.Printf("%s: bad request body: %v", r.URL.Path, err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

// handleParse parses one statement and returns it together with the
// expression store its handles index into.
func handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := readSourceRequest(w, r)
	if !ok {
		return
	}

	p := NewParser(NewLexer(req.Code))
	stmt, err := p.ParseStatement()
	if err != nil {
		log.Printf("/parse: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{Stmt: stmt, Program: p.Store()})
}

func handleCompile(w http.ResponseWriter, r *http.Request) {
	req, ok := readSourceRequest(w, r)
	if !ok {
		return
	}

	asm, err := Compile(req.Code)
	if err != nil {
		log.Printf("/compile: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{Asm: asm})
}
