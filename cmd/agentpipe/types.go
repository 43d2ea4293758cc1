package main

import (
	"time"
)

// Config holds all configuration from command-line flags
type Config struct {
	// Backend configuration
	Provider string
	Model    string
	BaseURL  string
	WorkDir  string
	Env      []string
	Timeout  time.Duration

	// Context configuration
	ContextID      string
	UseLastContext bool
	ResetContext   bool
	ListContexts   bool
	DeleteContext  string

	// Input/Output configuration
	Prompt      string
	Format      string // text, chunks, or frames
	Strict      bool   // validate the chunk stream against the record schema
	ReplayStdin bool   // read a chunk stream from stdin instead of running a backend
	Quiet       bool
	Debug       bool
}
