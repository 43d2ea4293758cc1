package main

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (

	// termenv output for consistent terminal styling
	output = termenv.NewOutput(os.Stdout)

	// Style helpers - initialized in initColors()
	highlightStyle termenv.Style
	errorStyle     termenv.Style
	successStyle   termenv.Style
	dimStyle       termenv.Style
	boldStyle      termenv.Style
)

// initColors initializes color styles based on terminal background.
// When output is piped, styles degrade to plain text.
func initColors() {
	if !isTerminal() {
		output = termenv.NewOutput(os.Stdout, termenv.WithProfile(termenv.Ascii))
	}
	if termenv.HasDarkBackground() {
		// Dark background - use lighter/brighter colors
		highlightStyle = output.String().Foreground(output.Color("179")).Bold() // Muted yellow
		errorStyle = output.String().Foreground(output.Color("124"))            // Muted red
		successStyle = output.String().Foreground(output.Color("65"))           // Muted green
		dimStyle = output.String().Faint()                                      // Dimmed text
		boldStyle = output.String().Bold()                                      // Bold text
	} else {
		// Light background - use darker/more saturated colors
		highlightStyle = output.String().Foreground(output.Color("136")).Bold() // Dark orange/brown
		errorStyle = output.String().Foreground(output.Color("160"))            // Dark red
		successStyle = output.String().Foreground(output.Color("28"))           // Dark green
		dimStyle = output.String().Foreground(output.Color("240"))              // Dark gray
		boldStyle = output.String().Bold()                                      // Bold text
	}
}

// isTerminal checks if output is going to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}
