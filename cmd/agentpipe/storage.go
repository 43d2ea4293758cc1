package main

import (
	"fmt"
	"time"

	"github.com/alexschlessinger/agentpipe/sessions"
)

// handleListContexts lists all available contexts
func handleListContexts(store sessions.SessionStore) error {
	allInfo := store.GetAllMetadata()
	lastContext := store.GetLast()

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list contexts: %w", err)
	}

	for _, name := range names {
		marker := ""
		if name == lastContext {
			marker = " *"
		}

		if info, ok := allInfo[name]; ok {
			backend := info.Provider
			if info.Model != "" {
				backend = fmt.Sprintf("%s/%s", info.Provider, info.Model)
			}
			fmt.Printf("%s [%s] - last used: %s%s\n", boldStyle.Styled(name), backend, formatDuration(time.Since(info.LastUsed)), marker)
		} else {
			fmt.Printf("%s%s\n", boldStyle.Styled(name), marker)
		}
	}

	if len(names) == 0 {
		fmt.Println("No contexts found")
	}
	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	} else if d < time.Hour {
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	} else {
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

// handleDeleteContext deletes the specified context
func handleDeleteContext(store sessions.SessionStore, contextID string) error {
	if !store.Exists(contextID) {
		return fmt.Errorf("context '%s' not found", contextID)
	}

	store.Delete(contextID)
	fmt.Printf("Context '%s' deleted\n", contextID)
	return nil
}

// resetContext clears a context's history while keeping its metadata
func resetContext(store sessions.SessionStore, contextID string) error {
	if !store.Exists(contextID) {
		return fmt.Errorf("context '%s' not found", contextID)
	}

	session, err := store.Get(contextID)
	if err != nil {
		return fmt.Errorf("failed to open context: %w", err)
	}
	defer session.Close()

	session.Clear()
	// A reset conversation cannot resume backend state
	info := session.GetMetadata()
	info.BackendSessionID = ""
	session.SetMetadata(info)
	return nil
}
