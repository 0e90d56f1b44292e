package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Render substitutes {key} placeholders in the title and body.
func (m MessageText) Render(vars map[string]string) (title, body string) {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(m.Title), r.Replace(m.Body)
}

type Messages struct {
	SyncComplete MessageText `json:"sync_complete"`
	BankLinked   MessageText `json:"bank_linked"`
}

// Default returns the built-in texts used when no file is configured.
func Default() *Messages {
	return &Messages{
		SyncComplete: MessageText{
			Title: "Account synced",
			Body:  "{count} new transactions imported from {account}",
		},
		BankLinked: MessageText{
			Title: "Bank linked",
			Body:  "{count} account(s) linked. Your transactions are on the way.",
		},
	}
}

var (
	loaded   *Messages
	loadOnce sync.Once
	loadErr  error
)

// Load reads the notifications JSON file once and caches the result.
// Keys missing from the file keep their default text.
func Load(path string) (*Messages, error) {
	loadOnce.Do(func() {
		loaded, loadErr = read(path)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

func read(path string) (*Messages, error) {
	msgs := Default()
	if path == "" {
		return msgs, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}
	if err := json.Unmarshal(data, msgs); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	return msgs, nil
}
