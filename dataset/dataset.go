// Package dataset reads and writes the JSON-lines files exchanged between the
// run and evaluation stages.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const maxLineSize = 4 * 1024 * 1024

// Row is one line of a dataset, keyed by column name.
type Row map[string]any

// Question is a line of the input dataset.
type Question struct {
	Question string `json:"question"`
}

// ChatTurn is one earlier exchange of a conversation.
type ChatTurn map[string]any

// Response is one flow result persisted for evaluation. Answer and Context
// hold whatever the flow produced, for example a list of documents.
type Response struct {
	Question    string     `json:"question"`
	ChatHistory []ChatTurn `json:"chat_history"`
	Answer      any        `json:"answer"`
	Context     any        `json:"context"`
}

// MarshalJSON keeps an empty chat history as [] instead of null.
func (r Response) MarshalJSON() ([]byte, error) {
	type response Response
	if r.ChatHistory == nil {
		r.ChatHistory = []ChatTurn{}
	}
	return json.Marshal(response(r))
}

// Text renders a response value for a prompt. Strings are returned as is,
// other values as JSON.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Decode reads JSON lines from r, decoding each non-blank line into a T.
func Decode[T any](r io.Reader) ([]T, error) {
	var (
		items   []T
		lineNum int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Read reads a JSON-lines file into a slice of T.
func Read[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	items, err := Decode[T](f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Encode writes one JSON object per item to w.
func Encode[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// Write writes items to path as JSON lines, replacing any existing file.
func Write[T any](path string, items []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := Encode(w, items); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return w.Flush()
}

// IsNotExist reports whether err indicates a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
