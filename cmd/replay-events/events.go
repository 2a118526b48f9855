package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

type listEnvelope struct {
	Object string            `json:"object"`
	Data   []json.RawMessage `json:"data"`
}

type createdAt struct {
	Created int64 `json:"created"`
}

// loadEvents reads provider events from path. It accepts a JSON array, a
// provider list response ({"object":"list","data":[...]}), a single event or
// one event per line. Events are returned oldest first.
func loadEvents(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	events, err := splitEvents(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return created(events[i]) < created(events[j])
	})
	return events, nil
}

func splitEvents(data []byte) ([][]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
		return toBytes(raw), nil
	}

	var list listEnvelope
	if err := json.Unmarshal(trimmed, &list); err == nil {
		if list.Object == "list" {
			return toBytes(list.Data), nil
		}
		return [][]byte{trimmed}, nil
	}

	var events [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		if !json.Valid(text) {
			return nil, fmt.Errorf("line %d is not valid JSON", line)
		}
		events = append(events, append([]byte(nil), text...))
	}
	return events, scanner.Err()
}

func toBytes(raw []json.RawMessage) [][]byte {
	out := make([][]byte, 0, len(raw))
	for _, r := range raw {
		out = append(out, []byte(r))
	}
	return out
}

func created(event []byte) int64 {
	var c createdAt
	_ = json.Unmarshal(event, &c)
	return c.Created
}
