package llm

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// readSSE parses a text/event-stream body, calling onEvent once per event
// with the event name (possibly empty) and the joined data lines.
func readSSE(r io.Reader, onEvent func(event, data string) error) error {
	br := bufio.NewReader(r)
	var (
		eventName string
		dataLines []string
	)
	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		ev := eventName
		dataLines, eventName = nil, ""
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		switch {
		case trimmed == "":
			if ferr := flush(); ferr != nil {
				return ferr
			}
		case strings.HasPrefix(trimmed, ":"):
		case strings.HasPrefix(trimmed, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(trimmed, "event:"))
		case strings.HasPrefix(trimmed, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(trimmed, "data:")))
		}
		if errors.Is(err, io.EOF) {
			return flush()
		}
	}
}
