package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Filter narrows which entries Read keeps. The zero value keeps everything.
type Filter struct {
	Session  string        // keep entries whose session field matches
	MinLevel *logrus.Level // keep entries at least this severe; nil keeps all
}

func (f Filter) keep(line string) bool {
	if f.Session == "" && f.MinLevel == nil {
		return true
	}
	fields := parseFields(line)
	if f.Session != "" && fields["session"] != f.Session {
		return false
	}
	if f.MinLevel != nil {
		lvl, err := logrus.ParseLevel(fields["level"])
		if err != nil || lvl > *f.MinLevel {
			return false
		}
	}
	return true
}

// Read returns at most maxLines matching entries from the end of the log at
// path, oldest first. A missing file yields no lines.
func Read(path string, maxLines int, filter Filter) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || !filter.keep(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// parseFields splits a logrus text formatter line into its key=value pairs.
// Quoted values may contain spaces, '=' and escaped quotes. Tokens without
// '=' are skipped.
func parseFields(line string) map[string]string {
	fields := make(map[string]string)
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		start := i
		for i < len(line) && line[i] != '=' && line[i] != ' ' {
			i++
		}
		if i >= len(line) || line[i] == ' ' {
			continue
		}
		key := line[start:i]
		i++ // '='

		if i < len(line) && line[i] == '"' {
			i++
			var val strings.Builder
			for i < len(line) && line[i] != '"' {
				if line[i] == '\\' && i+1 < len(line) {
					i++
				}
				val.WriteByte(line[i])
				i++
			}
			i++ // closing quote
			fields[key] = val.String()
			continue
		}
		end := strings.IndexByte(line[i:], ' ')
		if end < 0 {
			end = len(line) - i
		}
		fields[key] = line[i : i+end]
		i += end
	}
	return fields
}
