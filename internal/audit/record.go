// Package audit turns raw Linux audit log text into typed records and
// extracts the process names recorded against the power-state watch.
package audit

import (
	"bufio"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

// Record is one audit record line: its type and its key=value fields.
// Field values keep their original quoting; use Field or Decoded to read them.
type Record struct {
	Type   string
	Fields map[string]string
}

var (
	errMissingField = errors.New("field missing")
	errNullValue    = errors.New("field is (null)")
	errNotHex       = errors.New("unquoted value is not hex encoded")
)

// Field returns the value for key with surrounding quotes removed
func (r Record) Field(key string) string {
	return unquote(r.Fields[key])
}

// Decoded returns an untrusted string field the way the kernel logged it:
// double-quoted values are literal, unquoted values are hex encoded.
func (r Record) Decoded(key string) (string, error) {
	raw, ok := r.Fields[key]
	if !ok || raw == "" {
		return "", errMissingField
	}
	if raw == "(null)" {
		return "", errNullValue
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1], nil
	}

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return "", errNotHex
	}
	return strings.TrimRight(string(decoded), "\x00"), nil
}

// Parse reads audit log text, one record per line. Lines that are not
// records ("----", "time->...", "<no matches>") and records whose fields
// cannot be tokenized are skipped. Only read errors are returned.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "type=") {
			continue
		}

		rec, ok := parseLine(line)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return records, err
	}
	return records, nil
}

// parseLine tokenizes `type=X msg=audit(...): k=v k="v v" k='v'`.
func parseLine(line string) (Record, bool) {
	fields := make(map[string]string)

	i := 0
	for i < len(line) {
		// Skip separators; ausearch --raw puts 0x1d before enriched fields
		for i < len(line) && (line[i] == ' ' || line[i] == '\t' || line[i] == '\x1d') {
			i++
		}
		if i >= len(line) {
			break
		}

		eq := strings.IndexByte(line[i:], '=')
		if eq <= 0 {
			// Trailing garbage without '=' is ignored
			break
		}
		key := line[i : i+eq]
		if strings.ContainsAny(key, " \t\"'") {
			return Record{}, false
		}
		i += eq + 1

		var value string
		if i < len(line) && (line[i] == '"' || line[i] == '\'') {
			quote := line[i]
			end := strings.IndexByte(line[i+1:], quote)
			if end < 0 {
				return Record{}, false
			}
			value = line[i : i+end+2]
			i += end + 2
		} else {
			end := strings.IndexAny(line[i:], " \t\x1d")
			if end < 0 {
				end = len(line) - i
			}
			value = line[i : i+end]
			i += end
		}

		// Only the first occurrence counts; enriched fields repeat some keys in upper case
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}

	recType := fields["type"]
	if recType == "" {
		return Record{}, false
	}

	return Record{Type: recType, Fields: fields}, true
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
