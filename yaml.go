package beanstalkt

import (
	"fmt"
	"strconv"
	"strings"
)

// parseYAML decodes the restricted YAML subset that beanstalkd uses for its
// stats and list replies: either a flat sequence of strings, or a flat
// single-level mapping of scalars. It is not a general YAML parser; any
// other shape is a decode error.
func parseYAML(data []byte) (interface{}, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "---") {
		lines = lines[1:]
	}
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return nil, fmt.Errorf("empty yaml body")
	}

	if strings.HasPrefix(lines[0], "- ") {
		list := make([]string, 0, len(lines))
		for _, line := range lines {
			if !strings.HasPrefix(line, "- ") {
				return nil, fmt.Errorf("malformed yaml list entry %q", line)
			}

			list = append(list, line[2:])
		}

		return list, nil
	}

	dict := make(map[string]interface{}, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed yaml mapping entry %q", line)
		}

		dict[parts[0]] = scalar(strings.TrimSpace(parts[1]))
	}

	return dict, nil
}

// scalar converts a mapping value to an int when it is all digits, to a
// float64 when it is digits with a single dot, and leaves it a string
// otherwise.
func scalar(value string) interface{} {
	if value == "" || strings.Trim(value, "0123456789.") != "" {
		return value
	}

	switch strings.Count(value, ".") {
	case 0:
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case 1:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}

	return value
}
