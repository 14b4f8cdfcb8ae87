package beanstalkt

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"testing"
)

func TestParseYAMLMapping(t *testing.T) {
	doc, err := parseYAML([]byte("---\na: 1\nb: x\nc: 1.5\n"))
	if err != nil {
		t.Fatalf("Unable to parse yaml mapping: %s", err)
	}

	expected := map[string]interface{}{"a": 1, "b": "x", "c": 1.5}
	if !reflect.DeepEqual(doc, expected) {
		t.Fatalf("Expected mapping %v, but got %v", expected, doc)
	}
}

func TestParseYAMLList(t *testing.T) {
	doc, err := parseYAML([]byte("---\n- default\n- foo\n"))
	if err != nil {
		t.Fatalf("Unable to parse yaml list: %s", err)
	}

	expected := []string{"default", "foo"}
	if !reflect.DeepEqual(doc, expected) {
		t.Fatalf("Expected list %v, but got %v", expected, doc)
	}
}

func TestParseYAMLScalars(t *testing.T) {
	testCases := []struct {
		value    string
		expected interface{}
	}{
		{"123", 123},
		{"0", 0},
		{"1.5", 1.5},
		{"1.2.3", "1.2.3"},
		{"12a", "12a"},
		{"-1", "-1"},
		{"", ""},
		{".", "."},
		{"1.10", 1.1},
	}

	for _, testCase := range testCases {
		if got := scalar(testCase.value); !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("Expected %q to decode to %#v, but got %#v", testCase.value, testCase.expected, got)
		}
	}
}

func TestParseYAMLMalformed(t *testing.T) {
	testCases := []string{
		"",
		"---\n",
		"---\ngarbage\n",
		"---\n- x\ny: 1\n",
	}

	for _, testCase := range testCases {
		if _, err := parseYAML([]byte(testCase)); err == nil {
			t.Errorf("Expected a decode error for %q", testCase)
		}
	}
}

// TestParseYAMLRoundTrip encodes a document the way the server does and
// validates that the decoder recovers it.
func TestParseYAMLRoundTrip(t *testing.T) {
	mapping := map[string]interface{}{"a": 1, "b": "x", "c": 1.5}

	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("---\n")
	for _, key := range keys {
		fmt.Fprintf(&buf, "%s: %v\n", key, mapping[key])
	}

	doc, err := parseYAML(buf.Bytes())
	if err != nil {
		t.Fatalf("Unable to parse yaml mapping: %s", err)
	}
	if !reflect.DeepEqual(doc, mapping) {
		t.Fatalf("Expected mapping %v, but got %v", mapping, doc)
	}
}
