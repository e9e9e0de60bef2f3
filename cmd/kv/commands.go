package kv

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Formats understood by scan and import
const (
	formatLines = "lines" // key=value per line
	formatYAML  = "yaml"  // a single mapping from key to value
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key (keys have the form <8 char tag>-<number>)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := storage.ParseKey(args[0])
			if err != nil {
				return err
			}
			if err := writeAll(map[storage.Key][]byte{key: []byte(args[1])}); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]...",
		Short: "Deletes one or more key value pairs in a single session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]storage.Key, 0, len(args))
			for _, arg := range args {
				key, err := storage.ParseKey(arg)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			deleter, err := store.BeginDelete()
			if err != nil {
				return err
			}
			for _, key := range keys {
				if err := deleter.Remove(key); err != nil {
					_ = deleter.Close()
					return err
				}
			}
			if err := deleter.Close(); err != nil {
				return err
			}
			fmt.Printf("deleted %d keys successfully\n", len(keys))
			return nil
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Prints all key value pairs, ordered by key bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, _ := cmd.Flags().GetString("tag")
			format, _ := cmd.Flags().GetString("format")
			n, err := scan(os.Stdout, tag, format)
			if err != nil {
				return err
			}
			Logger.Debugf("scanned %d entries", n)
			return nil
		},
	}
	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Imports key value pairs from a file (- for stdin) in a single write session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := io.Reader(os.Stdin)
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}

			format, _ := cmd.Flags().GetString("format")
			entries, err := parseImport(in, format)
			if err != nil {
				return err
			}
			if err := writeAll(entries); err != nil {
				return err
			}
			fmt.Printf("imported %d entries successfully\n", len(entries))
			return nil
		},
	}
)

func init() {
	scanCmd.Flags().String("tag", "", "Only print keys with this tag")
	scanCmd.Flags().String("format", formatLines, "Output format (lines, yaml)")
	importCmd.Flags().String("format", formatLines, "Input format (lines, yaml)")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// writeAll writes all entries in one write session
func writeAll(entries map[storage.Key][]byte) error {
	writer, err := store.BeginWrite()
	if err != nil {
		return err
	}
	for key, value := range entries {
		if err := writer.Set(key, value); err != nil {
			_ = writer.Close()
			return err
		}
	}
	return writer.Close()
}

// scan writes all entries (optionally only those with the given tag) to w in the given format
func scan(w io.Writer, tag, format string) (int, error) {
	if format != formatLines && format != formatYAML {
		return 0, fmt.Errorf("unknown format %q (expected %s or %s)", format, formatLines, formatYAML)
	}

	reader, err := store.BeginRead()
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	doc := &yaml.Node{Kind: yaml.MappingNode}
	n := 0
	for entry, err := range reader.Entries() {
		if err != nil {
			return n, err
		}
		if tag != "" && entry.Key.Tag() != tag {
			entry.Release()
			continue
		}

		if format == formatYAML {
			doc.Content = append(doc.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.Key.String()},
				valueNode(entry.Value))
		} else if _, err := fmt.Fprintf(w, "key=%s value=%s\n", entry.Key, entry.Value); err != nil {
			entry.Release()
			return n, err
		}
		n++
		entry.Release()
	}

	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return n, err
		}
		return n, enc.Close()
	}
	return n, nil
}

// valueNode copies value into a YAML scalar. Values that are not valid UTF-8 are
// written as !!binary, which decodes back to the same bytes on import.
func valueNode(value []byte) *yaml.Node {
	if !utf8.Valid(value) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(value)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(value)}
}

// maxImportLine is the longest line (key and value) import accepts
const maxImportLine = 16 << 20

// parseImport reads the entries to import in the given format
func parseImport(in io.Reader, format string) (map[storage.Key][]byte, error) {
	switch format {
	case formatLines:
		return parseLines(in)
	case formatYAML:
		return parseYAML(in)
	default:
		return nil, fmt.Errorf("unknown format %q (expected %s or %s)", format, formatLines, formatYAML)
	}
}

// parseLines reads key=value lines. Empty lines and lines starting with # are skipped.
// Later lines overwrite earlier lines with the same key.
func parseLines(in io.Reader) (map[storage.Key][]byte, error) {
	entries := make(map[storage.Key][]byte)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rawKey, value, found := strings.Cut(text, "=")
		if !found {
			return nil, fmt.Errorf("line %d: expected key=value", line)
		}
		key, err := storage.ParseKey(strings.TrimSpace(rawKey))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries[key] = []byte(strings.TrimSpace(value))
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d: longer than %d bytes", line+1, maxImportLine)
		}
		return nil, err
	}
	return entries, nil
}

// parseYAML reads a single mapping from key to value, the format written by scan --format yaml
func parseYAML(in io.Reader) (map[storage.Key][]byte, error) {
	var doc map[string]string
	if err := yaml.NewDecoder(in).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[storage.Key][]byte{}, nil
		}
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	entries := make(map[storage.Key][]byte, len(doc))
	for rawKey, value := range doc {
		key, err := storage.ParseKey(rawKey)
		if err != nil {
			return nil, err
		}
		entries[key] = []byte(value)
	}
	return entries, nil
}
