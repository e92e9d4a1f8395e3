package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sunlightlabs/cluster-explorer/edgefile"
)

// scanFields calls fn with the fields of every non-empty, non-comment line.
func scanFields(path string, fn func(line int, fields []string) error) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	scanner := bufio.NewScanner(fp)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		err := fn(line, fields)
		if err != nil {
			return fmt.Errorf("%s:%d: %s", path, line, err)
		}
	}
	return scanner.Err()
}

func parseId(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier: %s", s)
	}
	return int32(n), nil
}

// readUniverse reads one identifier per line.
func readUniverse(path string) ([]int32, error) {
	values := []int32{}
	err := scanFields(path, func(line int, fields []string) error {
		if len(fields) != 1 {
			return fmt.Errorf("expected 1 identifier, got %d", len(fields))
		}
		id, err := parseId(fields[0])
		if err != nil {
			return err
		}
		values = append(values, id)
		return nil
	})
	return values, err
}

// readPairs reads two whitespace separated identifiers per line.
func readPairs(path string) ([]edgefile.Pair, error) {
	pairs := []edgefile.Pair{}
	err := scanFields(path, func(line int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("expected 2 identifiers, got %d", len(fields))
		}
		a, err := parseId(fields[0])
		if err != nil {
			return err
		}
		b, err := parseId(fields[1])
		if err != nil {
			return err
		}
		pairs = append(pairs, edgefile.Pair{A: a, B: b})
		return nil
	})
	return pairs, err
}
