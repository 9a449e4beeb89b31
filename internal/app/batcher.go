package app

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"strings"

	"listings_pipeline/internal/domain"
)

// BatchSize is the number of data lines per split file.
const BatchSize = 100

const (
	maxLineBytes = 1 << 20
	utf8BOM      = "\ufeff"
)

type Batch struct {
	Number int // 1-based, in emission order
	Lines  []string
}

func BatchFileName(n int) string {
	return fmt.Sprintf("zip-code-split-file-%03d.csv", n)
}

// Encode renders the batch as a standalone CSV file with the header first.
func (b Batch) Encode(header string) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')
	for _, l := range b.Lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// SplitBatches reads the header eagerly and returns a lazy sequence of
// batches over the remaining lines. A stream with no lines at all returns
// domain.ErrEmptySource and no sequence. Lines are not parsed as CSV.
func SplitBatches(r io.Reader, size int) (string, iter.Seq2[Batch, error], error) {
	if size <= 0 {
		return "", nil, fmt.Errorf("batch size must be > 0, got %d", size)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", nil, fmt.Errorf("read header: %w", err)
		}
		return "", nil, domain.ErrEmptySource
	}
	header := strings.TrimPrefix(sc.Text(), utf8BOM)

	seq := func(yield func(Batch, error) bool) {
		n := 1
		lines := make([]string, 0, size)
		for sc.Scan() {
			lines = append(lines, sc.Text())
			if len(lines) < size {
				continue
			}
			if !yield(Batch{Number: n, Lines: lines}, nil) {
				return
			}
			n++
			lines = make([]string, 0, size)
		}
		if err := sc.Err(); err != nil {
			yield(Batch{}, err)
			return
		}
		if len(lines) > 0 {
			yield(Batch{Number: n, Lines: lines}, nil)
		}
	}
	return header, seq, nil
}
