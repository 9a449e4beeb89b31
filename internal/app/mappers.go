package app

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"listings_pipeline/internal/domain"
)

/********** column registry (single source of truth) **********/

type column struct {
	header string
	set    func(l *domain.Listing, v string) error
}

func text(dst func(*domain.Listing) *string) func(*domain.Listing, string) error {
	return func(l *domain.Listing, v string) error {
		*dst(l) = v
		return nil
	}
}

var listingColumns = []column{
	{"Picture Count", func(l *domain.Listing, v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("picture count %q: %w", v, err)
		}
		l.PictureCount = n
		return nil
	}},
	{"MLS #", func(l *domain.Listing, v string) error {
		l.MLS = strings.TrimSpace(v)
		if l.MLS == "" {
			return errEmptyMLS
		}
		return nil
	}},
	{"Class", text(func(l *domain.Listing) *string { return &l.Class })},
	{"Property Type", text(func(l *domain.Listing) *string { return &l.PropertyType })},
	{"Status", text(func(l *domain.Listing) *string { return &l.Status })},
	{"Price", text(func(l *domain.Listing) *string { return &l.Price })},
	{"County", text(func(l *domain.Listing) *string { return &l.County })},
	{"Address", text(func(l *domain.Listing) *string { return &l.Address })},
	{"City", text(func(l *domain.Listing) *string { return &l.City })},
	{"Zip", text(func(l *domain.Listing) *string { return &l.Zip })},
	{"#Br", text(func(l *domain.Listing) *string { return &l.Beds })},
	{"#FBath", text(func(l *domain.Listing) *string { return &l.Baths })},
	{"#HalfBa", text(func(l *domain.Listing) *string { return &l.HalfBaths })},
	{"Gar", text(func(l *domain.Listing) *string { return &l.Garage })},
	{"Sq Feet", text(func(l *domain.Listing) *string { return &l.SqFeet })},
	{"List Agent - Agt Name", text(func(l *domain.Listing) *string { return &l.ListAgent })},
	{"List Off 1 - Ofc Name", text(func(l *domain.Listing) *string { return &l.ListOffice })},
}

var errEmptyMLS = errors.New("empty MLS #")

/********** reader **********/

// errSourceRead means the source stream itself failed; the job cannot go on.
var errSourceRead = errors.New("read source")

// listingReader maps CSV lines onto listings by header name. Each physical
// line is one record, parsed strictly, so a malformed line fails alone and
// never absorbs the lines after it.
type listingReader struct {
	sc   *bufio.Scanner
	line int
	pos  []int // record index per listingColumns entry
}

func newListingReader(r io.Reader) (*listingReader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	rd := &listingReader{sc: sc}

	text, err := rd.nextLine()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrEmptySource
	}
	if err != nil {
		return nil, err
	}
	head, err := parseRecord(strings.TrimPrefix(text, utf8BOM))
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	byName := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.TrimSpace(h)
		if _, dup := byName[h]; !dup {
			byName[h] = i
		}
	}
	rd.pos = make([]int, len(listingColumns))
	var missing []string
	for i, c := range listingColumns {
		p, ok := byName[c.header]
		if !ok {
			missing = append(missing, c.header)
			continue
		}
		rd.pos[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return rd, nil
}

// nextLine skips blank lines. A failing stream returns errSourceRead.
func (r *listingReader) nextLine() (string, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSuffix(r.sc.Text(), "\r")
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return "", fmt.Errorf("%w after line %d: %v", errSourceRead, r.line, err)
	}
	return "", io.EOF
}

func parseRecord(text string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	rec, err := cr.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("malformed record at column %d: %w", pe.Column, pe.Err)
		}
		return nil, fmt.Errorf("malformed record: %w", err)
	}
	return rec, nil
}

// Next returns the next listing and its line number. io.EOF ends the
// stream and errSourceRead aborts it; any other error belongs to that row.
func (r *listingReader) Next() (int, domain.Listing, error) {
	var l domain.Listing
	text, err := r.nextLine()
	if err != nil {
		return r.line, l, err
	}
	rec, err := parseRecord(text)
	if err != nil {
		return r.line, l, err
	}
	for i, c := range listingColumns {
		p := r.pos[i]
		if p >= len(rec) {
			return r.line, l, fmt.Errorf("row has %d fields, %q is column %d", len(rec), c.header, p+1)
		}
		if err := c.set(&l, rec[p]); err != nil {
			return r.line, l, err
		}
	}
	return r.line, l, nil
}
