// Package parser reads GRID series event files and flattens their nested
// event records into a single ordered stream.
package parser

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pable/gridscout/internal/model"
)

var log = logrus.WithField("component", "parser")

var (
	zipMagic  = []byte("PK\x03\x04")
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ReadStats reports what the reader saw while decoding a file.
type ReadStats struct {
	Files   int // JSONL members read
	Lines   int // non-blank lines
	Records int
	Skipped int // malformed lines
}

// ReadEventsFile reads the event file at path: a ZIP archive of JSONL
// members, a bare .jsonl file, or a zstd-compressed .jsonl.zst.
func ReadEventsFile(p string) ([]model.EventRecord, ReadStats, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("stat events: %w", err)
	}
	return ReadEvents(f, info.Size(), p)
}

// ReadEvents decodes the event records in r. name is only used to pick the
// format when the content has no recognizable magic bytes. Records are
// returned ordered by sequence number.
func ReadEvents(r io.ReaderAt, size int64, name string) ([]model.EventRecord, ReadStats, error) {
	var stats ReadStats
	head := make([]byte, 4)
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	head = head[:n]

	var records []model.EventRecord
	switch {
	case bytes.HasPrefix(head, zipMagic) || strings.HasSuffix(strings.ToLower(name), ".zip"):
		zr, err := zip.NewReader(r, size)
		if err != nil {
			return nil, stats, fmt.Errorf("open zip: %w", err)
		}
		for _, zf := range zr.File {
			if zf.FileInfo().IsDir() || !isJSONL(zf.Name) {
				continue
			}
			rc, err := zf.Open()
			if err != nil {
				return nil, stats, fmt.Errorf("open %s: %w", zf.Name, err)
			}
			recs, err := readMember(rc, zf.Name, &stats)
			rc.Close()
			if err != nil {
				return nil, stats, err
			}
			records = append(records, recs...)
		}
	default:
		recs, err := readMember(io.NewSectionReader(r, 0, size), name, &stats)
		if err != nil {
			return nil, stats, err
		}
		records = recs
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SequenceNumber < records[j].SequenceNumber
	})
	stats.Records = len(records)
	return records, stats, nil
}

func isJSONL(name string) bool {
	n := strings.ToLower(path.Base(name))
	return strings.HasSuffix(n, ".jsonl") || strings.HasSuffix(n, ".jsonl.zst")
}

// readMember decodes one JSONL stream, transparently decompressing zstd.
func readMember(r io.Reader, name string, stats *ReadStats) ([]model.EventRecord, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	head, _ := br.Peek(4)
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", name, err)
		}
		defer dec.Close()
		br = bufio.NewReaderSize(dec, 1<<20)
	}
	stats.Files++

	var out []model.EventRecord
	lineNo := 0
	for {
		// ReadBytes has no line length limit; series-state lines can be several MB.
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if rec, ok := decodeLine(line); ok {
				out = append(out, rec)
				stats.Lines++
			} else if len(bytes.TrimSpace(line)) > 0 {
				stats.Lines++
				stats.Skipped++
				log.WithFields(logrus.Fields{"file": name, "line": lineNo}).Debug("skipping malformed line")
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	return out, nil
}

func decodeLine(line []byte) (model.EventRecord, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return model.EventRecord{}, false
	}
	var rec model.EventRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.EventRecord{}, false
	}
	if rec.OccurredAt.IsZero() {
		return model.EventRecord{}, false
	}
	return rec, true
}

// Flatten emits one FlatEvent per nested event of every record, stably
// sorted by (timestamp, sequence number).
func Flatten(records []model.EventRecord) []model.FlatEvent {
	total := 0
	for i := range records {
		total += len(records[i].Events)
	}
	out := make([]model.FlatEvent, 0, total)
	for i := range records {
		rec := &records[i]
		ts := rec.OccurredAt.UnixMilli()
		for _, raw := range rec.Events {
			typ := gjson.GetBytes(raw, "type").String()
			if typ == "" {
				typ = "unknown"
			}
			out = append(out, model.FlatEvent{
				Timestamp:      ts,
				Type:           typ,
				CorrelationID:  rec.CorrelationID,
				SequenceNumber: rec.SequenceNumber,
				Payload:        DecodePayload(raw),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].SequenceNumber < out[j].SequenceNumber
	})
	return out
}

// LoadFlatEvents reads the file at p and flattens it.
func LoadFlatEvents(p string) ([]model.FlatEvent, ReadStats, error) {
	recs, stats, err := ReadEventsFile(p)
	if err != nil {
		return nil, stats, err
	}
	return Flatten(recs), stats, nil
}
