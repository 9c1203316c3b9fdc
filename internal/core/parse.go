package core

// parse.go turns decoded text into structured rows.
//
// The parser is deliberately tolerant: a malformed line (unterminated quote,
// stray quote inside a field) is recorded as an invalid row with a reason and
// parsing continues with the next line. Only a header that cannot be parsed
// at all is a structural, fatal failure.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// parseRows splits decoded text into a header plus data rows. Malformed
// data lines land in badRows; they never abort the parse.
func parseRows(text string) (header []string, rows []ParsedRow, badRows []ValidationIssue, dashCount int, err error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	for {
		record, readErr := r.Read()
		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			var pe *csv.ParseError
			if errors.As(readErr, &pe) {
				if header == nil {
					// A header we cannot parse means the file is not CSV at
					// all; nothing downstream can recover from that.
					return nil, nil, nil, 0, errInvalidCSV(readErr)
				}
				badRows = append(badRows, ValidationIssue{
					Type:     IssueMalformedLine,
					Message:  fmt.Sprintf("line %d: %v", pe.Line, pe.Err),
					Severity: SeverityError,
					Line:     pe.Line,
				})
				continue
			}
			return nil, nil, nil, 0, errInvalidCSV(readErr)
		}

		line, _ := r.FieldPos(0)

		if isEmptyRow(record) {
			continue
		}

		if header == nil {
			header = make([]string, len(record))
			for i, h := range record {
				header[i] = CleanCell(h)
			}
			continue
		}

		for _, cell := range record {
			if isDash(CleanCell(cell)) {
				dashCount++
			}
		}

		rows = append(rows, ParsedRow{Line: line, Fields: record})
	}

	if header == nil {
		return nil, nil, nil, 0, errEmptyFile()
	}

	return header, rows, badRows, dashCount, nil
}
