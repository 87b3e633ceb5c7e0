package imaging

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// DefaultProblem is used when a request names no problem type.
const DefaultProblem = "supervised"

// NormalizeProblem returns problem, or DefaultProblem when it is empty.
func NormalizeProblem(problem string) string {
	if problem == "" {
		return DefaultProblem
	}
	return problem
}

// encodesTarget reports whether a problem type expects a class label in the
// last column.
func encodesTarget(problem string) bool {
	return problem == "supervised"
}

// TargetEncoding maps each class label of the target column to its code.
type TargetEncoding struct {
	Column string
	Labels map[string]int
}

// EncodeTarget replaces a categorical last column with integer codes. Classes
// are numbered in sorted order starting at zero and blank cells stay blank. A
// numeric target is returned untouched with a nil encoding.
func EncodeTarget(data []byte) ([]byte, *TargetEncoding, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "dataset is not valid CSV: %v", err)
	}
	if len(records) < 2 || len(records[0]) == 0 {
		return data, nil, nil
	}

	target := len(records[0]) - 1
	var classes []string
	numeric := true
	for _, record := range records[1:] {
		if target >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[target])
		if value == "" {
			continue
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			numeric = false
		}
		if !slices.Contains(classes, value) {
			classes = append(classes, value)
		}
	}
	if numeric {
		return data, nil, nil
	}

	slices.Sort(classes)
	encoding := &TargetEncoding{Column: records[0][target], Labels: make(map[string]int, len(classes))}
	for i, class := range classes {
		encoding.Labels[class] = i
	}
	for _, record := range records[1:] {
		if target >= len(record) {
			continue
		}
		if code, ok := encoding.Labels[strings.TrimSpace(record[target])]; ok {
			record[target] = strconv.Itoa(code)
		}
	}

	var out bytes.Buffer
	writer := csv.NewWriter(&out)
	if err := writer.WriteAll(records); err != nil {
		return nil, nil, fmt.Errorf("failed to write encoded dataset: %w", err)
	}
	return out.Bytes(), encoding, nil
}
