// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recordio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"triage-scan/internal/record"
)

// ReadFiles loads each path as one record, in argument order. Plain files
// are read as UTF-8 text; .pdf files go through text extraction first.
func ReadFiles(paths []string) ([]record.Record, error) {
	records := make([]record.Record, 0, len(paths))
	for i, path := range paths {
		var text string
		var err error
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			text, err = extractPDFText(path)
		} else {
			text, err = readTextFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		records = append(records, record.Record{ID: i, Text: text, Source: path})
	}
	return records, nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractPDFText pulls the plain text out of a PDF report.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting PDF text: %w", err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("reading PDF text: %w", err)
	}
	return buf.String(), nil
}
