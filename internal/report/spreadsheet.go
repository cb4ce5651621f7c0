// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// SheetName is the single worksheet of the spreadsheet artifact.
const SheetName = "Research"

// Header is the spreadsheet header row.
var Header = []string{"Use Cases", "Description", "Reference"}

// renderSpreadsheet writes one header row and one row per record.
func renderSpreadsheet(records []types.ResultRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{useCaseCell(r), description(r), r.URL}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
		if !r.IsError {
			ref, _ := excelize.CoordinatesToCellName(3, i+2)
			if err := f.SetCellHyperLink(SheetName, ref, r.URL, "External"); err != nil {
				return nil, fmt.Errorf("linking row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 60); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 80); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "C", "C", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return canonicalZip(buf.Bytes())
}

// canonicalZip rewrites a zip archive with entries sorted by name and no
// timestamps, so equal contents always produce equal bytes.
func canonicalZip(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	files := append([]*zip.File{}, zr.File...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, zf := range files {
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", zf.Name, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: zf.Name, Method: zip.Deflate})
		if err != nil {
			rc.Close()
			return nil, err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("copying %s: %w", zf.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
