package exports

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"itad_portal_backend/internal/jobs/domain"

	"github.com/xuri/excelize/v2"
)

const (
	jobSheet   = "Job"
	itemsSheet = "Items"
	dateLayout = "2006-01-02"

	// ContentTypeXLSX is the MIME type of generated manifests.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ManifestHeader lists the item sheet columns.
var ManifestHeader = []string{
	"Item Number",
	"Quantity",
	"Category",
	"Sub-category",
	"Make",
	"Model",
	"Specification",
	"Erasure Required",
	"Processing Make",
	"Processing Model",
	"Processing Specification",
	"Serial Number",
	"Asset Tag",
	"Data Status",
	"Added",
}

var manifestColumnWidths = []float64{14, 9, 18, 18, 16, 20, 30, 10, 16, 20, 36, 20, 14, 14, 12}

// ManifestRow is one item with its taxonomy names resolved.
type ManifestRow struct {
	Item        domain.Item
	Category    string
	SubCategory string
}

// BuildManifest renders a job and its active items as an XLSX workbook.
func BuildManifest(job *domain.Job, rows []ManifestRow, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", jobSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeJobSheet(f, job, generatedAt, headerStyle); err != nil {
		return nil, err
	}
	if err := writeItemsSheet(f, rows, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeJobSheet(f *excelize.File, job *domain.Job, generatedAt time.Time, headerStyle int) error {
	fields := [][2]string{
		{"Job", job.JobID},
		{"Status", string(job.Status)},
		{"Collection Type", job.CollectionType},
		{"Collection Date", formatDate(job.CollectionDate)},
		{"Received Date", formatDate(job.ReceivedDate)},
		{"Address", formatAddress(job.Address)},
		{"Onsite Contact", job.OnsiteContact.Name},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
	}
	for i, field := range fields {
		row := i + 1
		if err := f.SetSheetRow(jobSheet, fmt.Sprintf("A%d", row), &[]interface{}{field[0], field[1]}); err != nil {
			return fmt.Errorf("failed to write job row: %w", err)
		}
		if err := f.SetCellStyle(jobSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle); err != nil {
			return fmt.Errorf("failed to style job row: %w", err)
		}
	}
	if err := f.SetColWidth(jobSheet, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(jobSheet, "B", "B", 48)
}

func writeItemsSheet(f *excelize.File, rows []ManifestRow, headerStyle int) error {
	header := make([]interface{}, len(ManifestHeader))
	for i, h := range ManifestHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ManifestHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(itemsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, width := range manifestColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(itemsSheet, col, col, width); err != nil {
			return err
		}
	}

	for i, r := range rows {
		it := r.Item
		values := []interface{}{
			it.ItemNumber,
			it.Quantity,
			r.Category,
			r.SubCategory,
			it.Make,
			it.Model,
			it.Specification,
			yesNo(it.ErasureRequired),
			it.ProcessingMake,
			it.ProcessingModel,
			formatSpecification(it.ProcessingSpecification),
			it.SerialNumber,
			it.AssetTag,
			it.ProcessingDataStatus,
			string(it.Added),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(itemsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write item %s: %w", it.ItemNumber, err)
		}
	}

	return f.SetPanes(itemsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func formatAddress(a domain.Address) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.County, a.Postcode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// formatSpecification renders a spec map as "key: value" pairs in key order.
func formatSpecification(spec map[string]string) string {
	if len(spec) == 0 {
		return ""
	}
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+spec[k])
	}
	return strings.Join(parts, "; ")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
