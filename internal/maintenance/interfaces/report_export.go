package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	assets "medequip-cloud/internal/assets/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

// BuildWorkOrderPDF renders a work order report. partNames maps part id
// to display name; missing entries fall back to the id.
func BuildWorkOrderPDF(order *maintenance.WorkOrder, asset *assets.Asset, partNames map[string]string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Work Order Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Work Order: %s", order.ID))
	pdf.Ln(5)
	if asset != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Asset: %s (%s)", asset.Name, asset.ID))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Model: %s", asset.Model))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Location: %s", asset.LocationID))
		pdf.Ln(5)
	} else {
		pdf.Cell(0, 6, fmt.Sprintf("Asset Ref: %s", order.AssetRef))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Type: %s", order.Type))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Priority: %s", order.Priority))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", order.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Reported: %s", order.CreatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	if !order.StartedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Started: %s", order.StartedAt.UTC().Format(time.RFC3339)))
		pdf.Ln(5)
	}
	if !order.ClosedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Closed: %s", order.ClosedAt.UTC().Format(time.RFC3339)))
		pdf.Ln(5)
	}
	if duration, ok := order.RepairDuration(); ok {
		pdf.Cell(0, 6, fmt.Sprintf("Repair Time: %.1f hours", duration.Hours()))
		pdf.Ln(5)
	}

	if order.FaultText != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Reported Fault")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, order.FaultText, "", "L", false)
	}
	if order.Resolution != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Resolution")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, order.Resolution, "", "L", false)
	}

	if len(order.PartsUsed) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(80, 6, "Part", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Quantity", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, usage := range order.PartsUsed {
			name := partNames[usage.PartID]
			if name == "" {
				name = usage.PartID
			}
			pdf.CellFormat(80, 6, name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%d", usage.Quantity), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
