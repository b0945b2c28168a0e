package service

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"deliveryops-backend/internal/domains/importer/model"

	"github.com/xuri/excelize/v2"
)

// templateHeaders are the canonical header names, one per field in
// model.AllFields order. The mapper recognizes every one of them exactly,
// so a filled-in template round-trips with a complete auto-mapping.
var templateHeaders = map[model.Field]string{
	model.FieldOrderRef:        "Order Ref",
	model.FieldCustomerName:    "Customer Name",
	model.FieldCustomerMobile:  "Customer Mobile",
	model.FieldCustomerAddress: "Customer Address",
	model.FieldGovernorate:     "Governorate",
	model.FieldCity:            "City",
	model.FieldProductName:     "Product Name",
	model.FieldQuantity:        "Quantity",
	model.FieldUnitPrice:       "Unit Price",
	model.FieldPaymentMethod:   "Payment Method",
	model.FieldVendorNotes:     "Notes",
}

// templateExample is a single sample row so the downloaded file opens with
// the expected shapes visible, not just bare headers.
var templateExample = map[model.Field]string{
	model.FieldOrderRef:        "A1",
	model.FieldCustomerName:    "Ahmed Samir",
	model.FieldCustomerMobile:  "01012345678",
	model.FieldCustomerAddress: "12 Tahrir St, Apt 3",
	model.FieldGovernorate:     "Cairo",
	model.FieldCity:            "Nasr City",
	model.FieldProductName:     "Blue T-Shirt (L)",
	model.FieldQuantity:        "2",
	model.FieldUnitPrice:       "250",
	model.FieldPaymentMethod:   "cod",
	model.FieldVendorNotes:     "Call before delivery",
}

// GenerateTemplate renders the import template in the requested format
// ("csv" or "xlsx") and returns the file content with its MIME type.
func GenerateTemplate(format string) ([]byte, string, error) {
	headers := make([]string, len(model.AllFields))
	example := make([]string, len(model.AllFields))
	for i, f := range model.AllFields {
		headers[i] = templateHeaders[f]
		example[i] = templateExample[f]
	}

	switch format {
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(headers); err != nil {
			return nil, "", fmt.Errorf("failed to write template header: %w", err)
		}
		if err := w.Write(example); err != nil {
			return nil, "", fmt.Errorf("failed to write template row: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", fmt.Errorf("failed to flush template: %w", err)
		}
		return buf.Bytes(), "text/csv", nil

	case "xlsx":
		f := excelize.NewFile()
		defer f.Close()

		sheetName := "Orders"
		f.SetSheetName("Sheet1", sheetName)

		if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
			return nil, "", fmt.Errorf("failed to write template header: %w", err)
		}
		if err := f.SetSheetRow(sheetName, "A2", &example); err != nil {
			return nil, "", fmt.Errorf("failed to write template row: %w", err)
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return nil, "", fmt.Errorf("failed to render workbook: %w", err)
		}
		return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	default:
		return nil, "", fmt.Errorf("unsupported template format %q", format)
	}
}
