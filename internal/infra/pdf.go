package infra

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// OrdenTrabajoPDF is the data printed on a work order sheet.
type OrdenTrabajoPDF struct {
	Laboratorio  string
	Numero       string // short job id
	Tratamiento  string
	Paciente     string
	Pieza        string
	Doctor       string
	Estado       string
	Etapa        string
	FechaEntrega string
	Notas        string
	CreadoPor    string
	CreadoEn     time.Time
	Materiales   []MaterialPDF
}

type MaterialPDF struct {
	Insumo   string
	Cantidad int
	Etapa    string
}

// GenerarOrdenPDF renders an A4 work order and returns the document bytes.
func GenerarOrdenPDF(o OrdenTrabajoPDF) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(o.Laboratorio), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 6, tr("Orden de trabajo #"+o.Numero), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, o.CreadoEn.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(4)

	// ── Job data ─────────────────────────────────────────────────────────────
	campos := [][2]string{
		{"Tratamiento", o.Tratamiento},
		{"Paciente", o.Paciente},
		{"Pieza", o.Pieza},
		{"Doctor", o.Doctor},
		{"Fecha de entrega", o.FechaEntrega},
		{"Estado", fmt.Sprintf("%s / %s", o.Estado, o.Etapa)},
		{"Registrado por", o.CreadoPor},
	}
	labelW := 45.0
	for _, c := range campos {
		if c[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelW, 7, tr(c[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW-labelW, 7, tr(c[1]), "", 1, "L", false, 0, "")
	}

	if o.Notas != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 7, "Notas:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, tr(o.Notas), "", "L", false)
	}

	// ── Materials ────────────────────────────────────────────────────────────
	if len(o.Materiales) > 0 {
		pdf.Ln(4)
		col1 := contentW * 0.60
		col2 := contentW * 0.20
		col3 := contentW * 0.20

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(col1, 7, "Insumo", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 7, "Cantidad", "B", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 7, "Etapa", "B", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, m := range o.Materiales {
			pdf.CellFormat(col1, 6, tr(m.Insumo), "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 6, fmt.Sprintf("%d", m.Cantidad), "", 0, "C", false, 0, "")
			pdf.CellFormat(col3, 6, tr(m.Etapa), "", 1, "C", false, 0, "")
		}
	}

	// ── Signature ────────────────────────────────────────────────────────────
	pdf.Ln(20)
	pdf.Line(15, pdf.GetY(), 85, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(70, 5, "Firma responsable", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: generar orden: %w", err)
	}
	return buf.Bytes(), nil
}
