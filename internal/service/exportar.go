package service

import (
	"bytes"
	"context"
	"fmt"

	"argotelabs/internal/dto"
	"argotelabs/internal/model"

	"github.com/xuri/excelize/v2"
)

var movimientosExportHeaders = []string{
	"Fecha", "Insumo", "Tipo", "Cantidad", "Anterior", "Nueva", "Motivo", "Registrado por",
}

// ExportarMovimientos renders every ledger row matching filter (ignoring its
// page) as an .xlsx workbook, newest first.
func (s *inventarioService) ExportarMovimientos(ctx context.Context, filter dto.MovimientoFilter) ([]byte, error) {
	repoFilter, err := toRepoMovimientoFilter(filter)
	if err != nil {
		return nil, err
	}
	repoFilter.Limit = 500

	var movs []model.MovimientoStock
	for page := 1; ; page++ {
		repoFilter.Page = page
		lote, total, err := s.movimientos.List(ctx, repoFilter)
		if err != nil {
			return nil, fmt.Errorf("listar movimientos: %w", err)
		}
		movs = append(movs, lote...)
		if len(lote) == 0 || int64(len(movs)) >= total {
			break
		}
	}
	n := s.nombres.Resolver(ctx, insumoIDsDe(movs), creadoresDe(movs))

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Movimientos"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range movimientosExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for idx := range movs {
		m := &movs[idx]
		row := idx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.CreatedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), n.Insumo(m.InsumoID))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), m.Tipo)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), m.Cantidad)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), m.CantidadAnterior)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), m.CantidadNueva)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), m.Motivo)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), n.Usuario(m.CreadoPor))
	}

	colWidths := []float64{18, 28, 14, 10, 10, 10, 40, 22}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("escribir xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
