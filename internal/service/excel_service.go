package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pondok-keuangan/internal/models"
)

const notSubmitted = "belum mengajukan"

var statusFills = map[string]string{
	string(models.StatusDiajukan): "#FFF2CC",
	string(models.StatusDiterima): "#D9EAD3",
	string(models.StatusRevisi):   "#F4CCCC",
	notSubmitted:                  "#EEEEEE",
}

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// rekapSheet is one worksheet of the rekap workbook.
type rekapSheet struct {
	name     string
	headers  []string
	widths   []float64
	numeric  []int // zero-based columns holding amounts
	statuses []string
	rows     [][]interface{}
}

// ExportRekap writes a Ringkasan sheet plus one sheet per document kind.
// Every pondok of the roster gets a row, coloured by status.
func (s *ExcelService) ExportRekap(rekap *Rekap, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeSummary(f, rekap); err != nil {
		return nil, err
	}

	sheets := []rekapSheet{rabSheet(rekap.RAB, loc), lpjSheet(rekap.LPJ, loc)}
	for _, sh := range sheets {
		if err := s.writeSheet(f, sh); err != nil {
			return nil, fmt.Errorf("write %s sheet: %w", sh.name, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func (s *ExcelService) writeSummary(f *excelize.File, rekap *Rekap) error {
	sheetName := "Ringkasan"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	p := rekap.Periode
	f.SetCellValue(sheetName, "A1", "Rekap Periode")
	f.SetCellValue(sheetName, "B1", p.ID)
	f.SetCellValue(sheetName, "A2", "Tahun / Bulan")
	f.SetCellValue(sheetName, "B2", fmt.Sprintf("%d / %02d", p.Tahun, p.Bulan))
	f.SetCellValue(sheetName, "A3", "Jumlah Pondok")
	f.SetCellValue(sheetName, "B3", len(rekap.RAB))

	headers := []string{"Dokumen", "Diajukan", "Diterima", "Revisi", "Belum Mengajukan"}
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s5", getColumnName(i)), header)
	}
	for i, kind := range []models.DocumentKind{models.KindRAB, models.KindLPJ} {
		row := 6 + i
		c := rekap.Counts[kind]
		missing := len(rekap.RAB) - c.Total()
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), string(kind))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), c.Diajukan)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), c.Diterima)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), c.Revisi)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), missing)
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetName, "A1", "A3", boldStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A5", "E5", headerStyle)

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "E", 18)
	return nil
}

func (s *ExcelService) writeSheet(f *excelize.File, sh rekapSheet) error {
	if _, err := f.NewSheet(sh.name); err != nil {
		return err
	}

	for i, header := range sh.headers {
		f.SetCellValue(sh.name, fmt.Sprintf("%s1", getColumnName(i)), header)
	}
	lastCol := getColumnName(len(sh.headers) - 1)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sh.name, "A1", lastCol+"1", headerStyle)

	// Amount cells keep the row colour and add #,##0.00.
	rowStyles := make(map[string]int, len(statusFills))
	amountStyles := make(map[string]int, len(statusFills))
	for status, color := range statusFills {
		fill := excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
		id, err := f.NewStyle(&excelize.Style{Fill: fill})
		if err != nil {
			return err
		}
		rowStyles[status] = id
		if id, err = f.NewStyle(&excelize.Style{Fill: fill, NumFmt: 4}); err != nil {
			return err
		}
		amountStyles[status] = id
	}

	for i, values := range sh.rows {
		row := i + 2
		status := sh.statuses[i]
		for col, value := range values {
			f.SetCellValue(sh.name, fmt.Sprintf("%s%d", getColumnName(col), row), value)
		}
		f.SetCellStyle(sh.name, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), rowStyles[status])
		if status == notSubmitted {
			continue
		}
		for _, col := range sh.numeric {
			cell := fmt.Sprintf("%s%d", getColumnName(col), row)
			f.SetCellStyle(sh.name, cell, cell, amountStyles[status])
		}
	}

	for i, width := range sh.widths {
		colName := getColumnName(i)
		f.SetColWidth(sh.name, colName, colName, width)
	}
	return f.SetPanes(sh.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func rabSheet(entries []RosterEntry[models.RAB], loc *time.Location) rekapSheet {
	sh := rekapSheet{
		name: "RAB",
		headers: []string{
			"No", "Pondok", "Jenis", "Status", "Saldo Awal", "Rencana Pemasukan",
			"Rencana Pengeluaran", "Diajukan", "Diterima", "Pesan Revisi",
		},
		widths:  []float64{6, 35, 12, 18, 18, 20, 20, 18, 18, 40},
		numeric: []int{4, 5, 6},
	}
	for i, e := range entries {
		row := []interface{}{i + 1, e.Pondok.Nama, string(e.Pondok.Jenis)}
		if e.Document == nil {
			sh.rows = append(sh.rows, append(row, notSubmitted))
			sh.statuses = append(sh.statuses, notSubmitted)
			continue
		}
		d := e.Document
		row = append(row, string(d.Status), amount(d.SaldoAwal), amount(d.RencanaPemasukan),
			amount(d.RencanaPengeluaran), formatTime(&d.SubmittedAt, loc), formatTime(d.AcceptedAt, loc),
			deref(d.PesanRevisi))
		sh.rows = append(sh.rows, row)
		sh.statuses = append(sh.statuses, string(d.Status))
	}
	return sh
}

func lpjSheet(entries []RosterEntry[models.LPJ], loc *time.Location) rekapSheet {
	sh := rekapSheet{
		name: "LPJ",
		headers: []string{
			"No", "Pondok", "Jenis", "Status", "Saldo Awal", "Realisasi Pemasukan",
			"Realisasi Pengeluaran", "Sisa Saldo", "Diajukan", "Diterima", "Pesan Revisi",
		},
		widths:  []float64{6, 35, 12, 18, 18, 20, 20, 18, 18, 18, 40},
		numeric: []int{4, 5, 6, 7},
	}
	for i, e := range entries {
		row := []interface{}{i + 1, e.Pondok.Nama, string(e.Pondok.Jenis)}
		if e.Document == nil {
			sh.rows = append(sh.rows, append(row, notSubmitted))
			sh.statuses = append(sh.statuses, notSubmitted)
			continue
		}
		d := e.Document
		row = append(row, string(d.Status), amount(d.SaldoAwal), amount(d.RealisasiPemasukan),
			amount(d.RealisasiPengeluaran), amount(d.SisaSaldo), formatTime(&d.SubmittedAt, loc),
			formatTime(d.AcceptedAt, loc), deref(d.PesanRevisi))
		sh.rows = append(sh.rows, row)
		sh.statuses = append(sh.statuses, string(d.Status))
	}
	return sh
}

func amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func getColumnName(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
	}
	return result
}
