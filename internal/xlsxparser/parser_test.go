package xlsxparser

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/xuri/excelize/v2"
)

// writeStatement saves a small bank statement with a date-styled column.
func writeStatement(t *testing.T, saveOpts ...excelize.Options) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("NewStyle() error = %v", err)
	}

	rows := [][]interface{}{
		{"DATA", "HISTORICO", "VALOR1", "VALOR2"},
		{45296.0, "PIX", 1234.56, 10.0},
		{},
		{"05/01/2024", "TED", "R$ 50,00", 0.5},
	}
	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+1)
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	if err := f.SetCellStyle("Sheet1", "A2", "A2", dateStyle); err != nil {
		t.Fatalf("SetCellStyle() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "extrato.xlsx")
	if err := f.SaveAs(path, saveOpts...); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestParse_TypedCells(t *testing.T) {
	path := writeStatement(t)

	grid, err := Parse(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if grid.NumColumns() != 4 || grid.NumRows() != 2 {
		t.Fatalf("grid = %d cols x %d rows, want 4 x 2", grid.NumColumns(), grid.NumRows())
	}
	if grid.Label(0) != "DATA" || grid.Label(3) != "VALOR2" {
		t.Errorf("labels = %v", grid.Labels)
	}
	if grid.SourceFile != path {
		t.Errorf("SourceFile = %q", grid.SourceFile)
	}

	date := grid.Column(0)[0]
	if date.Kind != types.CellDate {
		t.Fatalf("A2 kind = %v, want date", date.Kind)
	}
	if want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC); !date.Date.Equal(want) {
		t.Errorf("A2 = %v, want %v", date.Date, want)
	}

	tests := []struct {
		name string
		cell types.Cell
		kind types.CellKind
	}{
		{"text date", grid.Column(0)[1], types.CellText},
		{"label", grid.Column(1)[0], types.CellText},
		{"number", grid.Column(2)[0], types.CellNumber},
		{"money text", grid.Column(2)[1], types.CellText},
		{"small number", grid.Column(3)[1], types.CellNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cell.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", tt.cell.Kind, tt.kind)
			}
		})
	}

	if got := grid.Column(2)[0].Number; got != 1234.56 {
		t.Errorf("C2 = %v, want 1234.56", got)
	}
}

func TestParse_NoHeaderRows(t *testing.T) {
	opts := DefaultOptions()
	opts.HeaderRows = 0

	grid, err := Parse(writeStatement(t), opts)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if grid.NumRows() != 3 {
		t.Errorf("NumRows() = %d, want 3", grid.NumRows())
	}
}

func TestParse_UnknownSheet(t *testing.T) {
	opts := DefaultOptions()
	opts.Sheet = "Missing"

	if _, err := Parse(writeStatement(t), opts); err == nil {
		t.Error("expected an error for a missing sheet")
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("extrato.ods", DefaultOptions())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Parse() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParse_Encrypted(t *testing.T) {
	path := writeStatement(t, excelize.Options{Password: "s3nha"})

	t.Run("no password", func(t *testing.T) {
		_, err := Parse(path, DefaultOptions())
		if !errors.Is(err, ErrPasswordRequired) {
			t.Errorf("Parse() error = %v, want ErrPasswordRequired", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Password = "errada"
		_, err := Parse(path, opts)
		if !errors.Is(err, ErrWrongPassword) {
			t.Errorf("Parse() error = %v, want ErrWrongPassword", err)
		}
	})

	t.Run("configured password", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Password = "s3nha"
		grid, err := Parse(path, opts)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if grid.NumRows() != 2 {
			t.Errorf("NumRows() = %d, want 2", grid.NumRows())
		}
	})

	t.Run("prompt succeeds on second attempt", func(t *testing.T) {
		var attempts []int
		opts := DefaultOptions()
		opts.Prompt = func(name string, attempt int) (string, error) {
			attempts = append(attempts, attempt)
			if attempt == 2 {
				return "s3nha", nil
			}
			return "errada", nil
		}
		if _, err := Parse(path, opts); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(attempts) != 2 {
			t.Errorf("attempts = %v, want [1 2]", attempts)
		}
	})

	t.Run("prompt exhausted", func(t *testing.T) {
		calls := 0
		opts := DefaultOptions()
		opts.Prompt = func(string, int) (string, error) {
			calls++
			return "errada", nil
		}
		_, err := Parse(path, opts)
		if !errors.Is(err, ErrWrongPassword) {
			t.Errorf("Parse() error = %v, want ErrWrongPassword", err)
		}
		if calls != 3 {
			t.Errorf("prompt called %d times, want 3", calls)
		}
	})
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"dd/mm/yyyy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"[$-416]d \"de\" mmmm", true},
		{"#,##0.00", false},
		{"\"R$\" #,##0.00", false},
		{"[Red]0.00", false},
		{"hh:mm", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := isDateFormatCode(tt.code); got != tt.want {
				t.Errorf("isDateFormatCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestMergeLabels(t *testing.T) {
	got := mergeLabels([][]string{
		{"Valores", ""},
		{"Débito", "Crédito", "Saldo"},
	})
	want := []string{"Valores Débito", "Crédito", "Saldo"}

	if len(got) != len(want) {
		t.Fatalf("mergeLabels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestXLSCell(t *testing.T) {
	if c := xlsCell("  "); c.Kind != types.CellEmpty {
		t.Errorf("blank kind = %v", c.Kind)
	}
	if c := xlsCell("1234.5"); c.Kind != types.CellNumber || c.Number != 1234.5 {
		t.Errorf("numeric = %+v", c)
	}
	if c := xlsCell("05/01/2024"); c.Kind != types.CellText {
		t.Errorf("date text kind = %v", c.Kind)
	}
}

func TestSupports(t *testing.T) {
	for path, want := range map[string]bool{
		"a.xlsx": true, "b.XLS": true, "c.xlsm": true, "d.csv": false, "e.txt": false,
	} {
		if got := Supports(path); got != want {
			t.Errorf("Supports(%q) = %v, want %v", path, got, want)
		}
	}
}
