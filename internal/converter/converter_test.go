package converter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/excel-to-txt/internal/config"
	"github.com/ginjaninja78/excel-to-txt/internal/detector"
	"github.com/ginjaninja78/excel-to-txt/internal/fixedwidth"
	"github.com/ginjaninja78/excel-to-txt/internal/logger"
	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/rs/zerolog"
)

// statementCSV is a [DATE, LABEL, VALOR1, VALOR2] extract, out of date order,
// ending with a totals row.
const statementCSV = "DATE;LABEL;VALOR1;VALOR2\n" +
	"02/01/2024;TED;R$ 200,00;2,00\n" +
	"01/01/2024;PIX;R$ 1.000,00;1,00\n" +
	";TOTAL;R$ 1.200,00;3,00\n"

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "entradas")
	cfg.OutputDir = filepath.Join(root, "saidas")
	if err := os.MkdirAll(cfg.InputDir, 0755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writeInput(t *testing.T, cfg *config.MainConfig, name, body string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietContext() context.Context {
	return logger.WithContext(context.Background(), zerolog.Nop())
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "extrato.csv", statementCSV)

	result := New(input, cfg, Options{}).Run(quietContext())
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}

	if want := filepath.Join(cfg.OutputDir, "extrato.txt"); result.OutputFile != want {
		t.Errorf("OutputFile = %q, want %q", result.OutputFile, want)
	}
	if d := result.Detection; d.DateColumn != 0 || d.MoneyColumn1 != 2 || d.MoneyColumn2 != 3 {
		t.Errorf("Detection = %s", d)
	}
	if !result.Stats.FooterRemoved || result.Stats.RowsRead != 3 || result.Stats.LinesWritten != 2 {
		t.Errorf("Stats = %+v", result.Stats)
	}

	data, err := os.ReadFile(result.OutputFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if bytes.HasSuffix(data, []byte("\r\n")) {
		t.Error("output has a trailing separator")
	}

	lines := strings.Split(string(data), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	want := []struct {
		seq, date, amount1, amount2 string
	}{
		{"000003", "20240101", "000000000100000", "000000000000100"},
		{"000004", "20240102", "000000000020000", "000000000000200"},
	}
	for i, w := range want {
		line := lines[i]
		if len(line) != 1000 {
			t.Errorf("line %d length = %d", i, len(line))
			continue
		}
		if line[:2] != "02" || line[2:8] != w.seq || line[8:25] != "03654036541584001" {
			t.Errorf("line %d prefix = %q", i, line[:25])
		}
		if line[25:33] != w.date || line[33:48] != w.amount1 || line[48:63] != w.amount2 {
			t.Errorf("line %d fields = %q %q %q", i, line[25:33], line[33:48], line[48:63])
		}
	}
}

func TestRun_SkipAndOverwrite(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "extrato.csv", statementCSV)

	output := filepath.Join(cfg.OutputDir, "extrato.txt")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(output, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	result := New(input, cfg, Options{}).Run(quietContext())
	if !result.Success || !result.Skipped {
		t.Fatalf("expected a skip, got %+v", result)
	}
	if data, _ := os.ReadFile(output); string(data) != "old" {
		t.Error("skipped output was modified")
	}

	cfg.Overwrite = true
	result = New(input, cfg, Options{}).Run(quietContext())
	if !result.Success || result.Skipped {
		t.Fatalf("expected an overwrite, got %+v", result)
	}
	if data, _ := os.ReadFile(output); len(data) != 2002 {
		t.Errorf("output length = %d, want 2002", len(data))
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "extrato.csv", statementCSV)

	result := New(input, cfg, Options{DryRun: true}).Run(quietContext())
	if !result.Success || result.Stats.LinesWritten != 2 {
		t.Fatalf("Run() = %+v", result)
	}
	if _, err := os.Stat(result.OutputFile); !os.IsNotExist(err) {
		t.Error("dry run wrote an output file")
	}
}

func TestRun_UndetectableLayout(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "notas.csv", "A;B\nfoo;bar\nbaz;qux\n")

	result := New(input, cfg, Options{}).Run(quietContext())
	if result.Success || !errors.Is(result.Error, detector.ErrUndetectableLayout) {
		t.Errorf("Run() error = %v, want ErrUndetectableLayout", result.Error)
	}
}

func TestRun_ValidationFindings(t *testing.T) {
	body := "DATE;LABEL;V1;V2\n31/02/2024;PIX;1,00;2,00\n01/03/2024;TED;3,00;4,00\n"

	t.Run("impossible date is written unchanged", func(t *testing.T) {
		cfg := testConfig(t)
		stop := false
		cfg.ContinueOnError = &stop
		input := writeInput(t, cfg, "extrato.csv", body)

		result := New(input, cfg, Options{}).Run(quietContext())
		if !result.Success {
			t.Fatalf("Run() error = %v", result.Error)
		}
		if result.Validation.ErrorCount != 0 || result.Validation.WarningCount != 1 {
			t.Errorf("validation = %s, want one warning", result.Validation.Summary())
		}

		data, err := os.ReadFile(result.OutputFile)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "20240231") {
			t.Error("output does not carry 20240231")
		}
	})

	t.Run("strict validation continues when allowed", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StrictValidation = true
		input := writeInput(t, cfg, "extrato.csv", body)

		result := New(input, cfg, Options{}).Run(quietContext())
		if !result.Success {
			t.Fatalf("Run() error = %v", result.Error)
		}
		if result.Validation.IsValid {
			t.Error("IsValid = true, want false under strict validation")
		}
	})

	t.Run("strict validation stops on warnings", func(t *testing.T) {
		cfg := testConfig(t)
		stop := false
		cfg.ContinueOnError = &stop
		cfg.StrictValidation = true
		input := writeInput(t, cfg, "extrato.csv", body)

		result := New(input, cfg, Options{}).Run(quietContext())
		if result.Success || !errors.Is(result.Error, ErrValidationFailed) {
			t.Errorf("Run() error = %v, want ErrValidationFailed", result.Error)
		}
		if _, err := os.Stat(result.OutputFile); !os.IsNotExist(err) {
			t.Error("output written despite validation failure")
		}
	})
}

func TestRun_LogsThroughContext(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "extrato.csv", statementCSV)

	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&buf))

	if result := New(input, cfg, Options{}).Run(ctx); !result.Success {
		t.Fatalf("Run() error = %v", result.Error)
	}

	out := buf.String()
	for _, want := range []string{`"file":"extrato.csv"`, "removed trailing totals row", `"message":"converted"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestConvert_NativeCells(t *testing.T) {
	day := func(d int) types.Cell { return types.DateCell(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)) }

	grid := types.NewGridFromRows(nil, [][]types.Cell{
		{day(3), types.TextCell("C"), types.NumberCell(300), types.NumberCell(3)},
		{day(1), types.TextCell("A"), types.NumberCell(100), types.NumberCell(1)},
		{day(2), types.TextCell("B"), types.NumberCell(200), types.NumberCell(2)},
		{types.EmptyCell(), types.TextCell("Total"), types.NumberCell(250), types.NumberCell(9)},
	})

	out, err := Convert(grid, fixedwidth.NewWriter(fixedwidth.DefaultLayout(), zerolog.Nop()))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	// Neither amount matches its sum or is 5x its median: kept, sorted last.
	if out.FooterRemoved || len(out.Lines) != 4 {
		t.Fatalf("FooterRemoved = %v, lines = %d", out.FooterRemoved, len(out.Lines))
	}
	wantDates := []string{"20240101", "20240102", "20240103", "00000000"}
	for i, line := range out.Lines {
		if got := line[25:33]; got != wantDates[i] {
			t.Errorf("line %d date = %q, want %q", i, got, wantDates[i])
		}
	}
	if out.Rows[3].Amount1 != 25000 {
		t.Errorf("kept row amount1 = %d, want 25000", out.Rows[3].Amount1)
	}
}

func TestRunBatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxConcurrency = 2

	files := []string{
		writeInput(t, cfg, "a.csv", statementCSV),
		writeInput(t, cfg, "b.csv", "A;B\nfoo;bar\n"),
		writeInput(t, cfg, "c.csv", statementCSV),
	}

	results, summary := RunBatch(quietContext(), files, cfg, Options{})

	if len(results) != 3 {
		t.Fatalf("len(results) = %d", len(results))
	}
	for i, r := range results {
		if r.FilePath != files[i] {
			t.Errorf("results[%d] is for %q, want %q", i, r.FilePath, files[i])
		}
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Errorf("success flags = %v %v %v", results[0].Success, results[1].Success, results[2].Success)
	}

	if summary.RunID == "" || summary.TotalFiles != 3 || summary.SuccessfulFiles != 2 || summary.FailedFiles != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.TotalLines != 4 || summary.FootersRemoved != 2 {
		t.Errorf("TotalLines = %d, FootersRemoved = %d", summary.TotalLines, summary.FootersRemoved)
	}
}

func TestRunBatch_DuplicateOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxConcurrency = 4

	files := []string{
		writeInput(t, cfg, "extrato.csv", statementCSV),
		writeInput(t, cfg, "extrato.xlsx", "not a workbook"),
		writeInput(t, cfg, "outro.csv", statementCSV),
	}

	results, summary := RunBatch(quietContext(), files, cfg, Options{})

	if !results[0].Success || results[0].Skipped {
		t.Errorf("first claimant = %+v, want converted", results[0])
	}
	if results[1].Success || !errors.Is(results[1].Error, ErrDuplicateOutput) {
		t.Errorf("second claimant error = %v, want ErrDuplicateOutput", results[1].Error)
	}
	if results[1].OutputFile != results[0].OutputFile {
		t.Errorf("OutputFile = %q, want %q", results[1].OutputFile, results[0].OutputFile)
	}
	if !results[2].Success {
		t.Errorf("unrelated file error = %v", results[2].Error)
	}
	if summary.SuccessfulFiles != 2 || summary.FailedFiles != 1 || summary.SkippedFiles != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	files := []string{writeInput(t, cfg, "a.csv", statementCSV)}

	ctx, cancel := context.WithCancel(quietContext())
	cancel()

	results, summary := RunBatch(ctx, files, cfg, Options{})
	if results[0].Success || summary.FailedFiles != 1 {
		t.Errorf("cancelled batch result = %+v", results[0])
	}
}
