package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

const testLibrary = `{
	// test layout
	"ecu": "EDC17C46",
	"maps": [
		{"name": "Fuel", "start_address": "0x10", "columns": 2, "rows": 2, "unit": "mg"},
		{"name": "Lambda", "start_address": 64, "columns": 1, "rows": 1, "data_type": "8bit"},
	],
}`

// fixture writes a 64-byte image (bytes 0..63) and a library next to it.
func fixture(t *testing.T) (image, library string) {
	t.Helper()
	dir := t.TempDir()

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	image = filepath.Join(dir, "stock.bin")
	if err := os.WriteFile(image, data, 0o644); err != nil {
		t.Fatal(err)
	}
	library = filepath.Join(dir, "edc17.jsonc")
	if err := os.WriteFile(library, []byte(testLibrary), 0o644); err != nil {
		t.Fatal(err)
	}
	return image, library
}

// resetFlags restores flag state between executions of the shared
// command tree.
func resetFlags() {
	defsPath, mapNames, extractAll = "", nil, false
	outFormat, parallelism = formatTable, 4
	inlineName, inlineAddress = "map", ""
	inlineColumns, inlineRows = 0, 0
	inlineType, inlineSigned = ecumap.DefaultToken, false
	inlineFactor, inlineUnit = ecumap.DefaultConversionFactor, ""
	verbose = false

	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestExtract_Inline(t *testing.T) {
	image, _ := fixture(t)

	out, _, err := run(t, "extract", image, "--address", "0x0", "--columns", "2", "--rows", "2", "--format", "json")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	var maps []struct {
		Name         string      `json:"name"`
		StartAddress string      `json:"start_address"`
		Encoding     string      `json:"encoding"`
		MapData      [][]float64 `json:"map_data"`
	}
	if err := json.Unmarshal([]byte(out), &maps); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(maps) != 1 {
		t.Fatalf("got %d maps, want 1", len(maps))
	}
	m := maps[0]
	if m.Name != "map" || m.StartAddress != "0x0" || m.Encoding != "u16be" {
		t.Errorf("got %+v", m)
	}
	want := [][]float64{{1, 515}, {1029, 1543}}
	for r := range want {
		for c := range want[r] {
			if m.MapData[r][c] != want[r][c] {
				t.Errorf("map_data[%d][%d] = %v, want %v", r, c, m.MapData[r][c], want[r][c])
			}
		}
	}
}

func TestExtract_InlineFactorAndType(t *testing.T) {
	image, _ := fixture(t)

	out, _, err := run(t, "extract", image, "-a", "8", "-c", "4", "-r", "1", "-t", "8bit", "--factor", "0.5", "-o", "csv")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got, want := strings.TrimSpace(out), "map,4,4.5,5,5.5"; got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}

func TestExtract_Library(t *testing.T) {
	image, library := fixture(t)

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{"table", "table", []string{"Fuel @ 0x10  2x2 u16be", "[mg]", "4113", "5655"}},
		{"heatmap", "heatmap", []string{"Fuel @ 0x10", "4627", "5141"}},
		{"csv", "csv", []string{"Fuel,4113,4627", "Fuel,5141,5655"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "extract", image, "--defs", library, "--map", "Fuel", "--format", tt.format)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestExtract_AllReportsFailures(t *testing.T) {
	image, library := fixture(t)

	out, stderr, err := run(t, "extract", image, "--defs", library, "--all")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 maps failed") {
		t.Fatalf("err = %v, want a failed map count", err)
	}
	if !strings.Contains(out, "Fuel") {
		t.Errorf("successful map missing from output:\n%s", out)
	}
	if !strings.Contains(stderr, "Lambda") || !strings.Contains(stderr, "MAP003") {
		t.Errorf("stderr = %q, want the Lambda failure with MAP003", stderr)
	}
}

func TestExtract_ScaledOverflow(t *testing.T) {
	image, _ := fixture(t)

	out, stderr, err := run(t, "extract", image, "-a", "0x3E", "-c", "1", "-r", "1", "--factor", "1e308", "-o", "json")
	if err == nil || !strings.Contains(err.Error(), "1 of 1 maps failed") {
		t.Fatalf("err = %v, want a failed map count", err)
	}
	if !strings.Contains(stderr, "MAP001") || !strings.Contains(stderr, "overflows") {
		t.Errorf("stderr = %q, want the overflow reported as MAP001", stderr)
	}

	var maps []map[string]any
	if err := json.Unmarshal([]byte(out), &maps); err != nil {
		t.Fatalf("json output %q: %v", out, err)
	}
	if len(maps) != 1 || maps[0]["map_data"] != nil || maps[0]["error"] == nil {
		t.Errorf("json output = %v, want one entry with an error and no map_data", maps)
	}
}

func TestExtract_Errors(t *testing.T) {
	image, library := fixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no address", []string{"extract", image}, "--address is required"},
		{"map without defs", []string{"extract", image, "--map", "Fuel"}, "require --defs"},
		{"no selection", []string{"extract", image, "--defs", library}, "--map or --all"},
		{"map and all", []string{"extract", image, "--defs", library, "--all", "--map", "Fuel"}, "mutually exclusive"},
		{"unknown map", []string{"extract", image, "--defs", library, "--map", "Boost"}, `map "Boost" not found`},
		{"bad format", []string{"extract", image, "-a", "0", "-c", "1", "-r", "1", "-o", "xml"}, "unknown format"},
		{"bad extension", []string{"extract", library, "-a", "0", "-c", "1", "-r", "1"}, "invalid file type"},
		{"zero rows", []string{"extract", image, "-a", "0", "-c", "1", "-r", "0"}, "rows: must be positive"},
		{"bad type", []string{"extract", image, "-a", "0", "-c", "1", "-r", "1", "-t", "32bit"}, "32bit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestDefs(t *testing.T) {
	_, library := fixture(t)

	out, _, err := run(t, "defs", library)
	if err != nil {
		t.Fatalf("defs: %v", err)
	}
	for _, want := range []string{"ECU: EDC17C46", "2 maps", "NAME", "Fuel", "0x10", "2x2", "u16be", "8 B", "mg", "Lambda", "u8"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInfo(t *testing.T) {
	image, library := fixture(t)

	out, _, err := run(t, "info", image)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"64 B (64 bytes)", "0x3F", "Checksum:", "valid", "Upload accepted:", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = run(t, "info", library)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "no (invalid file type") {
		t.Errorf("expected rejected extension in:\n%s", out)
	}
}

func TestLogSettings(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		verbose    bool
		wantLevel  string
		wantFormat string
	}{
		{"defaults", nil, false, "warn", "text"},
		{"from environment", map[string]string{"LOG_LEVEL": "info", "LOG_FORMAT": "json"}, false, "info", "json"},
		{"verbose wins", map[string]string{"LOG_LEVEL": "error"}, true, "debug", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			verbose = tt.verbose
			defer resetFlags()

			level, format := logSettings(func(k string) string { return tt.env[k] })
			if level != tt.wantLevel || format != tt.wantFormat {
				t.Errorf("logSettings() = %q, %q, want %q, %q", level, format, tt.wantLevel, tt.wantFormat)
			}
		})
	}
}

func TestHeatIndex(t *testing.T) {
	last := len(heatPalette) - 1
	tests := []struct {
		v, lo, hi float64
		want      int
	}{
		{0, 0, 100, 0},
		{100, 0, 100, last},
		{50, 0, 100, last / 2},
		{7, 7, 7, len(heatPalette) / 2},
		{-5, 0, 100, 0},
	}
	for _, tt := range tests {
		if got := heatIndex(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("heatIndex(%v, %v, %v) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
