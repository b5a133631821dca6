package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// makeConfig writes a config file plus SDR serial lists into a temp dir and
// parses it. bsExtra/clExtra override the baseline fields; clExtra == nil
// omits the Clients section.
func makeConfig(t *testing.T, numBsSdrs int, frame string,
	bsExtra, clExtra map[string]interface{}) (*Config, error) {
	t.Helper()
	dir := t.TempDir()

	var serials []string
	for i := 0; i < numBsSdrs; i++ {
		serials = append(serials, fmt.Sprintf("RF3E%06d", i))
	}
	sdrFile := filepath.Join(dir, "bs_serials.txt")
	content := "# base station serials\n" + strings.Join(serials, "\n") + "\n"
	if err := os.WriteFile(sdrFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	bs := map[string]interface{}{
		"sdr_id":                   []string{"bs_serials.txt"},
		"frame_schedule":           []string{frame},
		"fft_size":                 64,
		"cp_size":                  16,
		"ofdm_symbol_per_subframe": 6,
		"prefix":                   82,
		"postfix":                  68,
		"rate":                     5e6,
		"channel":                  "A",
	}
	for k, v := range bsExtra {
		bs[k] = v
	}
	top := map[string]interface{}{"BaseStations": bs}
	if clExtra != nil {
		top["Clients"] = clExtra
	}

	raw, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	// the config dialect allows comments
	conf := "// sounder test configuration\n/* generated by the test helper */\n" + string(raw)
	confPath := filepath.Join(dir, "conf.json")
	if err := os.WriteFile(confPath, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	return NewConfig(confPath, dir)
}

func TestParseBasic(t *testing.T) {
	cfg, err := makeConfig(t, 2, "BGPGUGDGN", nil, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Freq != 2.5e9 {
		t.Errorf("Freq = %g, want default 2.5e9", cfg.Freq)
	}
	if cfg.Nco != 0.75*cfg.Rate {
		t.Errorf("Nco = %g, want 0.75*rate", cfg.Nco)
	}
	if cfg.BwFilter != cfg.Rate+2*cfg.Nco {
		t.Errorf("BwFilter = %g", cfg.BwFilter)
	}
	if cfg.RadioRFFreq != cfg.Freq-cfg.Nco {
		t.Errorf("RadioRFFreq = %g", cfg.RadioRFFreq)
	}
	if cfg.NumCells != 1 || cfg.NumBsSdrsAll != 2 {
		t.Errorf("cells=%d sdrs=%d, want 1 and 2", cfg.NumCells, cfg.NumBsSdrsAll)
	}
	if got := cfg.getTotNumAntennas(); got != 2 {
		t.Errorf("total antennas = %d, want 2", got)
	}
	if cfg.SymbolsPerFrame != 9 {
		t.Errorf("SymbolsPerFrame = %d, want 9", cfg.SymbolsPerFrame)
	}
	if cfg.PilotSymsPerFrame != 1 || cfg.ULSymsPerFrame != 1 ||
		cfg.DLSymsPerFrame != 1 || cfg.NoiseSymsPerFrame != 1 {
		t.Errorf("per-frame counts = P%d U%d D%d N%d, want 1 each",
			cfg.PilotSymsPerFrame, cfg.ULSymsPerFrame, cfg.DLSymsPerFrame, cfg.NoiseSymsPerFrame)
	}
	// with no client section the client population comes from the pilots
	if cfg.NumClSdrs != 1 || cfg.NumClAntennas != 1 {
		t.Errorf("client counts = %d/%d, want 1/1", cfg.NumClSdrs, cfg.NumClAntennas)
	}
	if cfg.SampsPerSymbol != 6*(64+16)+82+68 {
		t.Errorf("SampsPerSymbol = %d", cfg.SampsPerSymbol)
	}
	if !cfg.ULDataSymPresent {
		t.Error("ULDataSymPresent should be true for a frame with U")
	}
	if !strings.Contains(cfg.TraceFile, "trace-uplink-") {
		t.Errorf("trace file %q missing uplink tag", cfg.TraceFile)
	}
	if !strings.HasSuffix(cfg.TraceFile, "_1x2x1.parquet") {
		t.Errorf("trace file %q missing topology suffix", cfg.TraceFile)
	}
	if !cfg.Running() {
		t.Error("running flag should be set after config load")
	}
	if got := cfg.globalSdrIndex(0, 1); got != 1 {
		t.Errorf("globalSdrIndex(0,1) = %d", got)
	}
}

func TestParseClients(t *testing.T) {
	cl := map[string]interface{}{
		"sdr_id":         []string{"CL000", "CL001"},
		"channel":        "AB",
		"frame_schedule": []string{"GGPGUGGGG", "GGGPUGGGG"},
		"txgainA":        []float64{40, 45},
		"rxgainA":        []float64{50, 50},
	}
	cfg, err := makeConfig(t, 2, "BGPPUGGGN", nil, cl)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.NumClSdrs != 2 || cfg.ClSdrCh != 2 || cfg.NumClAntennas != 4 {
		t.Errorf("client topology = %d/%d/%d", cfg.NumClSdrs, cfg.ClSdrCh, cfg.NumClAntennas)
	}
	if !cfg.HwFramer || cfg.TxAdvance != 250 || cfg.FrameMode != "continuous_resync" {
		t.Errorf("client defaults wrong: %v %d %s", cfg.HwFramer, cfg.TxAdvance, cfg.FrameMode)
	}
	if cfg.ClAgcGainInit != 70 || cfg.ULDataFrameNum != 1 {
		t.Errorf("agc/ul defaults wrong: %d %d", cfg.ClAgcGainInit, cfg.ULDataFrameNum)
	}
	if len(cfg.ClULSymbols) != 2 || cfg.ClULSymbols[0][0] != 4 {
		t.Errorf("client UL symbols = %v", cfg.ClULSymbols)
	}
}

func TestInvalidChannel(t *testing.T) {
	_, err := makeConfig(t, 1, "BGPG", map[string]interface{}{"channel": "C"}, nil)
	if err == nil || !strings.Contains(err.Error(), "A/B/AB") {
		t.Fatalf("err = %v, want channel config error", err)
	}
}

func TestBSGainCap(t *testing.T) {
	_, err := makeConfig(t, 1, "BGPG", map[string]interface{}{"txgainA": 82}, nil)
	if err == nil || !strings.Contains(err.Error(), "ChanA") {
		t.Fatalf("err = %v, want ChanA gain cap error", err)
	}
	_, err = makeConfig(t, 1, "BGPG", map[string]interface{}{"txgainB": 90}, nil)
	if err == nil || !strings.Contains(err.Error(), "ChanB") {
		t.Fatalf("err = %v, want ChanB gain cap error", err)
	}
}

func TestUEGainCap(t *testing.T) {
	cl := map[string]interface{}{
		"sdr_id":         []string{"CL000"},
		"frame_schedule": []string{"GGPG"},
		"txgainA":        []float64{85},
	}
	_, err := makeConfig(t, 1, "BGPG", nil, cl)
	if err == nil || !strings.Contains(err.Error(), "UE ChanA") {
		t.Fatalf("err = %v, want UE gain cap error", err)
	}
}

func TestReciprocalExcludesClients(t *testing.T) {
	cl := map[string]interface{}{
		"sdr_id":         []string{"CL000"},
		"frame_schedule": []string{"GGPG"},
	}
	_, err := makeConfig(t, 3, "BGPG",
		map[string]interface{}{"reciprocal_calibration": true}, cl)
	if err == nil {
		t.Fatal("reciprocal calibration combined with clients should fail")
	}
}

func TestBeaconSizeInvariant(t *testing.T) {
	// one OFDM symbol per subframe leaves no room for the 496-sample beacon
	_, err := makeConfig(t, 1, "BGPG",
		map[string]interface{}{"ofdm_symbol_per_subframe": 1}, nil)
	if err == nil || !strings.Contains(err.Error(), "subframe_size") {
		t.Fatalf("err = %v, want beacon size error", err)
	}
}

func TestClamping(t *testing.T) {
	cfg, err := makeConfig(t, 1, "BGPG", map[string]interface{}{
		"fft_size":  4096,
		"pilot_seq": "zadoff-chu",
	}, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.FFTSize != 2048 {
		t.Errorf("FFTSize = %d, want clamp to 2048", cfg.FFTSize)
	}

	cfg, err = makeConfig(t, 1, "BGPG", map[string]interface{}{
		"fft_size":                 16,
		"ofdm_symbol_per_subframe": 8,
	}, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.FFTSize != 64 {
		t.Errorf("FFTSize = %d, want clamp to 64", cfg.FFTSize)
	}

	cfg, err = makeConfig(t, 1, "BGPG", map[string]interface{}{
		"cp_size":                  200,
		"ofdm_symbol_per_subframe": 8,
	}, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.CPSize != 0 {
		t.Errorf("CPSize = %d, want clamp to 0", cfg.CPSize)
	}
	// derived sizes reflect the clamped values
	if cfg.SampsPerSymbol != 8*64+82+68 {
		t.Errorf("SampsPerSymbol = %d after cp clamp", cfg.SampsPerSymbol)
	}
}

func TestReciprocalConfig(t *testing.T) {
	cfg, err := makeConfig(t, 3, "BGPG",
		map[string]interface{}{"reciprocal_calibration": true}, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if !cfg.ReciprocalCalib {
		t.Fatal("ReciprocalCalib not set")
	}
	if cfg.CalRefSdrID != 2 {
		t.Errorf("CalRefSdrID = %d, want default N-1 = 2", cfg.CalRefSdrID)
	}
	if len(cfg.CalibFrames) != 1 || len(cfg.CalibFrames[0]) != 3 {
		t.Fatalf("CalibFrames shape wrong: %v", cfg.CalibFrames)
	}
	if cfg.SymbolsPerFrame != len(cfg.CalibFrames[0][0]) {
		t.Errorf("SymbolsPerFrame = %d, want frame length %d",
			cfg.SymbolsPerFrame, len(cfg.CalibFrames[0][0]))
	}
	if cfg.PilotSymsPerFrame != 2 {
		t.Errorf("PilotSymsPerFrame = %d, want 2", cfg.PilotSymsPerFrame)
	}
	if !strings.Contains(cfg.TraceFile, "trace-reciprocal-calib-") {
		t.Errorf("trace file %q missing reciprocal tag", cfg.TraceFile)
	}
	// reciprocal mode excludes the reference SDR from the antenna count
	if got := cfg.getTotNumAntennas(); got != 2 {
		t.Errorf("total antennas = %d, want 2", got)
	}
}

func TestDeriveTraceFile(t *testing.T) {
	cfg := &Config{BSPresent: true, NumCells: 1, BSChannel: "A",
		NBsSdrs: []int{4}, NumClAntennas: 2}
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := cfg.deriveTraceFile("logs", now)
	want := filepath.Join("logs", "trace-2026-3-4-5-6-7_1x4x2.parquet")
	if got != want {
		t.Errorf("deriveTraceFile = %q, want %q", got, want)
	}
}

func TestStripJSONComments(t *testing.T) {
	in := []byte("{\n// line comment\n\"a\": \"b//c\", /* block */ \"d\": 1\n}")
	var m map[string]interface{}
	if err := json.Unmarshal(stripJSONComments(in), &m); err != nil {
		t.Fatalf("stripped JSON does not parse: %v", err)
	}
	if m["a"] != "b//c" {
		t.Errorf("string content mangled: %v", m["a"])
	}
	if m["d"] != float64(1) {
		t.Errorf("value after block comment lost: %v", m["d"])
	}
}
