package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

const (
	kFpgaTxRamSize       = 4096
	kMaxSupportedFFTSize = 2048
	kMinSupportedFFTSize = 64
	kMaxSupportedCPSize  = 128
	kMaxTxGainBS         = 81

	// default worker counts; task_thread in the config overrides the
	// recorder count, the receive count is not configurable
	kRxThreadNum   = 4
	kTaskThreadNum = 4
)

// Config is the parsed run configuration: PHY parameters, topology,
// schedules and the composed transmit waveforms. It is built once at
// startup and never mutated afterwards, except for the running flag.
type Config struct {
	BSPresent     bool
	ClientPresent bool

	// PHY
	Freq               float64
	Rate               float64
	Nco                float64
	BwFilter           float64
	RadioRFFreq        float64
	SymbolsPerSubframe int
	FFTSize            int
	CPSize             int
	Prefix             int
	Postfix            int
	OfdmSymbolSize     int
	SubframeSize       int
	SampsPerSymbol     int
	SymbolDataScNum    int
	TxScale            float64
	BeaconSeqName      string
	PilotSeqName       string
	DataMod            string

	// base station topology
	HubFile      string
	BSSdrFiles   []string
	NumCells     int
	BSChannel    string
	SingleGain   bool
	TxGain       []float64
	RxGain       []float64
	CalTxGain    []float64
	SampleCalEn  bool
	ImbalanceCal bool
	BeamSweep    bool
	BeaconAnt    int
	MaxFrame     int
	BSSdrIDs     [][]string
	NBsSdrs      []int
	NBsAntennas  []int
	NumBsSdrsAll int
	BSSdrAgg     []int
	HubIDs       []string
	TraceFile    string

	ReciprocalCalib bool
	CalRefSdrID     int
	CalibFrames     [][]string

	// schedule
	Frames            []string
	PilotSymbols      [][]int
	NoiseSymbols      [][]int
	ULSymbols         [][]int
	DLSymbols         [][]int
	SymbolsPerFrame   int
	PilotSymsPerFrame int
	NoiseSymsPerFrame int
	ULSymsPerFrame    int
	DLSymsPerFrame    int

	// clients
	ClSdrIDs       []string
	NumClSdrs      int
	ClChannel      string
	ClSdrCh        int
	NumClAntennas  int
	ClAgcEn        bool
	ClAgcGainInit  int
	FrameMode      string
	HwFramer       bool
	TxAdvance      int
	ULDataFrameNum int
	ClTxGain       [][]float64
	ClRxGain       [][]float64
	MaxTxGainUE    float64
	ClFrames       []string
	ClPilotSymbols [][]int
	ClULSymbols    [][]int
	ClDLSymbols    [][]int

	ULDataSymPresent bool

	// composed waveforms
	BeaconCI16 []Cint16
	BeaconSize int
	Beacon     []uint32
	Coeffs     []uint32
	GoldCF32   []complex64
	PilotSym   []complex128
	PilotSymF  []complex128
	PilotCI16  []Cint16
	Pilot      []uint32
	PilotCF32  []complex64

	// uplink data, loaded by LoadULData
	TxDataFreqDom [][]complex64
	TxDataTimeDom [][]complex64
	TxFdDataFiles []string
	TxTdDataFiles []string

	// threading
	CoreAlloc     bool
	RxThreadNum   int
	TaskThreadNum int

	running atomic.Bool
}

type bsJSON struct {
	Frequency          float64  `json:"frequency"`
	Rate               float64  `json:"rate"`
	NcoFrequency       *float64 `json:"nco_frequency"`
	OfdmSymPerSubframe int      `json:"ofdm_symbol_per_subframe"`
	FFTSize            int      `json:"fft_size"`
	CPSize             int      `json:"cp_size"`
	Prefix             int      `json:"prefix"`
	Postfix            int      `json:"postfix"`
	OfdmDataScNum      *int     `json:"ofdm_data_subcarrier_num"`
	TxScale            float64  `json:"tx_scale"`
	BeaconSeq          string   `json:"beacon_seq"`
	PilotSeq           string   `json:"pilot_seq"`
	Modulation         string   `json:"modulation"`
	HubID              string   `json:"hub_id"`
	SdrID              []string `json:"sdr_id"`
	Channel            string   `json:"channel"`
	SingleGain         bool     `json:"single_gain"`
	TxGainA            float64  `json:"txgainA"`
	TxGainB            float64  `json:"txgainB"`
	RxGainA            float64  `json:"rxgainA"`
	RxGainB            float64  `json:"rxgainB"`
	CalTxGainA         float64  `json:"calTxGainA"`
	CalTxGainB         float64  `json:"calTxGainB"`
	SampleCalibrate    bool     `json:"sample_calibrate"`
	ImbalanceCalibrate bool     `json:"imbalance_calibrate"`
	Beamsweep          bool     `json:"beamsweep"`
	BeaconAntenna      int      `json:"beacon_antenna"`
	MaxFrame           int      `json:"max_frame"`
	ReciprocalCalib    bool     `json:"reciprocal_calibration"`
	RefSdrIndex        *int     `json:"ref_sdr_index"`
	FrameSchedule      []string `json:"frame_schedule"`
	TaskThread         int      `json:"task_thread"`
	TraceFile          string   `json:"trace_file"`
}

type clJSON struct {
	SdrID          []string  `json:"sdr_id"`
	Channel        string    `json:"channel"`
	AgcEn          bool      `json:"agc_en"`
	AgcGainInit    int       `json:"agc_gain_init"`
	FrameMode      string    `json:"frame_mode"`
	HwFramer       bool      `json:"hw_framer"`
	TxAdvance      int       `json:"tx_advance"`
	ULDataFrameNum int       `json:"ul_data_frame_num"`
	TxGainA        []float64 `json:"txgainA"`
	TxGainB        []float64 `json:"txgainB"`
	RxGainA        []float64 `json:"rxgainA"`
	RxGainB        []float64 `json:"rxgainB"`
	MaxTxGainUE    float64   `json:"maxTxGainUE"`
	FrameSchedule  []string  `json:"frame_schedule"`

	// commons, used when no base station section is present
	Frequency          float64  `json:"frequency"`
	Rate               float64  `json:"rate"`
	NcoFrequency       *float64 `json:"nco_frequency"`
	OfdmSymPerSubframe int      `json:"ofdm_symbol_per_subframe"`
	FFTSize            int      `json:"fft_size"`
	CPSize             int      `json:"cp_size"`
	Prefix             int      `json:"prefix"`
	Postfix            int      `json:"postfix"`
	TxScale            float64  `json:"tx_scale"`
	BeaconSeq          string   `json:"beacon_seq"`
	PilotSeq           string   `json:"pilot_seq"`
	SingleGain         bool     `json:"single_gain"`
	Modulation         string   `json:"modulation"`
}

// NewConfig parses the configuration file, resolves the topology and
// schedules, composes the transmit waveforms and fixes the thread layout.
// directory is where traces and uplink data files live.
func NewConfig(jsonFile, directory string) (*Config, error) {
	raw, err := os.ReadFile(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(stripJSONComments(raw), &top); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c := &Config{}
	confDir := filepath.Dir(jsonFile)

	bs := bsJSON{
		Frequency:          2.5e9,
		Rate:               5e6,
		OfdmSymPerSubframe: 1,
		TxScale:            0.5,
		BeaconSeq:          "gold_ifft",
		PilotSeq:           "lts",
		Modulation:         "QPSK",
		HubID:              "hub_serials.txt",
		Channel:            "A",
		SingleGain:         true,
		TxGainA:            20,
		TxGainB:            20,
		RxGainA:            20,
		RxGainB:            20,
		CalTxGainA:         10,
		CalTxGainB:         10,
		TaskThread:         kTaskThreadNum,
	}
	if rawBS, ok := top["BaseStations"]; ok && string(rawBS) != "null" {
		if err := json.Unmarshal(rawBS, &bs); err != nil {
			return nil, fmt.Errorf("parse BaseStations: %w", err)
		}
		c.BSPresent = true
		log.Printf("[INFO] Base Stations present")
	}

	cl := clJSON{
		Channel:            "A",
		AgcGainInit:        70,
		FrameMode:          "continuous_resync",
		HwFramer:           true,
		TxAdvance:          250,
		ULDataFrameNum:     1,
		MaxTxGainUE:        81,
		Frequency:          2.5e9,
		Rate:               5e6,
		OfdmSymPerSubframe: 1,
		TxScale:            0.5,
		BeaconSeq:          "gold_ifft",
		PilotSeq:           "lts",
		SingleGain:         true,
		Modulation:         "QPSK",
	}
	if rawCl, ok := top["Clients"]; ok && string(rawCl) != "null" {
		if err := json.Unmarshal(rawCl, &cl); err != nil {
			return nil, fmt.Errorf("parse Clients: %w", err)
		}
		c.ClientPresent = true
		log.Printf("[INFO] Clients present")
	}

	if c.BSPresent {
		if err := c.parseBS(&bs, confDir); err != nil {
			return nil, err
		}
	}

	if c.ClientPresent && c.ReciprocalCalib {
		return nil, fmt.Errorf("clients cannot be combined with reciprocal calibration")
	}
	if c.ClientPresent {
		if err := c.parseClients(&cl, confDir); err != nil {
			return nil, err
		}
	}

	c.ULDataSymPresent = !c.ReciprocalCalib &&
		((c.BSPresent && len(c.ULSymbols) > 0 && len(c.ULSymbols[0]) > 0) ||
			(c.ClientPresent && len(c.ClULSymbols) > 0 && len(c.ClULSymbols[0]) > 0))

	// clamp unsupported PHY sizes before anything derives from them
	if c.FFTSize > kMaxSupportedFFTSize {
		c.FFTSize = kMaxSupportedFFTSize
		log.Printf("[WARN] Unsupported fft size! Setting fft size to %d", kMaxSupportedFFTSize)
	}
	if c.FFTSize < kMinSupportedFFTSize {
		c.FFTSize = kMinSupportedFFTSize
		log.Printf("[WARN] Unsupported fft size! Setting fft size to %d", kMinSupportedFFTSize)
	}
	if c.CPSize > kMaxSupportedCPSize {
		c.CPSize = 0
		log.Printf("[WARN] Invalid cp size! Setting cp size to 0")
	}
	if c.SymbolDataScNum == 0 || c.SymbolDataScNum > c.FFTSize {
		c.SymbolDataScNum = c.FFTSize
	}
	c.OfdmSymbolSize = c.FFTSize + c.CPSize
	c.SubframeSize = c.SymbolsPerSubframe * c.OfdmSymbolSize
	c.SampsPerSymbol = c.SubframeSize + c.Prefix + c.Postfix

	if err := c.composeBeacon(); err != nil {
		return nil, err
	}
	c.composePilot()

	if c.BSPresent {
		if bs.TraceFile != "" {
			c.TraceFile = bs.TraceFile
		} else {
			c.TraceFile = c.deriveTraceFile(directory, time.Now())
		}
	}

	c.planThreads(runtime.NumCPU(), bs.TaskThread)
	c.running.Store(true)
	log.Printf("[INFO] Configuration file was successfully parsed")
	return c, nil
}

func (c *Config) parseBS(bs *bsJSON, confDir string) error {
	c.Freq = bs.Frequency
	c.Rate = bs.Rate
	c.Nco = 0.75 * c.Rate
	if bs.NcoFrequency != nil {
		c.Nco = *bs.NcoFrequency
	}
	c.BwFilter = c.Rate + 2*c.Nco
	c.RadioRFFreq = c.Freq - c.Nco
	c.SymbolsPerSubframe = bs.OfdmSymPerSubframe
	c.FFTSize = bs.FFTSize
	c.CPSize = bs.CPSize
	c.Prefix = bs.Prefix
	c.Postfix = bs.Postfix
	c.SymbolDataScNum = bs.FFTSize
	if bs.OfdmDataScNum != nil {
		c.SymbolDataScNum = *bs.OfdmDataScNum
	}
	c.TxScale = bs.TxScale
	c.BeaconSeqName = bs.BeaconSeq
	c.PilotSeqName = bs.PilotSeq
	c.DataMod = bs.Modulation

	c.HubFile = bs.HubID
	c.BSSdrFiles = bs.SdrID
	c.NumCells = len(bs.SdrID)
	if c.NumCells == 0 {
		return fmt.Errorf("no sdr_id files configured for the base station")
	}
	c.BSChannel = bs.Channel
	if c.BSChannel != "A" && c.BSChannel != "B" && c.BSChannel != "AB" {
		return fmt.Errorf("error channel config: not any of A/B/AB")
	}
	c.SingleGain = bs.SingleGain

	if bs.TxGainA > kMaxTxGainBS {
		return fmt.Errorf("BaseStation ChanA - Maximum TX gain value is %d", kMaxTxGainBS)
	}
	if bs.TxGainB > kMaxTxGainBS {
		return fmt.Errorf("BaseStation ChanB - Maximum TX gain value is %d", kMaxTxGainBS)
	}
	c.TxGain = []float64{bs.TxGainA, bs.TxGainB}
	c.RxGain = []float64{bs.RxGainA, bs.RxGainB}
	c.CalTxGain = []float64{bs.CalTxGainA, bs.CalTxGainB}

	c.SampleCalEn = bs.SampleCalibrate
	c.ImbalanceCal = bs.ImbalanceCalibrate
	c.BeamSweep = bs.Beamsweep
	c.BeaconAnt = bs.BeaconAntenna
	c.MaxFrame = bs.MaxFrame

	c.BSSdrIDs = make([][]string, c.NumCells)
	c.NBsSdrs = make([]int, c.NumCells)
	c.NBsAntennas = make([]int, c.NumCells)
	for i := 0; i < c.NumCells; i++ {
		ids, err := loadDevices(filepath.Join(confDir, c.BSSdrFiles[i]))
		if err != nil {
			return fmt.Errorf("load sdr ids for cell %d: %w", i, err)
		}
		c.BSSdrIDs[i] = ids
		c.NBsSdrs[i] = len(ids)
		c.NBsAntennas[i] = len(c.BSChannel) * len(ids)
		c.NumBsSdrsAll += len(ids)
	}

	// cumulative SDR counts so a cell-local index maps to a global one
	c.BSSdrAgg = make([]int, c.NumCells+1)
	for i := 0; i < c.NumCells; i++ {
		c.BSSdrAgg[i+1] = c.BSSdrAgg[i] + c.NBsSdrs[i]
	}

	if ids, err := loadDevices(filepath.Join(confDir, c.HubFile)); err == nil {
		c.HubIDs = ids
	} else {
		log.Printf("[WARN] hub id file not loaded: %v", err)
	}

	c.ReciprocalCalib = bs.ReciprocalCalib
	c.CalRefSdrID = c.NumBsSdrsAll - 1
	if bs.RefSdrIndex != nil {
		c.CalRefSdrID = *bs.RefSdrIndex
	}

	if c.ReciprocalCalib {
		c.CalibFrames = make([][]string, c.NumCells)
		for cell := 0; cell < c.NumCells; cell++ {
			c.CalibFrames[cell] = genCalibFrames(c.NBsSdrs[cell], c.CalRefSdrID, len(c.BSChannel))
		}
		c.SymbolsPerFrame = len(c.CalibFrames[0][0])
		c.PilotSymsPerFrame = 2 // up and down reciprocity pilots
	} else {
		c.Frames = bs.FrameSchedule
		if len(c.Frames) != c.NumCells {
			return fmt.Errorf("frame_schedule must list one frame per cell (%d != %d)",
				len(c.Frames), c.NumCells)
		}
		c.PilotSymbols = loadSymbols(c.Frames, 'P')
		c.NoiseSymbols = loadSymbols(c.Frames, 'N')
		c.ULSymbols = loadSymbols(c.Frames, 'U')
		c.DLSymbols = loadSymbols(c.Frames, 'D')
		c.SymbolsPerFrame = len(c.Frames[0])
		c.PilotSymsPerFrame = len(c.PilotSymbols[0])
		c.NoiseSymsPerFrame = len(c.NoiseSymbols[0])
		c.ULSymsPerFrame = len(c.ULSymbols[0])
		c.DLSymsPerFrame = len(c.DLSymbols[0])
		if !c.ClientPresent {
			c.NumClSdrs = strings.Count(c.Frames[0], "P")
			c.NumClAntennas = c.NumClSdrs
		}
	}
	return nil
}

func (c *Config) parseClients(cl *clJSON, confDir string) error {
	c.ClSdrIDs = cl.SdrID
	c.NumClSdrs = len(cl.SdrID)
	c.ClChannel = cl.Channel
	if c.ClChannel != "A" && c.ClChannel != "B" && c.ClChannel != "AB" {
		return fmt.Errorf("error channel config: not any of A/B/AB")
	}
	c.ClSdrCh = 1
	if c.ClChannel == "AB" {
		c.ClSdrCh = 2
	}
	c.NumClAntennas = c.NumClSdrs * c.ClSdrCh
	c.ClAgcEn = cl.AgcEn
	c.ClAgcGainInit = cl.AgcGainInit
	c.FrameMode = cl.FrameMode
	c.HwFramer = cl.HwFramer
	c.TxAdvance = cl.TxAdvance
	c.ULDataFrameNum = cl.ULDataFrameNum

	c.MaxTxGainUE = cl.MaxTxGainUE
	c.ClTxGain = [][]float64{cl.TxGainA, cl.TxGainB}
	c.ClRxGain = [][]float64{cl.RxGainA, cl.RxGainB}
	for ch, name := range []string{"ChanA", "ChanB"} {
		for _, g := range c.ClTxGain[ch] {
			if g > c.MaxTxGainUE {
				return fmt.Errorf("UE %s - Maximum TX gain value is %g", name, c.MaxTxGainUE)
			}
		}
	}

	if len(cl.FrameSchedule) != c.NumClSdrs {
		return fmt.Errorf("client frame_schedule must list one frame per sdr (%d != %d)",
			len(cl.FrameSchedule), c.NumClSdrs)
	}
	c.ClFrames = cl.FrameSchedule
	c.ClPilotSymbols = loadSymbols(c.ClFrames, 'P')
	c.ClULSymbols = loadSymbols(c.ClFrames, 'U')
	c.ClDLSymbols = loadSymbols(c.ClFrames, 'D')

	if !c.BSPresent {
		c.Freq = cl.Frequency
		c.Rate = cl.Rate
		c.Nco = 0.75 * c.Rate
		if cl.NcoFrequency != nil {
			c.Nco = *cl.NcoFrequency
		}
		c.BwFilter = c.Rate + 2*c.Nco
		c.RadioRFFreq = c.Freq - c.Nco
		c.SymbolsPerSubframe = cl.OfdmSymPerSubframe
		c.FFTSize = cl.FFTSize
		c.CPSize = cl.CPSize
		c.Prefix = cl.Prefix
		c.Postfix = cl.Postfix
		c.TxScale = cl.TxScale
		c.BeaconSeqName = cl.BeaconSeq
		c.PilotSeqName = cl.PilotSeq
		c.SymbolsPerFrame = len(c.ClFrames[0])
		c.SingleGain = cl.SingleGain
		c.DataMod = cl.Modulation
	}
	return nil
}

func (c *Config) planThreads(cores, taskThread int) {
	c.CoreAlloc = cores > kRxThreadNum
	if c.BSPresent && c.PilotSymsPerFrame+c.ULSymsPerFrame > 0 {
		c.TaskThreadNum = taskThread
		c.RxThreadNum = 1
		if cores >= 2*kRxThreadNum {
			c.RxThreadNum = kRxThreadNum
			if c.NumBsSdrsAll < c.RxThreadNum {
				c.RxThreadNum = c.NumBsSdrsAll
			}
		}
		if c.ReciprocalCalib {
			c.RxThreadNum = 2
		}
		if c.ClientPresent && cores < 1+c.TaskThreadNum+c.RxThreadNum+c.NumClSdrs {
			c.CoreAlloc = false
		}
	} else {
		c.RxThreadNum = 0
		c.TaskThreadNum = 0
		if c.ClientPresent && cores <= 1+c.NumClSdrs {
			c.CoreAlloc = false
		}
	}
	if c.BSPresent && c.CoreAlloc {
		log.Printf("[INFO] Allocating %d cores to receive threads", c.RxThreadNum)
		log.Printf("[INFO] Allocating %d cores to record threads", c.TaskThreadNum)
	}
}

func (c *Config) deriveTraceFile(directory string, now time.Time) string {
	ts := fmt.Sprintf("%d-%d-%d-%d-%d-%d", now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second())
	ants := c.getTotNumAntennas()
	if c.ReciprocalCalib {
		return filepath.Join(directory,
			fmt.Sprintf("trace-reciprocal-calib-%s_%dx%d.parquet", ts, c.NumCells, ants))
	}
	tag := ""
	if c.ULDataSymPresent {
		tag = "uplink-"
	}
	return filepath.Join(directory,
		fmt.Sprintf("trace-%s%s_%dx%dx%d.parquet", tag, ts, c.NumCells, ants, c.NumClAntennas))
}

// Running reports the process-wide run flag.
func (c *Config) Running() bool { return c.running.Load() }

// SetRunning flips the process-wide run flag; clearing it initiates a
// cooperative shutdown of every worker.
func (c *Config) SetRunning(v bool) { c.running.Store(v) }

// getNumAntennas returns the antenna count of cell 0.
func (c *Config) getNumAntennas() int {
	if !c.BSPresent {
		return 1
	}
	return c.NBsSdrs[0] * len(c.BSChannel)
}

// getMaxNumAntennas returns the largest per-cell antenna count. In
// reciprocal calibration the reference SDR is excluded.
func (c *Config) getMaxNumAntennas() int {
	if !c.BSPresent {
		return 1
	}
	maxSdr := 0
	for i := 0; i < c.NumCells; i++ {
		n := c.NBsSdrs[i]
		if c.ReciprocalCalib {
			n--
		}
		if n > maxSdr {
			maxSdr = n
		}
	}
	return maxSdr * len(c.BSChannel)
}

// getTotNumAntennas returns the antenna count across all cells.
func (c *Config) getTotNumAntennas() int {
	if !c.BSPresent {
		return 1
	}
	tot := 0
	for i := 0; i < c.NumCells; i++ {
		tot += c.NBsSdrs[i]
		if c.ReciprocalCalib {
			tot--
		}
	}
	return tot * len(c.BSChannel)
}

// globalSdrIndex maps a cell-local SDR index to a global one via the
// prefix-sum table.
func (c *Config) globalSdrIndex(cell, local int) int {
	return c.BSSdrAgg[cell] + local
}

// cellOfAntenna returns the cell owning a global antenna id.
func (c *Config) cellOfAntenna(ant int) int {
	sdr := ant / len(c.BSChannel)
	for i := 0; i < c.NumCells; i++ {
		if sdr < c.BSSdrAgg[i+1] {
			return i
		}
	}
	return c.NumCells - 1
}

// payloadBytes is the raw IQ length of one captured symbol.
func (c *Config) payloadBytes() int {
	return 2 * c.SampsPerSymbol * 2
}

// metadataJSON summarizes the run for embedding into the trace files.
func (c *Config) metadataJSON() string {
	m := map[string]interface{}{
		"frequency":           c.Freq,
		"rate":                c.Rate,
		"nco_frequency":       c.Nco,
		"fft_size":            c.FFTSize,
		"cp_size":             c.CPSize,
		"prefix":              c.Prefix,
		"postfix":             c.Postfix,
		"samps_per_symbol":    c.SampsPerSymbol,
		"symbols_per_frame":   c.SymbolsPerFrame,
		"channel":             c.BSChannel,
		"cells":               c.NumCells,
		"antennas":            c.getTotNumAntennas(),
		"client_antennas":     c.NumClAntennas,
		"frame_schedule":      c.Frames,
		"reciprocal_calib":    c.ReciprocalCalib,
		"modulation":          c.DataMod,
		"data_subcarrier_num": c.SymbolDataScNum,
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// loadDevices reads one SDR serial per line, skipping blanks and comments.
func loadDevices(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, nil
}

// stripJSONComments removes // and /* */ comments so the permissive
// configuration dialect feeds the standard JSON parser.
func stripJSONComments(in []byte) []byte {
	out := make([]byte, 0, len(in))
	inStr := false
	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inStr {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				out = append(out, in[i+1])
				i++
			} else if ch == '"' {
				inStr = false
			}
			continue
		}
		switch {
		case ch == '"':
			inStr = true
			out = append(out, ch)
		case ch == '/' && i+1 < len(in) && in[i+1] == '/':
			for i < len(in) && in[i] != '\n' {
				i++
			}
			if i < len(in) {
				out = append(out, '\n')
			}
		case ch == '/' && i+1 < len(in) && in[i+1] == '*':
			i += 2
			for i+1 < len(in) && !(in[i] == '*' && in[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, ch)
		}
	}
	return out
}
