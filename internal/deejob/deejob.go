package deejob

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// Fixed values shared by every job shape. The encoding engine wants frame
// timing even for file-based jobs; 23.976 matches the mastering sources this
// pipeline handles.
const (
	timecodeFrameRate = "23.976"
	meteringMode      = "1770-4"
	speechThreshold   = 15
	mixLevel          = "-3"
	surroundTrim51    = "0"
	heightTrim51      = "-3"
)

// AtmosRequest describes one E-AC-3 encode from an Atmos mezzanine.
type AtmosRequest struct {
	// OutputDir holds the input artifacts and receives the encode output,
	// the engine's temp files, and the job XML.
	OutputDir string
	// InputFileName is the .atmos presentation file, relative to OutputDir.
	InputFileName string
	// OutputFileName is the target .eac3 name, relative to OutputDir.
	OutputFileName string
	// XMLFileName is the job file name written into OutputDir.
	XMLFileName string
	// DataRate is the target bitrate in kbps.
	DataRate int
	// DRCProfile applies to both line and RF mode.
	DRCProfile string
	// DialogueIntelligence toggles speech-gated loudness measurement.
	DialogueIntelligence bool
	// DialogueLevel is the dialnorm forced into the bitstream.
	DialogueLevel int
	// PreferredDownmix selects the downmix hint flagged in the bitstream.
	PreferredDownmix string
	// Use71 switches the engine onto the Atmos processor backend in Blu-ray
	// mode, which is the only way it emits 7.1.
	Use71 bool
}

// PCMRequest describes one E-AC-3 encode from plain 48 kHz PCM. Unlike the
// Atmos mezzanine, the wav source is not normalized into OutputDir first, so
// InputDir names the directory holding InputFileName; empty means OutputDir.
type PCMRequest struct {
	OutputDir            string
	InputDir             string
	InputFileName        string
	OutputFileName       string
	XMLFileName          string
	DataRate             int
	DRCProfile           string
	DialogueIntelligence bool
	DialogueLevel        int
	PreferredDownmix     string
}

// ADMRequest describes one MLP/TrueHD encode from an ADM BWF master.
// InputDir follows the same rule as PCMRequest.
type ADMRequest struct {
	OutputDir            string
	InputDir             string
	InputFileName        string
	OutputFileName       string
	XMLFileName          string
	SpatialClusters      int
	DialogueIntelligence bool
	DialogueLevel        int
}

type jobConfig struct {
	XMLName xml.Name  `xml:"job_config"`
	Input   jobInput  `xml:"input"`
	Filter  jobFilter `xml:"filter"`
	Output  jobOutput `xml:"output"`
	Misc    jobMisc   `xml:"misc"`
}

type jobInput struct {
	Audio inputAudio `xml:"audio"`
}

type inputAudio struct {
	AtmosMezz *mezzInput `xml:"atmos_mezz,omitempty"`
	Wav       *wavInput  `xml:"wav,omitempty"`
}

type mezzInput struct {
	Version           string  `xml:"version,attr"`
	FileName          string  `xml:"file_name"`
	TimecodeFrameRate string  `xml:"timecode_frame_rate"`
	Offset            string  `xml:"offset"`
	FFOA              string  `xml:"ffoa"`
	Storage           storage `xml:"storage"`
}

type wavInput struct {
	Version           string  `xml:"version,attr"`
	FileName          string  `xml:"file_name"`
	TimecodeFrameRate string  `xml:"timecode_frame_rate"`
	Offset            string  `xml:"offset"`
	FFOA              string  `xml:"ffoa"`
	Storage           storage `xml:"storage"`
}

type storage struct {
	Local localPath `xml:"local"`
}

type localPath struct {
	Path string `xml:"path"`
}

type jobFilter struct {
	Audio filterAudio `xml:"audio"`
}

type filterAudio struct {
	EncodeToAtmosDDP *atmosDDPFilter `xml:"encode_to_atmos_ddp,omitempty"`
	PCMToDDP         *pcmDDPFilter   `xml:"pcm_to_ddp,omitempty"`
	EncodeToDTHD     *dthdFilter     `xml:"encode_to_dthd,omitempty"`
}

type atmosDDPFilter struct {
	Version           string       `xml:"version,attr"`
	Loudness          loudness     `xml:"loudness"`
	DataRate          int          `xml:"data_rate"`
	TimecodeFrameRate string       `xml:"timecode_frame_rate"`
	Start             string       `xml:"start"`
	End               string       `xml:"end"`
	TimeBase          string       `xml:"time_base"`
	PrependSilence    string       `xml:"prepend_silence_duration"`
	AppendSilence     string       `xml:"append_silence_duration"`
	DRC               drcBlock     `xml:"drc"`
	Downmix           downmixBlock `xml:"downmix"`
	CustomTrims       trimsBlock   `xml:"custom_trims"`
	CustomDialnorm    int          `xml:"custom_dialnorm"`
	EncodingBackend   string       `xml:"encoding_backend,omitempty"`
	EncoderMode       string       `xml:"encoder_mode,omitempty"`
}

type pcmDDPFilter struct {
	Version           string       `xml:"version,attr"`
	Loudness          loudness     `xml:"loudness"`
	EncoderMode       string       `xml:"encoder_mode"`
	DataRate          int          `xml:"data_rate"`
	TimecodeFrameRate string       `xml:"timecode_frame_rate"`
	Start             string       `xml:"start"`
	End               string       `xml:"end"`
	TimeBase          string       `xml:"time_base"`
	PrependSilence    string       `xml:"prepend_silence_duration"`
	AppendSilence     string       `xml:"append_silence_duration"`
	DRC               drcBlock     `xml:"drc"`
	Downmix           downmixBlock `xml:"downmix"`
	CustomDialnorm    int          `xml:"custom_dialnorm"`
}

type dthdFilter struct {
	Version             string            `xml:"version,attr"`
	LoudnessMeasurement measureOnly       `xml:"loudness_measurement"`
	AtmosPresentation   atmosPresentation `xml:"atmos_presentation"`
	CustomDialnorm      int               `xml:"custom_dialnorm"`
}

type loudness struct {
	MeasureOnly measureOnly `xml:"measure_only"`
}

type measureOnly struct {
	MeteringMode         string `xml:"metering_mode"`
	DialogueIntelligence string `xml:"dialogue_intelligence"`
	SpeechThreshold      int    `xml:"speech_threshold"`
}

type atmosPresentation struct {
	SpatialClusters int `xml:"spatial_clusters"`
}

type drcBlock struct {
	LineModeProfile string `xml:"line_mode_drc_profile"`
	RFModeProfile   string `xml:"rf_mode_drc_profile"`
}

type downmixBlock struct {
	LoroCenterMixLevel   string `xml:"loro_center_mix_level"`
	LoroSurroundMixLevel string `xml:"loro_surround_mix_level"`
	LtrtCenterMixLevel   string `xml:"ltrt_center_mix_level"`
	LtrtSurroundMixLevel string `xml:"ltrt_surround_mix_level"`
	PreferredDownmixMode string `xml:"preferred_downmix_mode"`
}

type trimsBlock struct {
	SurroundTrim51 string `xml:"surround_trim_5_1"`
	HeightTrim51   string `xml:"height_trim_5_1"`
}

type jobOutput struct {
	EC3 *outputFile `xml:"ec3,omitempty"`
	MLP *outputFile `xml:"mlp,omitempty"`
}

type outputFile struct {
	Version  string  `xml:"version,attr"`
	FileName string  `xml:"file_name"`
	Storage  storage `xml:"storage"`
}

type jobMisc struct {
	TempDir tempDir `xml:"temp_dir"`
}

type tempDir struct {
	CleanTemp string `xml:"clean_temp"`
	Path      string `xml:"path"`
}

// WriteAtmosDDP writes the job XML for an Atmos mezzanine → E-AC-3 encode
// and returns its path.
func WriteAtmosDDP(req AtmosRequest) (string, error) {
	if err := validateCommon(req.OutputDir, req.InputFileName, req.OutputFileName, req.XMLFileName); err != nil {
		return "", err
	}
	if req.DataRate <= 0 {
		return "", errors.New("job config: data rate required")
	}

	filter := &atmosDDPFilter{
		Version:           "1",
		Loudness:          measureOnlyLoudness(req.DialogueIntelligence),
		DataRate:          req.DataRate,
		TimecodeFrameRate: timecodeFrameRate,
		Start:             "first_frame_of_action",
		End:               "end_of_file",
		TimeBase:          "file_position",
		PrependSilence:    "0.0",
		AppendSilence:     "0.0",
		DRC:               drcProfiles(req.DRCProfile),
		Downmix:           downmixLevels(req.PreferredDownmix),
		CustomTrims:       trimsBlock{SurroundTrim51: surroundTrim51, HeightTrim51: heightTrim51},
		CustomDialnorm:    req.DialogueLevel,
	}
	if req.Use71 {
		filter.EncodingBackend = "atmosprocessor"
		filter.EncoderMode = "bluray"
	}

	job := jobConfig{
		Input: jobInput{Audio: inputAudio{AtmosMezz: &mezzInput{
			Version:           "1",
			FileName:          req.InputFileName,
			TimecodeFrameRate: timecodeFrameRate,
			Offset:            "auto",
			FFOA:              "auto",
			Storage:           localStorage(req.OutputDir),
		}}},
		Filter: jobFilter{Audio: filterAudio{EncodeToAtmosDDP: filter}},
		Output: jobOutput{EC3: &outputFile{
			Version:  "1",
			FileName: req.OutputFileName,
			Storage:  localStorage(req.OutputDir),
		}},
		Misc: miscBlock(req.OutputDir),
	}
	return writeJob(req.OutputDir, req.XMLFileName, job)
}

// WritePCMDDP writes the job XML for a 48 kHz PCM → E-AC-3 encode and
// returns its path.
func WritePCMDDP(req PCMRequest) (string, error) {
	if err := validateCommon(req.OutputDir, req.InputFileName, req.OutputFileName, req.XMLFileName); err != nil {
		return "", err
	}
	if req.DataRate <= 0 {
		return "", errors.New("job config: data rate required")
	}

	job := jobConfig{
		Input: jobInput{Audio: inputAudio{Wav: wavFileInput(inputDirOrDefault(req.InputDir, req.OutputDir), req.InputFileName)}},
		Filter: jobFilter{Audio: filterAudio{PCMToDDP: &pcmDDPFilter{
			Version:           "1",
			Loudness:          measureOnlyLoudness(req.DialogueIntelligence),
			EncoderMode:       "ddp",
			DataRate:          req.DataRate,
			TimecodeFrameRate: timecodeFrameRate,
			Start:             "first_frame_of_action",
			End:               "end_of_file",
			TimeBase:          "file_position",
			PrependSilence:    "0.0",
			AppendSilence:     "0.0",
			DRC:               drcProfiles(req.DRCProfile),
			Downmix:           downmixLevels(req.PreferredDownmix),
			CustomDialnorm:    req.DialogueLevel,
		}}},
		Output: jobOutput{EC3: &outputFile{
			Version:  "1",
			FileName: req.OutputFileName,
			Storage:  localStorage(req.OutputDir),
		}},
		Misc: miscBlock(req.OutputDir),
	}
	return writeJob(req.OutputDir, req.XMLFileName, job)
}

// WriteADMTrueHD writes the job XML for an ADM BWF → MLP/TrueHD encode and
// returns its path.
func WriteADMTrueHD(req ADMRequest) (string, error) {
	if err := validateCommon(req.OutputDir, req.InputFileName, req.OutputFileName, req.XMLFileName); err != nil {
		return "", err
	}
	if req.SpatialClusters <= 0 {
		return "", errors.New("job config: spatial clusters required")
	}

	job := jobConfig{
		Input: jobInput{Audio: inputAudio{Wav: wavFileInput(inputDirOrDefault(req.InputDir, req.OutputDir), req.InputFileName)}},
		Filter: jobFilter{Audio: filterAudio{EncodeToDTHD: &dthdFilter{
			Version:             "1",
			LoudnessMeasurement: measureBlock(req.DialogueIntelligence),
			AtmosPresentation:   atmosPresentation{SpatialClusters: req.SpatialClusters},
			CustomDialnorm:      req.DialogueLevel,
		}}},
		Output: jobOutput{MLP: &outputFile{
			Version:  "1",
			FileName: req.OutputFileName,
			Storage:  localStorage(req.OutputDir),
		}},
		Misc: miscBlock(req.OutputDir),
	}
	return writeJob(req.OutputDir, req.XMLFileName, job)
}

func validateCommon(outputDir, inputFileName, outputFileName, xmlFileName string) error {
	if strings.TrimSpace(outputDir) == "" {
		return errors.New("job config: output directory required")
	}
	if strings.TrimSpace(inputFileName) == "" {
		return errors.New("job config: input file name required")
	}
	if strings.TrimSpace(outputFileName) == "" {
		return errors.New("job config: output file name required")
	}
	if strings.TrimSpace(xmlFileName) == "" {
		return errors.New("job config: xml file name required")
	}
	return nil
}

func measureOnlyLoudness(dialogueIntelligence bool) loudness {
	return loudness{MeasureOnly: measureBlock(dialogueIntelligence)}
}

func measureBlock(dialogueIntelligence bool) measureOnly {
	return measureOnly{
		MeteringMode:         meteringMode,
		DialogueIntelligence: strconv.FormatBool(dialogueIntelligence),
		SpeechThreshold:      speechThreshold,
	}
}

func drcProfiles(profile string) drcBlock {
	return drcBlock{LineModeProfile: profile, RFModeProfile: profile}
}

func downmixLevels(preferred string) downmixBlock {
	return downmixBlock{
		LoroCenterMixLevel:   mixLevel,
		LoroSurroundMixLevel: mixLevel,
		LtrtCenterMixLevel:   mixLevel,
		LtrtSurroundMixLevel: mixLevel,
		PreferredDownmixMode: preferred,
	}
}

func inputDirOrDefault(inputDir, outputDir string) string {
	if strings.TrimSpace(inputDir) == "" {
		return outputDir
	}
	return inputDir
}

func wavFileInput(inputDir, fileName string) *wavInput {
	return &wavInput{
		Version:           "1",
		FileName:          fileName,
		TimecodeFrameRate: timecodeFrameRate,
		Offset:            "auto",
		FFOA:              "auto",
		Storage:           localStorage(inputDir),
	}
}

func localStorage(dir string) storage {
	return storage{Local: localPath{Path: dir}}
}

func miscBlock(outputDir string) jobMisc {
	return jobMisc{TempDir: tempDir{CleanTemp: "true", Path: outputDir}}
}

func writeJob(outputDir, xmlFileName string, job jobConfig) (string, error) {
	body, err := xml.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render job config: %w", err)
	}
	content := append([]byte(xml.Header), body...)
	content = append(content, '\n')

	path := filepath.Join(outputDir, xmlFileName)
	if err := renameio.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write job config: %w", err)
	}
	return path, nil
}
