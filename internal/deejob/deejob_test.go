package deejob_test

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atmospress/internal/deejob"
)

func atmosRequest(dir string) deejob.AtmosRequest {
	return deejob.AtmosRequest{
		OutputDir:            dir,
		InputFileName:        "9a0364.atmos",
		OutputFileName:       "9a0364_atmos_5_1.eac3",
		XMLFileName:          "9a0364_encode_atmos_5_1.xml",
		DataRate:             1024,
		DRCProfile:           "none",
		DialogueIntelligence: true,
		DialogueLevel:        -27,
		PreferredDownmix:     "not_indicated",
	}
}

func TestWriteAtmosDDP51(t *testing.T) {
	dir := t.TempDir()
	path, err := deejob.WriteAtmosDDP(atmosRequest(dir))
	if err != nil {
		t.Fatalf("WriteAtmosDDP returned error: %v", err)
	}
	if path != filepath.Join(dir, "9a0364_encode_atmos_5_1.xml") {
		t.Fatalf("unexpected job path: %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job config: %v", err)
	}
	text := string(raw)

	if !strings.HasPrefix(text, xml.Header) {
		t.Fatal("expected xml declaration header")
	}
	for _, want := range []string{
		`<atmos_mezz version="1">`,
		"<file_name>9a0364.atmos</file_name>",
		"<timecode_frame_rate>23.976</timecode_frame_rate>",
		"<offset>auto</offset>",
		"<ffoa>auto</ffoa>",
		`<encode_to_atmos_ddp version="1">`,
		"<metering_mode>1770-4</metering_mode>",
		"<dialogue_intelligence>true</dialogue_intelligence>",
		"<speech_threshold>15</speech_threshold>",
		"<data_rate>1024</data_rate>",
		"<start>first_frame_of_action</start>",
		"<end>end_of_file</end>",
		"<time_base>file_position</time_base>",
		"<prepend_silence_duration>0.0</prepend_silence_duration>",
		"<append_silence_duration>0.0</append_silence_duration>",
		"<line_mode_drc_profile>none</line_mode_drc_profile>",
		"<rf_mode_drc_profile>none</rf_mode_drc_profile>",
		"<loro_center_mix_level>-3</loro_center_mix_level>",
		"<ltrt_surround_mix_level>-3</ltrt_surround_mix_level>",
		"<preferred_downmix_mode>not_indicated</preferred_downmix_mode>",
		"<surround_trim_5_1>0</surround_trim_5_1>",
		"<height_trim_5_1>-3</height_trim_5_1>",
		"<custom_dialnorm>-27</custom_dialnorm>",
		"<file_name>9a0364_atmos_5_1.eac3</file_name>",
		"<clean_temp>true</clean_temp>",
		"<path>" + dir + "</path>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("job config missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "encoding_backend") || strings.Contains(text, "encoder_mode") {
		t.Fatalf("5.1 job must not request the 7.1 backend:\n%s", text)
	}
}

func TestWriteAtmosDDP71Backend(t *testing.T) {
	dir := t.TempDir()
	req := atmosRequest(dir)
	req.OutputFileName = "9a0364_atmos_7_1.eac3"
	req.XMLFileName = "9a0364_encode_atmos_7_1.xml"
	req.DataRate = 1536
	req.Use71 = true

	path, err := deejob.WriteAtmosDDP(req)
	if err != nil {
		t.Fatalf("WriteAtmosDDP returned error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job config: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "<encoding_backend>atmosprocessor</encoding_backend>") {
		t.Fatalf("expected atmosprocessor backend:\n%s", text)
	}
	if !strings.Contains(text, "<encoder_mode>bluray</encoder_mode>") {
		t.Fatalf("expected bluray encoder mode:\n%s", text)
	}
	if !strings.Contains(text, "<data_rate>1536</data_rate>") {
		t.Fatalf("expected 7.1 data rate:\n%s", text)
	}
}

func TestWritePCMDDP(t *testing.T) {
	dir := t.TempDir()
	path, err := deejob.WritePCMDDP(deejob.PCMRequest{
		OutputDir:            dir,
		InputFileName:        "9a0364_48k.wav",
		OutputFileName:       "9a0364_ddp_5_1.eac3",
		XMLFileName:          "9a0364_encode_ddp_5_1.xml",
		DataRate:             640,
		DRCProfile:           "film_standard",
		DialogueIntelligence: false,
		DialogueLevel:        0,
		PreferredDownmix:     "loro",
	})
	if err != nil {
		t.Fatalf("WritePCMDDP returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job config: %v", err)
	}
	text := string(raw)
	for _, want := range []string{
		`<wav version="1">`,
		"<file_name>9a0364_48k.wav</file_name>",
		`<pcm_to_ddp version="1">`,
		"<encoder_mode>ddp</encoder_mode>",
		"<data_rate>640</data_rate>",
		"<dialogue_intelligence>false</dialogue_intelligence>",
		"<line_mode_drc_profile>film_standard</line_mode_drc_profile>",
		"<preferred_downmix_mode>loro</preferred_downmix_mode>",
		"<custom_dialnorm>0</custom_dialnorm>",
		"<file_name>9a0364_ddp_5_1.eac3</file_name>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("job config missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "atmos_mezz") || strings.Contains(text, "custom_trims") {
		t.Fatalf("pcm job carries atmos-only blocks:\n%s", text)
	}
}

func TestWritePCMDDPSeparateInputDir(t *testing.T) {
	outDir := t.TempDir()
	srcDir := t.TempDir()
	path, err := deejob.WritePCMDDP(deejob.PCMRequest{
		OutputDir:            outDir,
		InputDir:             srcDir,
		InputFileName:        "master.wav",
		OutputFileName:       "9a0364_ddp_5_1.eac3",
		XMLFileName:          "9a0364_encode_ddp_5_1.xml",
		DataRate:             448,
		DRCProfile:           "none",
		DialogueIntelligence: true,
		PreferredDownmix:     "not_indicated",
	})
	if err != nil {
		t.Fatalf("WritePCMDDP returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job config: %v", err)
	}
	var job struct {
		Input struct {
			Wav struct {
				Storage struct {
					Path string `xml:"local>path"`
				} `xml:"storage"`
			} `xml:"audio>wav"`
		} `xml:"input"`
		Output struct {
			EC3 struct {
				Storage struct {
					Path string `xml:"local>path"`
				} `xml:"storage"`
			} `xml:"ec3"`
		} `xml:"output"`
	}
	if err := xml.Unmarshal(raw, &job); err != nil {
		t.Fatalf("unmarshal job config: %v", err)
	}
	if job.Input.Wav.Storage.Path != srcDir {
		t.Fatalf("input storage = %q, want %q", job.Input.Wav.Storage.Path, srcDir)
	}
	if job.Output.EC3.Storage.Path != outDir {
		t.Fatalf("output storage = %q, want %q", job.Output.EC3.Storage.Path, outDir)
	}
}

func TestWriteADMTrueHD(t *testing.T) {
	dir := t.TempDir()
	path, err := deejob.WriteADMTrueHD(deejob.ADMRequest{
		OutputDir:            dir,
		InputFileName:        "9a0364.wav",
		OutputFileName:       "9a0364_truehd_atmos.mlp",
		XMLFileName:          "9a0364_encode_truehd_atmos.xml",
		SpatialClusters:      14,
		DialogueIntelligence: true,
		DialogueLevel:        0,
	})
	if err != nil {
		t.Fatalf("WriteADMTrueHD returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job config: %v", err)
	}
	text := string(raw)
	for _, want := range []string{
		`<encode_to_dthd version="1">`,
		"<loudness_measurement>",
		"<spatial_clusters>14</spatial_clusters>",
		`<mlp version="1">`,
		"<file_name>9a0364_truehd_atmos.mlp</file_name>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("job config missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "<ec3") {
		t.Fatalf("mlp job must not declare an ec3 output:\n%s", text)
	}
}

func TestWriteValidation(t *testing.T) {
	dir := t.TempDir()

	req := atmosRequest(dir)
	req.DataRate = 0
	if _, err := deejob.WriteAtmosDDP(req); err == nil {
		t.Fatal("expected error for missing data rate")
	}

	req = atmosRequest(dir)
	req.OutputDir = ""
	if _, err := deejob.WriteAtmosDDP(req); err == nil {
		t.Fatal("expected error for missing output dir")
	}

	if _, err := deejob.WriteADMTrueHD(deejob.ADMRequest{
		OutputDir:      dir,
		InputFileName:  "a.wav",
		OutputFileName: "a.mlp",
		XMLFileName:    "a.xml",
	}); err == nil {
		t.Fatal("expected error for missing spatial clusters")
	}
}

func TestJobConfigParses(t *testing.T) {
	dir := t.TempDir()
	path, err := deejob.WriteAtmosDDP(atmosRequest(dir))
	if err != nil {
		t.Fatalf("WriteAtmosDDP returned error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job config: %v", err)
	}

	var parsed struct {
		XMLName xml.Name `xml:"job_config"`
		Input   struct {
			Audio struct {
				AtmosMezz struct {
					Version string `xml:"version,attr"`
					Storage struct {
						Local struct {
							Path string `xml:"path"`
						} `xml:"local"`
					} `xml:"storage"`
				} `xml:"atmos_mezz"`
			} `xml:"audio"`
		} `xml:"input"`
	}
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("parse job config: %v", err)
	}
	if parsed.Input.Audio.AtmosMezz.Version != "1" {
		t.Fatalf("unexpected mezz version: %q", parsed.Input.Audio.AtmosMezz.Version)
	}
	if parsed.Input.Audio.AtmosMezz.Storage.Local.Path != dir {
		t.Fatalf("unexpected storage path: %q", parsed.Input.Audio.AtmosMezz.Storage.Local.Path)
	}
}
