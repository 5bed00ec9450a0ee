package atmosmeta_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"atmospress/internal/atmosmeta"
)

const decoderMetadata = `version: 0.5.1
# produced by decoder
presentations:
  - type: home
    metadataRate: 192
    scBedConfiguration: [0, 1, 2, 3, 6, 7, 4, 5]
    creationTool: truehdd
    creationToolVersion: 0.3.1
    bedInstances:
      - ID: 0
        channels:
          - channel: L
            ID: 0
          - channel: R
            ID: 1
          - channel: LFE
            ID: 3
    objects:
      - ID: 10
      - ID: 11
audioFormat: wav
`

type patchedDocument struct {
	Presentations []struct {
		ScBedConfiguration  []int  `yaml:"scBedConfiguration"`
		CreationTool        string `yaml:"creationTool"`
		CreationToolVersion string `yaml:"creationToolVersion"`
		WarpMode            string `yaml:"warpMode"`
		BedInstances        []struct {
			ID       int `yaml:"ID"`
			Channels []struct {
				Channel string `yaml:"channel"`
				ID      int    `yaml:"ID"`
			} `yaml:"channels"`
		} `yaml:"bedInstances"`
		Objects []struct {
			ID int `yaml:"ID"`
		} `yaml:"objects"`
	} `yaml:"presentations"`
	AudioFormat string `yaml:"audioFormat"`
}

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "9a0364.atmos")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	return path
}

func TestPatchRewritesDecoderLayout(t *testing.T) {
	path := writeMetadata(t, decoderMetadata)

	changed, err := atmosmeta.Patch(path, "warping", "1.2.0")
	if err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if !changed {
		t.Fatal("expected patch to fire on decoder layout")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read patched file: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "[3]") {
		t.Fatalf("expected flow-style bed configuration, got:\n%s", text)
	}
	if !strings.Contains(text, "# produced by decoder") {
		t.Fatalf("expected comments to survive the round trip, got:\n%s", text)
	}

	var doc patchedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse patched file: %v", err)
	}
	if len(doc.Presentations) != 1 {
		t.Fatalf("expected 1 presentation, got %d", len(doc.Presentations))
	}
	p := doc.Presentations[0]
	if len(p.ScBedConfiguration) != 1 || p.ScBedConfiguration[0] != 3 {
		t.Fatalf("unexpected bed configuration: %v", p.ScBedConfiguration)
	}
	if p.CreationTool != "atmospress" {
		t.Fatalf("unexpected creation tool: %q", p.CreationTool)
	}
	if p.CreationToolVersion != "1.2.0" {
		t.Fatalf("unexpected creation tool version: %q", p.CreationToolVersion)
	}
	if p.WarpMode != "warping" {
		t.Fatalf("unexpected warp mode: %q", p.WarpMode)
	}
	if len(p.BedInstances) != 1 || len(p.BedInstances[0].Channels) != 1 {
		t.Fatalf("expected a single LFE bed channel, got %+v", p.BedInstances)
	}
	channel := p.BedInstances[0].Channels[0]
	if channel.Channel != "LFE" || channel.ID != 3 {
		t.Fatalf("unexpected bed channel: %+v", channel)
	}
	if len(p.Objects) != 11 {
		t.Fatalf("expected 11 objects, got %d", len(p.Objects))
	}
	for i, object := range p.Objects {
		if object.ID != 10+i {
			t.Fatalf("expected object ID %d at index %d, got %d", 10+i, i, object.ID)
		}
	}
	if doc.AudioFormat != "wav" {
		t.Fatalf("expected untouched sibling keys, got audioFormat %q", doc.AudioFormat)
	}
}

func TestPatchSkipsForeignLayout(t *testing.T) {
	content := strings.Replace(decoderMetadata, "[0, 1, 2, 3, 6, 7, 4, 5]", "[0, 1, 2]", 1)
	path := writeMetadata(t, content)

	changed, err := atmosmeta.Patch(path, "normal", "1.2.0")
	if err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if changed {
		t.Fatal("expected patch to skip a foreign bed layout")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(raw) != content {
		t.Fatal("expected skipped file to be untouched")
	}
}

func TestPatchSkipsWithoutPresentations(t *testing.T) {
	path := writeMetadata(t, "version: 0.5.1\npresentations: []\n")

	changed, err := atmosmeta.Patch(path, "normal", "1.2.0")
	if err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if changed {
		t.Fatal("expected patch to skip without presentations")
	}
}

func TestPatchMissingFile(t *testing.T) {
	if _, err := atmosmeta.Patch(filepath.Join(t.TempDir(), "absent.atmos"), "normal", "1.2.0"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPatchMalformedYAML(t *testing.T) {
	path := writeMetadata(t, "presentations: [\n")
	if _, err := atmosmeta.Patch(path, "normal", "1.2.0"); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
