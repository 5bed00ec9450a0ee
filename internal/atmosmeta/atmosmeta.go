package atmosmeta

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// CreationTool is stamped into patched metadata so downstream tooling can
// tell reauthored presentations from decoder originals.
const CreationTool = "atmospress"

// legacyBedConfiguration is the full 7.1.2 bed layout the decoder writes.
// Only files carrying exactly this layout are rewritten; anything else has
// been authored deliberately and is left alone.
var legacyBedConfiguration = []int{0, 1, 2, 3, 6, 7, 4, 5}

// Patch rewrites the first presentation of an .atmos metadata file in place:
// the bed collapses to a lone LFE channel and the remaining content moves to
// eleven dynamic objects (IDs 10 through 20). The file is parsed and
// re-rendered through the YAML node tree so comments and scalar quoting
// survive the round trip, and the write is atomic.
//
// It returns true when the file was rewritten and false when the bed
// configuration did not match (or there were no presentations), in which
// case the file is untouched.
func Patch(path, warpMode, toolVersion string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read atmos metadata: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("parse atmos metadata: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return false, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return false, nil
	}

	presentations := mapValue(root, "presentations")
	if presentations == nil || presentations.Kind != yaml.SequenceNode || len(presentations.Content) == 0 {
		return false, nil
	}
	presentation := presentations.Content[0]
	if presentation.Kind != yaml.MappingNode {
		return false, nil
	}

	if !intSequenceEquals(mapValue(presentation, "scBedConfiguration"), legacyBedConfiguration) {
		return false, nil
	}

	setMapValue(presentation, "scBedConfiguration", flowIntSequence(3))
	setMapValue(presentation, "creationTool", stringNode(CreationTool))
	setMapValue(presentation, "creationToolVersion", stringNode(toolVersion))
	setMapValue(presentation, "warpMode", stringNode(warpMode))

	if beds := mapValue(presentation, "bedInstances"); beds != nil && beds.Kind == yaml.SequenceNode && len(beds.Content) > 0 {
		if bed := beds.Content[0]; bed.Kind == yaml.MappingNode {
			setMapValue(bed, "channels", lfeChannelList())
		}
	}
	setMapValue(presentation, "objects", objectRange(10, 20))

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return false, fmt.Errorf("render atmos metadata: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return false, fmt.Errorf("render atmos metadata: %w", err)
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("write atmos metadata: %w", err)
	}
	return true, nil
}

// mapValue returns the value node for key inside a mapping, nil when absent.
func mapValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// setMapValue replaces the value for key, appending the pair when the key is
// not present yet.
func setMapValue(node *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content, stringNode(key), value)
}

func intSequenceEquals(node *yaml.Node, want []int) bool {
	if node == nil || node.Kind != yaml.SequenceNode || len(node.Content) != len(want) {
		return false
	}
	for i, item := range node.Content {
		value, err := strconv.Atoi(item.Value)
		if err != nil || value != want[i] {
			return false
		}
	}
	return true
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func intNode(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)}
}

func flowIntSequence(values ...int) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range values {
		seq.Content = append(seq.Content, intNode(v))
	}
	return seq
}

func lfeChannelList() *yaml.Node {
	channel := &yaml.Node{Kind: yaml.MappingNode}
	channel.Content = append(channel.Content,
		stringNode("channel"), stringNode("LFE"),
		stringNode("ID"), intNode(3),
	)
	return &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{channel}}
}

func objectRange(first, last int) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for id := first; id <= last; id++ {
		object := &yaml.Node{Kind: yaml.MappingNode}
		object.Content = append(object.Content, stringNode("ID"), intNode(id))
		seq.Content = append(seq.Content, object)
	}
	return seq
}
