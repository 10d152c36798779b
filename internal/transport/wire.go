package transport

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pierrec/lz4/v4"

	"github.com/b00lduck/elementary/pkg/signalgraph/engine"
	"github.com/b00lduck/elementary/pkg/signalgraph/node"
)

// ErrHashMismatch indicates a wire node carried an explicit hash that
// does not match the hash recomputed from its own content.
var ErrHashMismatch = errors.New("transport: node hash does not match recomputed content hash")

// ErrTooManyNodes indicates a decoded graph exceeds the configured node
// count guard.
var ErrTooManyNodes = errors.New("transport: graph exceeds maximum node count")

// ErrUnknownEncoding indicates an audio buffer named an encoding other
// than "raw" or "lz4".
var ErrUnknownEncoding = errors.New("transport: unknown resource encoding")

// errInvalidDirective is the base sentinel for schema validation failures;
// validateDirective wraps it with one clause per violation.
var errInvalidDirective = errors.New("transport: directive failed schema validation")

// wireEnvelope is the JSON shape of one inbound directive, validated
// against schema.DirectiveSchemaFS before being decoded into this type.
type wireEnvelope struct {
	Graph     []wireNode             `json:"graph,omitempty"`
	Resources map[string]wireBuffer `json:"resources,omitempty"`
}

// wireNode mirrors node.NodeRepr but keeps Hash as a pointer so the
// decoder can distinguish "hash omitted" (compute it) from "hash present"
// (verify it), per the directive schema.
type wireNode struct {
	Kind          string         `json:"kind"`
	Props         map[string]any `json:"props,omitempty"`
	Children      []wireNode     `json:"children,omitempty"`
	Hash          *int32         `json:"hash,omitempty"`
	OutputChannel uint32         `json:"output_channel,omitempty"`
}

// wireBuffer is the JSON shape of one shared resource upload. Data is
// base64-encoded little-endian float32 samples, optionally lz4-compressed
// before encoding per Encoding.
type wireBuffer struct {
	Channels int    `json:"channels"`
	Frames   int    `json:"frames"`
	Encoding string `json:"encoding,omitempty"`
	Data     string `json:"data"`
}

// toDirective converts a validated wireEnvelope into an engine.Directive,
// verifying any explicit per-node hashes and enforcing maxNodes.
func (e wireEnvelope) toDirective(maxNodes int) (engine.Directive, error) {
	dir := engine.Directive{}

	if len(e.Graph) > 0 {
		total := 0

		roots := make([]node.NodeRepr, len(e.Graph))

		for i, wn := range e.Graph {
			converted, count, err := wn.toNodeRepr()
			if err != nil {
				return engine.Directive{}, err
			}

			total += count
			roots[i] = converted
		}

		if total > maxNodes {
			return engine.Directive{}, fmt.Errorf("%w: %d nodes exceeds limit %d", ErrTooManyNodes, total, maxNodes)
		}

		dir.Graph = roots
	}

	if len(e.Resources) > 0 {
		resources := make(map[string]engine.AudioBuffer, len(e.Resources))

		for name, wb := range e.Resources {
			buf, err := wb.toAudioBuffer()
			if err != nil {
				return engine.Directive{}, fmt.Errorf("resource %q: %w", name, err)
			}

			resources[name] = buf
		}

		dir.Resources = resources
	}

	return dir, nil
}

// toNodeRepr recursively converts a wireNode into a node.NodeRepr,
// recomputing the content hash bottom-up and verifying it against any
// explicit wire hash. It returns the converted node and the total node
// count of its subtree (inclusive).
func (wn wireNode) toNodeRepr() (node.NodeRepr, int, error) {
	children := make([]node.NodeRepr, len(wn.Children))
	total := 1

	for i, child := range wn.Children {
		converted, count, err := child.toNodeRepr()
		if err != nil {
			return node.NodeRepr{}, 0, err
		}

		children[i] = converted.WithOutputChannel(child.OutputChannel)
		total += count
	}

	props := wn.Props
	if props == nil {
		props = map[string]any{}
	}

	computed := node.Hash(wn.Kind, props, children)

	if wn.Hash != nil && *wn.Hash != computed {
		return node.NodeRepr{}, 0, fmt.Errorf("%w: kind=%q wire=%d computed=%d",
			ErrHashMismatch, wn.Kind, *wn.Hash, computed)
	}

	return node.NodeRepr{
		Kind:     wn.Kind,
		Props:    props,
		Children: children,
		Hash:     computed,
	}, total, nil
}

func (wb wireBuffer) toAudioBuffer() (engine.AudioBuffer, error) {
	raw, err := base64.StdEncoding.DecodeString(wb.Data)
	if err != nil {
		return engine.AudioBuffer{}, fmt.Errorf("decode base64 data: %w", err)
	}

	switch wb.Encoding {
	case "", "raw":
	case "lz4":
		decompressed, decErr := decompressLZ4(raw)
		if decErr != nil {
			return engine.AudioBuffer{}, decErr
		}

		raw = decompressed
	default:
		return engine.AudioBuffer{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, wb.Encoding)
	}

	wantSamples := wb.Channels * wb.Frames
	if len(raw) != wantSamples*4 { //nolint:mnd // 4 bytes per float32 sample
		return engine.AudioBuffer{}, fmt.Errorf(
			"transport: resource data length %d does not match channels*frames*4=%d", len(raw), wantSamples*4)
	}

	data := make([]float32, wantSamples)
	for i := range data {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		data[i] = math.Float32frombits(bits)
	}

	return engine.AudioBuffer{Channels: wb.Channels, Frames: wb.Frames, Data: data}, nil
}

func decompressLZ4(compressed []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(compressed))

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}

	return decompressed, nil
}
