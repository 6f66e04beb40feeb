// Defines the item renderers selected by the output format.

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// Renderer converts a list of items to text.
type Renderer interface {
	Render(items []notion.Item) (string, error)
}

// Formats accepted by New.
const (
	FormatID       = "id"
	FormatJSON     = "json"
	FormatJSONL    = "jsonl"
	FormatMarkdown = "markdown"
)

// New returns the renderer of format. md configures the markdown renderer.
func New(format string, md *Markdown) (Renderer, error) {
	switch format {
	case FormatID:
		return IDs{}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatJSONL:
		return JSONL{}, nil
	case FormatMarkdown, "md":
		if md == nil {
			md = &Markdown{}
		}
		return md, nil
	default:
		return nil, fmt.Errorf("unknown format %q, want one of id, json, jsonl, markdown", format)
	}
}

// Items converts a slice of objects to items.
func Items[T any, P interface {
	*T
	notion.Item
}](objects []T) []notion.Item {
	items := make([]notion.Item, len(objects))
	for i := range objects {
		items[i] = P(&objects[i])
	}
	return items
}

// IDs renders one id per line.
type IDs struct{}

// Render implements Renderer.
func (IDs) Render(items []notion.Item) (string, error) {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.ItemID() + "\n")
	}
	return sb.String(), nil
}

// JSON renders an indented JSON array. Blocks include their children.
type JSON struct{}

// Render implements Renderer.
func (JSON) Render(items []notion.Item) (string, error) {
	raws := make([]json.RawMessage, len(items))
	for i, item := range items {
		raw, err := encodeItem(item)
		if err != nil {
			return "", err
		}
		raws[i] = raw
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raws); err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return buf.String(), nil
}

// JSONL renders one compact JSON object per line.
type JSONL struct{}

// Render implements Renderer.
func (JSONL) Render(items []notion.Item) (string, error) {
	var buf bytes.Buffer
	for _, item := range items {
		raw, err := encodeItem(item)
		if err != nil {
			return "", err
		}
		if err := json.Compact(&buf, raw); err != nil {
			return "", fmt.Errorf("failed to encode %s %s: %w", item.ObjectType(), item.ItemID(), err)
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func encodeItem(item notion.Item) ([]byte, error) {
	var raw []byte
	var err error
	switch v := item.(type) {
	case *notion.Block:
		raw, err = notion.MarshalBlockNode(v)
	case *Document:
		raw, err = v.MarshalJSON()
	default:
		raw, err = jsonMarshal(item)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %s: %w", item.ObjectType(), item.ItemID(), err)
	}
	return raw, nil
}

// jsonMarshal is json.Marshal without HTML escaping.
func jsonMarshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
