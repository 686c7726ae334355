package render

import (
	"context"
	"fmt"

	"github.com/ironsheep/textmap-mcp/internal/ocr"
)

// NoTextPlaceholder is shown instead of elements when a result has no blocks.
const NoTextPlaceholder = "No text detected. Please try another image."

// BlockAlertTitle is the title of the message shown when a block is tapped.
const BlockAlertTitle = "Block"

// Messenger shows a message to the user and waits for acknowledgement.
type Messenger interface {
	ShowMessage(ctx context.Context, title, message string) error
}

// Element is the interactive view of one text block.
type Element struct {
	Index  int        `json:"index"`
	Text   string     `json:"text"`
	Bounds ocr.Bounds `json:"bounds"`

	messenger Messenger
}

// Activate surfaces the element's text through the messenger.
func (e Element) Activate(ctx context.Context) error {
	if e.messenger == nil {
		return fmt.Errorf("element %d has no messenger", e.Index)
	}
	return e.messenger.ShowMessage(ctx, BlockAlertTitle, e.Text)
}

// TextMapView is the rendered text map: either Elements or a Placeholder,
// never both.
type TextMapView struct {
	Elements    []Element `json:"elements"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// TextMap renders one element per block, in block order. An empty block
// list renders the placeholder and no elements.
func TextMap(blocks []ocr.TextBlock, m Messenger) TextMapView {
	if len(blocks) == 0 {
		return TextMapView{Elements: []Element{}, Placeholder: NoTextPlaceholder}
	}

	elements := make([]Element, len(blocks))
	for i, b := range blocks {
		elements[i] = Element{
			Index:     i,
			Text:      b.Text,
			Bounds:    b.Bounds,
			messenger: m,
		}
	}
	return TextMapView{Elements: elements}
}

// Element returns the element at index i.
func (v TextMapView) Element(i int) (Element, error) {
	if i < 0 || i >= len(v.Elements) {
		return Element{}, fmt.Errorf("no block at index %d (have %d)", i, len(v.Elements))
	}
	return v.Elements[i], nil
}
