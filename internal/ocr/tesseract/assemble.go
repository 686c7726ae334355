package tesseract

import (
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/textmap-mcp/internal/ocr"
)

type lineKey struct {
	par, line int
}

// assembleBlocks groups Tesseract word boxes into blocks and lines, keeping
// the order in which each block and line first appears. Empty words and words
// below minConfidence are skipped; blocks left without words are dropped.
func assembleBlocks(words []gosseract.BoundingBox, minConfidence float64) []ocr.TextBlock {
	type lineAcc struct {
		bounds   ocr.Bounds
		elements []ocr.TextElement
	}
	type blockAcc struct {
		lines   []*lineAcc
		byKey   map[lineKey]*lineAcc
		bounds  ocr.Bounds
		confSum float64
		count   int
	}

	var order []*blockAcc
	byBlock := make(map[int]*blockAcc)

	for _, w := range words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		confidence := w.Confidence / 100.0
		if confidence < minConfidence {
			continue
		}
		bounds := ocr.Bounds{
			X1: w.Box.Min.X,
			Y1: w.Box.Min.Y,
			X2: w.Box.Max.X,
			Y2: w.Box.Max.Y,
		}

		blk, ok := byBlock[w.BlockNum]
		if !ok {
			blk = &blockAcc{byKey: make(map[lineKey]*lineAcc), bounds: bounds}
			byBlock[w.BlockNum] = blk
			order = append(order, blk)
		}
		key := lineKey{par: w.ParNum, line: w.LineNum}
		ln, ok := blk.byKey[key]
		if !ok {
			ln = &lineAcc{bounds: bounds}
			blk.byKey[key] = ln
			blk.lines = append(blk.lines, ln)
		}

		ln.elements = append(ln.elements, ocr.TextElement{Text: text, Confidence: confidence, Bounds: bounds})
		ln.bounds = ln.bounds.Union(bounds)
		blk.bounds = blk.bounds.Union(bounds)
		blk.confSum += confidence
		blk.count++
	}

	blocks := make([]ocr.TextBlock, 0, len(order))
	for _, blk := range order {
		lines := make([]ocr.TextLine, len(blk.lines))
		lineTexts := make([]string, len(blk.lines))
		for i, ln := range blk.lines {
			words := make([]string, len(ln.elements))
			for j, e := range ln.elements {
				words[j] = e.Text
			}
			lineTexts[i] = strings.Join(words, " ")
			lines[i] = ocr.TextLine{Text: lineTexts[i], Bounds: ln.bounds, Elements: ln.elements}
		}
		blocks = append(blocks, ocr.TextBlock{
			Text:       strings.Join(lineTexts, "\n"),
			Confidence: blk.confSum / float64(blk.count),
			Bounds:     blk.bounds,
			Lines:      lines,
		})
	}
	return blocks
}
