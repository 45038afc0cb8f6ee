// Package extractor maps file extensions to extraction strategies.
package extractor

import (
	"path/filepath"
	"strings"
)

type Strategy string

const (
	StrategyOCR         Strategy = "ocr"
	StrategyConvert     Strategy = "convert"
	StrategyUnsupported Strategy = "unsupported"
)

// strategyByExtension is the fixed lookup table. Raster images and PDF go
// through OCR; recognized document, text, spreadsheet, e-mail, e-book and
// markup formats go through the generic converter.
var strategyByExtension = map[string]Strategy{
	".pdf":  StrategyOCR,
	".png":  StrategyOCR,
	".jpg":  StrategyOCR,
	".jpeg": StrategyOCR,
	".tif":  StrategyOCR,
	".tiff": StrategyOCR,
	".bmp":  StrategyOCR,
	".gif":  StrategyOCR,

	".csv":  StrategyConvert,
	".doc":  StrategyConvert,
	".docx": StrategyConvert,
	".eml":  StrategyConvert,
	".epub": StrategyConvert,
	".htm":  StrategyConvert,
	".html": StrategyConvert,
	".json": StrategyConvert,
	".md":   StrategyConvert,
	".msg":  StrategyConvert,
	".odt":  StrategyConvert,
	".ppt":  StrategyConvert,
	".pptx": StrategyConvert,
	".rst":  StrategyConvert,
	".rtf":  StrategyConvert,
	".tsv":  StrategyConvert,
	".txt":  StrategyConvert,
	".xlsx": StrategyConvert,
	".xml":  StrategyConvert,
}

// ForExtension resolves a strategy for an extension. The extension is
// normalized to lower case; a missing leading dot is tolerated.
func ForExtension(ext string) Strategy {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if s, ok := strategyByExtension[ext]; ok {
		return s
	}
	return StrategyUnsupported
}

// ForFilename resolves a strategy from a file name or storage key.
func ForFilename(name string) Strategy {
	return ForExtension(filepath.Ext(name))
}
