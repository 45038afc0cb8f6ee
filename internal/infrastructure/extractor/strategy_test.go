package extractor

import "testing"

func TestForExtensionOCRSet(t *testing.T) {
	for _, ext := range []string{".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif"} {
		if got := ForExtension(ext); got != StrategyOCR {
			t.Fatalf("ForExtension(%q) = %s, want ocr", ext, got)
		}
	}
}

func TestForExtensionConvertSet(t *testing.T) {
	for _, ext := range []string{
		".csv", ".doc", ".docx", ".eml", ".epub", ".htm", ".html", ".json",
		".md", ".msg", ".odt", ".ppt", ".pptx", ".rst", ".rtf", ".tsv",
		".txt", ".xlsx", ".xml",
	} {
		if got := ForExtension(ext); got != StrategyConvert {
			t.Fatalf("ForExtension(%q) = %s, want convert", ext, got)
		}
	}
}

func TestForExtensionNormalizes(t *testing.T) {
	cases := map[string]Strategy{
		"PDF":    StrategyOCR,
		".DOCX":  StrategyConvert,
		" .png ": StrategyOCR,
		"jpeg":   StrategyOCR,
	}
	for ext, want := range cases {
		if got := ForExtension(ext); got != want {
			t.Fatalf("ForExtension(%q) = %s, want %s", ext, got, want)
		}
	}
}

func TestForExtensionUnknownIsUnsupported(t *testing.T) {
	for _, ext := range []string{"", ".exe", ".zip", ".mp4", ".unknown", "."} {
		if got := ForExtension(ext); got != StrategyUnsupported {
			t.Fatalf("ForExtension(%q) = %s, want unsupported", ext, got)
		}
	}
}

func TestForFilename(t *testing.T) {
	cases := map[string]Strategy{
		"report.PDF":                StrategyOCR,
		"uploads/abc123_scan.png":   StrategyOCR,
		"minutes.docx":              StrategyConvert,
		"archive.tar.gz":            StrategyUnsupported,
		"noextension":               StrategyUnsupported,
		"folder.d/spreadsheet.xlsx": StrategyConvert,
	}
	for name, want := range cases {
		if got := ForFilename(name); got != want {
			t.Fatalf("ForFilename(%q) = %s, want %s", name, got, want)
		}
	}
}
