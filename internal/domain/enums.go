package domain

// FileType represents the document formats accepted for extraction.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeImage FileType = "image"
	FileTypeText  FileType = "text"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"docx": FileTypeDOCX,
	"jpg":  FileTypeImage,
	"jpeg": FileTypeImage,
	"png":  FileTypeImage,
	"bmp":  FileTypeImage,
	"tif":  FileTypeImage,
	"tiff": FileTypeImage,
	"txt":  FileTypeText,
}

// AllowedContentTypes maps MIME content types to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FileTypeDOCX,
	"image/jpeg": FileTypeImage,
	"image/png":  FileTypeImage,
	"image/bmp":  FileTypeImage,
	"image/tiff": FileTypeImage,
	"text/plain": FileTypeText,
}

// OCREngine names a selectable OCR engine for the recognition channel.
type OCREngine string

const (
	OCREngineBaidu     OCREngine = "baidu"
	OCREngineTesseract OCREngine = "tesseract"
)

// AllowedOCREngines enumerates the engines a request may select.
var AllowedOCREngines = map[OCREngine]bool{
	OCREngineBaidu:     true,
	OCREngineTesseract: true,
}

// ContentType classifies what a single content unit holds.
type ContentType string

const (
	ContentTypeNativeTextOnly ContentType = "native_text_only"
	ContentTypeMixed          ContentType = "mixed_content"
	ContentTypeImageOnly      ContentType = "image_only"
	ContentTypeEmpty          ContentType = "empty"
	ContentTypeError          ContentType = "error"
)

// ExtractionMethod records how a unit's (or image's) text was produced.
type ExtractionMethod string

const (
	MethodNativeText       ExtractionMethod = "native_text"
	MethodNativeWithImages ExtractionMethod = "native_text_with_images"
	MethodOCROnly          ExtractionMethod = "ocr_only"
	MethodVisionOnly       ExtractionMethod = "vision_only"
	MethodIntelligentMerge ExtractionMethod = "intelligent_merge"
	MethodOCREnhanced      ExtractionMethod = "ocr_enhanced"
	MethodVisionEnhanced   ExtractionMethod = "vision_enhanced"
	MethodBothFailed       ExtractionMethod = "both_failed"
	MethodEmpty            ExtractionMethod = "empty"
	MethodError            ExtractionMethod = "error"
)

// OutputFormat is the serialization format for stored extraction results.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatText OutputFormat = "txt"
)
