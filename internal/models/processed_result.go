package models

// ProcessedResult is the output of one upload run: both encoded images plus
// the metadata reported back to the client.
type ProcessedResult struct {
	MainImage []byte
	Thumbnail []byte
	Metadata  ProcessingMetadata
}

type ProcessingMetadata struct {
	Width                   int     `json:"width"`
	Height                  int     `json:"height"`
	Format                  string  `json:"format"`
	OriginalSizeBytes       int     `json:"originalSize"`
	CompressedSizeBytes     int     `json:"compressedSize"`
	ThumbnailSizeBytes      int     `json:"thumbnailSize"`
	CompressionRatioPercent float64 `json:"compressionRatio"`
	StyleApplied            string  `json:"styleApplied"`
	SourceWidth             int     `json:"sourceWidth"`
	SourceHeight            int     `json:"sourceHeight"`
}
