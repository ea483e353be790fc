package commonModels

import (
	"encoding/json"
	"errors"
	"time"
)

// Document is one ingested source file; Filename is the natural key.
type Document struct {
	Filename    string    `json:"filename"`
	PageCount   int       `json:"page_count"`
	TotalChars  int       `json:"total_chars"`
	TotalChunks int       `json:"total_chunks"`
	AddedAt     time.Time `json:"added_date"`
}

// Chunk is a segment of page text with its embedding, as written by ingestion.
type Chunk struct {
	PageNumber int       `json:"page_number"`
	Text       string    `json:"chunk_text"`
	Embedding  []float32 `json:"embedding"`
}

// StoredChunk is a chunk row as returned by a full scan.
// RawEmbedding is the JSON float array exactly as stored.
type StoredChunk struct {
	Filename     string
	PageNumber   int
	Text         string
	RawEmbedding []byte
}

var ErrEmptyEmbedding = errors.New("empty embedding")

// Vector decodes the stored embedding.
func (c StoredChunk) Vector() ([]float32, error) {
	var v []float32
	if err := json.Unmarshal(c.RawEmbedding, &v); err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return v, nil
}

func EncodeEmbedding(v []float32) ([]byte, error) {
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return json.Marshal(v)
}

type Image struct {
	Filename   string    `json:"filename"`
	PageNumber int       `json:"page_number"`
	ImagePath  string    `json:"image_path"`
	ImageIndex int       `json:"image_index"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	AddedAt    time.Time `json:"added_date"`
}

type Stats struct {
	DocumentCount int `json:"pdf_count"`
	TotalPages    int `json:"total_pages"`
	TotalChunks   int `json:"total_chunks"`
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Filename   string
	PageNumber int
	Text       string
	Similarity float64
}

type Source struct {
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	// NoData is set when nothing has been ingested yet.
	NoData bool `json:"no_data,omitempty"`
	// NotFound is set when no chunk could ground the question.
	NotFound bool `json:"not_found,omitempty"`
}

// ImageOutcome reports the best-effort image stage; Warning is empty on success.
type ImageOutcome struct {
	Extracted int    `json:"extracted"`
	Saved     int    `json:"saved"`
	Warning   string `json:"warning,omitempty"`
}

type IngestResult struct {
	Filename    string       `json:"filename"`
	PageCount   int          `json:"page_count"`
	TotalChars  int          `json:"total_chars"`
	TotalChunks int          `json:"total_chunks"`
	Replaced    bool         `json:"replaced"`
	Images      ImageOutcome `json:"images"`
}

type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Stats    Stats  `json:"stats"`
	Message  string `json:"message,omitempty"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
