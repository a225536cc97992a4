package commonModels

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

type DocType string

const (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	TXT  DocType = "TXT"
	ERR  DocType = "ERROR"
)

// DocTypeFromPath dispatches on the lower-cased extension only.
func DocTypeFromPath(path string) DocType {
	switch FileExtension(path) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "txt":
		return TXT
	default:
		return ERR
	}
}

// FileExtension is the lower-cased extension without the dot ("" when absent).
func FileExtension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Segment is one unit of extracted text: a pdf page, or the whole of a docx/txt file.
type Segment struct {
	Text     string
	Metadata SegmentMetadata
}

type SegmentMetadata struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`
	Page     *int   `json:"page,omitempty"`
}

type Document struct {
	Id         string    `json:"id"`
	Title      string    `json:"title"`
	FilePath   string    `json:"file_path"`
	FileType   string    `json:"file_type"`
	UploadedBy string    `json:"uploaded_by"`
	Collection string    `json:"collection"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentChunk is one retrievable unit. ChunkIndex runs 0..N-1 over the whole document.
type DocumentChunk struct {
	Id         string          `json:"id"`
	DocumentId string          `json:"document_id"`
	ChunkText  string          `json:"chunk_text"`
	ChunkIndex int             `json:"chunk_index"`
	PageNumber *int            `json:"page_number,omitempty"`
	Metadata   SegmentMetadata `json:"metadata"`
	Embedding  []float32       `json:"-"`
}

type DistanceMetric string

const (
	Cosine    DistanceMetric = "cosine"
	Euclidean DistanceMetric = "euclidean"
)

func (m DistanceMetric) Valid() bool {
	return m == Cosine || m == Euclidean
}

type CollectionSpec struct {
	Name      string
	Dimension int
	Metric    DistanceMetric
}

// VectorEntry is what the vector index stores for a chunk.
type VectorEntry struct {
	Id         string
	DocumentId string
	ChunkIndex int
	Content    string
	Metadata   SegmentMetadata
	Vector     []float32
}

// ScoredEntry is a search hit. Score is cosine similarity (higher is nearer)
// or euclidean distance (lower is nearer), depending on the collection metric.
type ScoredEntry struct {
	Entry VectorEntry
	Score float64
}

type Citation struct {
	Filename string `json:"filename"`
	Source   string `json:"source"`
	Content  string `json:"content"`
	FileType string `json:"file_type"`
	Page     *int   `json:"page,omitempty"`
}

func IntPtr(i int) *int {
	return &i
}

// DocumentTx is the unit of work the ingestion commit runs in. Nothing written
// through it is visible until the surrounding WithinTransaction call returns nil.
type DocumentTx interface {
	CreateDocument(ctx context.Context, doc *Document) error
	InsertChunks(ctx context.Context, documentId string, chunks []DocumentChunk) error
}

type DocumentStore interface {
	WithinTransaction(ctx context.Context, fn func(tx DocumentTx) error) error
	GetDocument(ctx context.Context, id string) (Document, error)
	ListDocuments(ctx context.Context, uploadedBy string) ([]Document, error)
	CountChunks(ctx context.Context, documentId string) (int64, error)
	ListChunks(ctx context.Context, documentId string) ([]DocumentChunk, error)
	// FindDocument looks up a document by its owner, collection and title.
	FindDocument(ctx context.Context, uploadedBy string, collection string, title string) (Document, error)
	// DeleteDocument removes the document and its chunks atomically and returns
	// the removed chunk ids, which double as vector entry ids.
	DeleteDocument(ctx context.Context, id string) ([]string, error)
}
