package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coarse media type classifications derived from the MIME type.
const (
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeAudio    = "audio"
	MediaTypePDF      = "pdf"
	MediaTypeDocument = "document"
	MediaTypeText     = "text"
	MediaTypeOther    = "other"
)

// DocumentClassTypes is the union class matched by a "document" type
// filter: office documents, PDFs and plain text are listed together.
var DocumentClassTypes = []string{MediaTypeDocument, MediaTypePDF, MediaTypeText}

// Media is an uploaded file. The stored filename is opaque; DisplayName
// is what users see and rename.
type Media struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID primitive.ObjectID `bson:"user" json:"owner_id"`

	Filename      string              `bson:"filename" json:"filename"`
	DisplayName   string              `bson:"display_name" json:"display_name"`
	DisplayNameCI string              `bson:"display_name_ci" json:"-"`
	Path          string              `bson:"path" json:"path"`
	MimeType      string              `bson:"mimetype" json:"mimetype"`
	Type          string              `bson:"type" json:"type"`
	Size          int64               `bson:"size" json:"size"`
	FolderID      *primitive.ObjectID `bson:"folder,omitempty" json:"folder"` // nil = root level

	IsFavorite bool       `bson:"is_favorite" json:"is_favorite"`
	IsDeleted  bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt  *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MediaTypeForMIME maps a MIME type to its coarse classification.
func MediaTypeForMIME(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaTypeAudio
	case mimeType == "application/pdf":
		return MediaTypePDF
	case strings.HasPrefix(mimeType, "application/vnd.openxmlformats-officedocument"),
		strings.HasPrefix(mimeType, "application/msword"),
		strings.HasPrefix(mimeType, "application/vnd.ms-excel"),
		strings.HasPrefix(mimeType, "application/vnd.ms-powerpoint"):
		return MediaTypeDocument
	case strings.HasPrefix(mimeType, "text/"):
		return MediaTypeText
	default:
		return MediaTypeOther
	}
}
