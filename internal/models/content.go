package models

import (
	"fmt"
	"time"
)

// ContentType is the kind of content shared into a group.
type ContentType int

const (
	ContentPhoto ContentType = iota
	ContentAlbum
)

func (t ContentType) String() string {
	switch t {
	case ContentPhoto:
		return "photo"
	case ContentAlbum:
		return "album"
	default:
		return fmt.Sprintf("content_type(%d)", int(t))
	}
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentPhoto || t == ContentAlbum
}

// ParseContentType parses "photo" or "album".
func ParseContentType(s string) (ContentType, error) {
	switch s {
	case "photo":
		return ContentPhoto, nil
	case "album":
		return ContentAlbum, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", s)
	}
}

// GroupSharedContent is one share of a photo or album into a group.
// Exactly one of PhotoID and AlbumID is set, selected by ContentType.
type GroupSharedContent struct {
	ID             string
	GroupID        string
	SharedByUserID string
	ContentType    ContentType

	PhotoID string
	AlbumID string

	SharedAt time.Time

	// RemovedAt is nil while the content is visible to the group.
	RemovedAt *time.Time
}

// IsActive reports whether the content is still visible.
func (c *GroupSharedContent) IsActive() bool {
	return c.RemovedAt == nil
}

// ContentID returns the photo or album id, depending on ContentType.
func (c *GroupSharedContent) ContentID() string {
	if c.ContentType == ContentAlbum {
		return c.AlbumID
	}
	return c.PhotoID
}

// SetContentID stores id in the field selected by ContentType and clears the other.
func (c *GroupSharedContent) SetContentID(id string) {
	switch c.ContentType {
	case ContentAlbum:
		c.AlbumID, c.PhotoID = id, ""
	default:
		c.PhotoID, c.AlbumID = id, ""
	}
}
