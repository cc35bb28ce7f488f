package domain

import (
	"net/url"
	"slices"
	"strings"
	"time"
)

// DefaultSegment marks stock images that are shared between entities and
// must never be deleted.
const DefaultSegment = "default"

type Image struct {
	ID           string    `bson:"_id" json:"id"`
	User         string    `bson:"user" json:"user"`
	Survey       *string   `bson:"survey,omitempty" json:"survey"`
	Question     *string   `bson:"question,omitempty" json:"question"`
	Name         string    `bson:"name" json:"name"`
	Type         string    `bson:"type" json:"type"`
	Hash         string    `bson:"hash" json:"hash"`
	URL          string    `bson:"url" json:"url"`
	Tags         []string  `bson:"tags" json:"tags"`
	CreationDate time.Time `bson:"creationDate" json:"creationDate"`
	LastUpdate   time.Time `bson:"lastUpdate" json:"lastUpdate"`
}

func (i Image) OwnerIDs() []string {
	return []string{i.User}
}

// IsProtected reports whether the image URL path contains a "default" segment.
func (i Image) IsProtected() bool {
	path := i.URL
	if u, err := url.Parse(i.URL); err == nil && u.Path != "" {
		path = u.Path
	}
	return slices.Contains(strings.Split(path, "/"), DefaultSegment)
}

var SortableImageFields = map[string]string{
	"CREATION_DATE": "creationDate",
	"NAME":          "name",
	"TYPE":          "type",
}
