package models

// StoredFile references an object held by the storage backend.
type StoredFile struct {
	Key         string `bson:"key" json:"-"`
	Name        string `bson:"name" json:"file_name"`
	Size        int64  `bson:"size" json:"file_size"`
	ContentType string `bson:"content_type" json:"content_type"`
}
