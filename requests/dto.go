package requests

import "time"

// EntryType valid values are FileEntry "file" and DirEntry "dir"
type EntryType string

const (
	FileEntry EntryType = "file"
	DirEntry  EntryType = "dir"
)

// EntryDTO is the yaml/json representation of one seeded node
type EntryDTO struct {
	Path       string      `yaml:"path" json:"path"`
	Type       EntryType   `yaml:"type,omitempty" json:"type,omitempty"` // Default: "dir" when Path ends with a separator, else "file"
	Content    *ContentDTO `yaml:"content,omitempty" json:"content,omitempty"`
	Attributes []string    `yaml:"attributes,omitempty" json:"attributes,omitempty"` // i.e. [ReadOnly, Hidden]
	Share      *string     `yaml:"share,omitempty" json:"share,omitempty"`           // i.e. "Read, Delete" (Default "ReadWrite, Delete")
	Perms      *uint32     `yaml:"perms,omitempty" json:"perms,omitempty"`           // i.e. 0755
	UUID       *string     `yaml:"uuid,omitempty" json:"uuid,omitempty"`             // Optional identity, kept across moves
	Ctime      *time.Time  `yaml:"ctime,omitempty" json:"ctime,omitempty"`           // Created at (Default: time the entry is added)
	Atime      *time.Time  `yaml:"atime,omitempty" json:"atime,omitempty"`           // Last accessed at
	Mtime      *time.Time  `yaml:"mtime,omitempty" json:"mtime,omitempty"`           // Last modified at

	// Metadata seeds string values into the node's metadata
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// ContentDTO holds file contents. Value is interpreted by the decoder
// registered for Type (see [RegisterContentType]); an empty Type is "text".
type ContentDTO struct {
	Type  string `yaml:"type,omitempty" json:"type,omitempty"`
	Value string `yaml:"value" json:"value"`
}

// SeedDTO is the document form of a seed file
type SeedDTO struct {
	Entries []EntryDTO `yaml:"entries" json:"entries"`
}
