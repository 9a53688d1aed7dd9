package requests

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/util"
)

// Entries describes every node of fsys except the roots, in path order. The
// result loads back into an equivalent store.
func Entries(fsys *filesystem.FileSystem) []EntryDTO {
	platform := fsys.Platform()
	var dtos []EntryDTO
	for _, p := range fsys.AllPaths() {
		if _, ok := platform.Dir(p); !ok {
			continue
		}
		node := fsys.GetNode(p)
		if node == nil {
			continue // removed since AllPaths
		}
		dtos = append(dtos, newEntryDTO(p, node))
	}
	return dtos
}

// Dump renders fsys as a yaml seed document
func Dump(fsys *filesystem.FileSystem) ([]byte, error) {
	return yaml.Marshal(SeedDTO{Entries: Entries(fsys)})
}

func newEntryDTO(path string, node *filesystem.Node) EntryDTO {
	dto := EntryDTO{
		Path:  path,
		Type:  FileEntry,
		UUID:  util.Pointer(node.ID().String()),
		Ctime: util.Pointer(node.CreationTime()),
		Atime: util.Pointer(node.LastAccessTime()),
		Mtime: util.Pointer(node.LastWriteTime()),
	}

	defaultMode := filesystem.DefaultFileMode
	if node.IsDirectory() {
		dto.Type = DirEntry
		defaultMode = filesystem.DefaultDirMode
	} else {
		dto.Content = newContentDTO(node.Contents())
	}
	if perm := node.UnixMode.Perm(); perm != defaultMode {
		dto.Perms = util.Pointer(uint32(perm))
	}
	if attrs := node.Attributes() &^ (filesystem.AttrDirectory | filesystem.AttrNormal); attrs != 0 {
		dto.Attributes = strings.Split(attrs.String(), ", ")
	}
	if share := node.AllowedShare(); share != filesystem.DefaultShare {
		dto.Share = util.Pointer(share.String())
	}
	for _, k := range node.Metadata().Keys() {
		if v, ok := filesystem.LookupMetadata[string](node.Metadata(), k); ok {
			if dto.Metadata == nil {
				dto.Metadata = map[string]string{}
			}
			dto.Metadata[k] = v
		}
	}
	return dto
}

func newContentDTO(data []byte) *ContentDTO {
	if len(data) == 0 {
		return nil
	}
	if utf8.Valid(data) {
		return &ContentDTO{Value: string(data)}
	}
	return &ContentDTO{Type: Base64Content, Value: base64.StdEncoding.EncodeToString(data)}
}
