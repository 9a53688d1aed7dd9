package requests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/util"
)

// Format is a seed file encoding
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("unsupported seed file format: %s", filepath.Ext(path))
	}
}

// DecodeEntries parses a seed document. Both a bare list of entries and a
// document with an "entries" key are accepted.
func DecodeEntries(data []byte, format Format) ([]EntryDTO, error) {
	var entries []EntryDTO
	var doc SeedDTO
	switch format {
	case YAML:
		var probe yaml.Node
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
		if len(probe.Content) == 0 {
			return nil, nil
		}
		if probe.Content[0].Kind == yaml.SequenceNode {
			err := probe.Decode(&entries)
			return entries, err
		}
		if err := probe.Decode(&doc); err != nil {
			return nil, err
		}
	case JSON:
		trimmed := bytes.TrimSpace(data)
		if bytes.HasPrefix(trimmed, []byte("[")) {
			err := json.Unmarshal(trimmed, &entries)
			return entries, err
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported seed file format: %q", format)
	}
	return doc.Entries, nil
}

// UnmarshalEntries parses a seed document into the entries map accepted by
// [filesystem.NewFS], decoding contents with the default registry
func UnmarshalEntries(data []byte, format Format) (map[string]*filesystem.Node, error) {
	dtos, err := DecodeEntries(data, format)
	if err != nil {
		return nil, err
	}
	return ToNodes(dtos, defaultRegistry)
}

// LoadFile reads a .yaml, .yml or .json seed file
func LoadFile(path string) (map[string]*filesystem.Node, error) {
	logger := util.GetLogger("LoadFile")

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := UnmarshalEntries(data, format)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Int("entries", len(entries)).Msg("Loaded seed file")
	return entries, nil
}

// ToNodes converts entries with reg. A later entry for the same path
// replaces an earlier one.
func ToNodes(dtos []EntryDTO, reg *Registry) (map[string]*filesystem.Node, error) {
	nodes := make(map[string]*filesystem.Node, len(dtos))
	for i, dto := range dtos {
		node, err := convertEntryDTO(dto, reg)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, dto.Path, err)
		}
		nodes[dto.Path] = node
	}
	return nodes, nil
}

func entryType(dto EntryDTO) EntryType {
	if dto.Type != "" {
		return dto.Type
	}
	if strings.HasSuffix(dto.Path, "/") || strings.HasSuffix(dto.Path, `\`) {
		return DirEntry
	}
	return FileEntry
}

// Conversion logic with defaults in the unmarshaling layer. Unset times stay
// zero so the store stamps them when the node is added.
func convertEntryDTO(dto EntryDTO, reg *Registry) (*filesystem.Node, error) {
	if dto.Path == "" {
		return nil, fmt.Errorf("%w: entry path is required", filesystem.ErrInvalidArgument)
	}

	var node *filesystem.Node
	switch entryType(dto) {
	case FileEntry:
		data, err := reg.Decode(dto.Content)
		if err != nil {
			return nil, err
		}
		node = filesystem.NewFileNode(data)
	case DirEntry:
		if dto.Content != nil {
			return nil, fmt.Errorf("%w: directories cannot have content", filesystem.ErrInvalidArgument)
		}
		node = filesystem.NewDirectoryNode()
	default:
		return nil, fmt.Errorf("%w: unknown entry type %q", filesystem.ErrInvalidArgument, dto.Type)
	}

	if len(dto.Attributes) > 0 {
		attrs, err := filesystem.ParseAttributes(strings.Join(dto.Attributes, ","))
		if err != nil {
			return nil, err
		}
		node.SetAttributes(attrs)
	}
	if dto.Share != nil {
		share, err := filesystem.ParseFileShare(*dto.Share)
		if err != nil {
			return nil, err
		}
		node.SetAllowedShare(share)
	}
	if dto.UUID != nil {
		id, err := uuid.Parse(*dto.UUID)
		if err != nil {
			return nil, fmt.Errorf("%w: uuid: %v", filesystem.ErrInvalidArgument, err)
		}
		node.SetID(id)
	}
	node.UnixMode = fs.FileMode(util.ValueOrDefault(dto.Perms, uint32(node.UnixMode))).Perm()
	node.SetCreationTime(util.ValueOrDefault(dto.Ctime, node.CreationTime()))
	node.SetLastAccessTime(util.ValueOrDefault(dto.Atime, node.LastAccessTime()))
	node.SetLastWriteTime(util.ValueOrDefault(dto.Mtime, node.LastWriteTime()))
	for k, v := range dto.Metadata {
		node.Metadata().Set(k, v)
	}
	return node, nil
}
