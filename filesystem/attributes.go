package filesystem

import (
	"fmt"
	"strconv"
	"strings"
)

// FileAttributes are the attribute flags of a node. Values match the
// Windows FILE_ATTRIBUTE_* constants.
type FileAttributes uint32

const (
	AttrReadOnly          FileAttributes = 1
	AttrHidden            FileAttributes = 2
	AttrSystem            FileAttributes = 4
	AttrDirectory         FileAttributes = 16
	AttrArchive           FileAttributes = 32
	AttrDevice            FileAttributes = 64
	AttrNormal            FileAttributes = 128
	AttrTemporary         FileAttributes = 256
	AttrSparseFile        FileAttributes = 512
	AttrReparsePoint      FileAttributes = 1024
	AttrCompressed        FileAttributes = 2048
	AttrOffline           FileAttributes = 4096
	AttrNotContentIndexed FileAttributes = 8192
	AttrEncrypted         FileAttributes = 16384
)

var attributeNames = []struct {
	attr FileAttributes
	name string
}{
	{AttrReadOnly, "ReadOnly"},
	{AttrHidden, "Hidden"},
	{AttrSystem, "System"},
	{AttrDirectory, "Directory"},
	{AttrArchive, "Archive"},
	{AttrDevice, "Device"},
	{AttrNormal, "Normal"},
	{AttrTemporary, "Temporary"},
	{AttrSparseFile, "SparseFile"},
	{AttrReparsePoint, "ReparsePoint"},
	{AttrCompressed, "Compressed"},
	{AttrOffline, "Offline"},
	{AttrNotContentIndexed, "NotContentIndexed"},
	{AttrEncrypted, "Encrypted"},
}

// Has reports whether every bit of flag is set
func (a FileAttributes) Has(flag FileAttributes) bool {
	return a&flag == flag
}

// String renders the flags as a comma separated list, e.g. "ReadOnly, Hidden"
func (a FileAttributes) String() string {
	if a == 0 {
		return "0"
	}
	var parts []string
	rest := a
	for _, n := range attributeNames {
		if a&n.attr != 0 {
			parts = append(parts, n.name)
			rest &^= n.attr
		}
	}
	if rest != 0 {
		parts = append(parts, strconv.FormatUint(uint64(rest), 10))
	}
	return strings.Join(parts, ", ")
}

// ParseAttributes parses names such as "ReadOnly, Hidden" (case-insensitive,
// separated by commas or '|').
func ParseAttributes(s string) (FileAttributes, error) {
	var a FileAttributes
	for _, part := range splitFlags(s) {
		found := false
		for _, n := range attributeNames {
			if strings.EqualFold(part, n.name) {
				a |= n.attr
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown file attribute %q", ErrInvalidArgument, part)
		}
	}
	return a, nil
}

// FileShare controls which kinds of access other openers of a node may
// request.
type FileShare uint32

const (
	ShareNone        FileShare = 0
	ShareRead        FileShare = 1
	ShareWrite       FileShare = 2
	ShareReadWrite   FileShare = ShareRead | ShareWrite
	ShareDelete      FileShare = 4
	ShareInheritable FileShare = 16

	// DefaultShare is the sharing mode of new nodes
	DefaultShare = ShareReadWrite | ShareDelete
)

var shareNames = []struct {
	share FileShare
	name  string
}{
	{ShareReadWrite, "ReadWrite"},
	{ShareRead, "Read"},
	{ShareWrite, "Write"},
	{ShareDelete, "Delete"},
	{ShareInheritable, "Inheritable"},
}

// Has reports whether every bit of flag is allowed
func (s FileShare) Has(flag FileShare) bool {
	return s&flag == flag
}

func (s FileShare) String() string {
	if s == ShareNone {
		return "None"
	}
	var parts []string
	rest := s
	for _, n := range shareNames {
		if rest&n.share == n.share {
			parts = append(parts, n.name)
			rest &^= n.share
		}
	}
	if rest != 0 {
		parts = append(parts, strconv.FormatUint(uint64(rest), 10))
	}
	return strings.Join(parts, ", ")
}

// ParseFileShare parses names such as "Read, Delete" or "None"
func ParseFileShare(s string) (FileShare, error) {
	var share FileShare
	for _, part := range splitFlags(s) {
		if strings.EqualFold(part, "None") {
			continue
		}
		found := false
		for _, n := range shareNames {
			if strings.EqualFold(part, n.name) {
				share |= n.share
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown file share %q", ErrInvalidArgument, part)
		}
	}
	return share, nil
}

func splitFlags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' })
	parts := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return parts
}
