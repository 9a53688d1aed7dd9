package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/requests"
)

func newLsCmd(a *app) *cobra.Command {
	var (
		pattern   string
		kind      string
		recursive bool
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List the entries of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var types filesystem.EntryType
			switch kind {
			case "files":
				types = filesystem.EntryFiles
			case "dirs":
				types = filesystem.EntryDirectories
			case "all":
				types = filesystem.EntryAll
			default:
				return fmt.Errorf("invalid --type %q: want files, dirs or all", kind)
			}

			opts := filesystem.DefaultEnumerationOptions()
			opts.RecurseSubdirectories = recursive
			if all {
				opts.AttributesToSkip = 0
			}
			paths, err := a.fsys.Directory().Search(a.dirOrCwd(args), types, pattern, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range paths {
				if a.fsys.Directory().Exists(p) {
					p = a.dirColor.Sprint(p)
				}
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*", "Search pattern, * and ? wildcards")
	cmd.Flags().StringVarP(&kind, "type", "t", "all", "Entries to list: files, dirs or all")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden and system entries")
	return cmd
}

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file>...",
		Short: "Print file contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				data, err := a.fsys.File().ReadAllBytes(p)
				if err != nil {
					return err
				}
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [dir]",
		Short: "Print a directory tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			full, err := a.fsys.FullPath(a.dirOrCwd(args))
			if err != nil {
				return err
			}
			if _, err := a.fsys.Directory().GetFileSystemEntries(full, "*", filesystem.TopDirectoryOnly); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.dirColor.Sprint(full))
			return a.printTree(out, full, "")
		},
	}
}

func (a *app) printTree(out io.Writer, dir, indent string) error {
	entries, err := a.fsys.Directory().GetFileSystemEntries(dir, "*", filesystem.TopDirectoryOnly)
	if err != nil {
		return err
	}
	platform := a.fsys.Platform()
	for i, p := range entries {
		branch, next := "├── ", "│   "
		if i == len(entries)-1 {
			branch, next = "└── ", "    "
		}
		name := platform.Base(p)
		if !a.fsys.Directory().Exists(p) {
			fmt.Fprintln(out, indent+branch+name)
			continue
		}
		fmt.Fprintln(out, indent+branch+a.dirColor.Sprint(name))
		if err := a.printTree(out, p, indent+next); err != nil {
			return err
		}
	}
	return nil
}

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show the attributes and timestamps of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.fsys.File().Stat(args[0])
			if err != nil {
				return err
			}
			node := info.Sys().(*filesystem.Node)
			full := info.(interface{ FullName() string }).FullName()

			out := cmd.OutOrStdout()
			field := func(name string, value any) {
				fmt.Fprintf(out, "%-10s %v\n", name+":", value)
			}
			field("Path", full)
			field("Type", node.Kind())
			field("ID", node.ID())
			field("Size", info.Size())
			field("Mode", info.Mode())
			field("Attrs", node.Attributes())
			field("Share", node.AllowedShare())
			field("Created", node.CreationTime().Format(time.RFC3339))
			field("Accessed", node.LastAccessTime().Format(time.RFC3339))
			field("Modified", node.LastWriteTime().Format(time.RFC3339))
			return nil
		},
	}
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the file system as a yaml seed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := requests.Dump(a.fsys)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
