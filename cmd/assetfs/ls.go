// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetfs/cmd/assetfs/cli"
	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

type lsParams struct {
	Config    cli.ConfigFlag
	Long      bool `flag:"long,l" desc:"show mode, size, and cache state"`
	Recursive bool `flag:"recursive,r" desc:"list subdirectories recursively"`
}

func (a *application) lsCommand() *cli.Command {
	var params lsParams
	return &cli.Command{
		Name:    "ls",
		Summary: "List the tree without mounting it",
		Description: `List a directory of the tree built from the configured index and
save store. Nothing is fetched: files show their declared sizes and
saved files show as memory-backed.`,
		Usage: "assetfs ls [flags] [path]",
		Examples: []cli.Example{
			{
				Description: "Show sizes under the art directory",
				Command:     "assetfs ls -l data/art",
			},
			{
				Description: "List every file in the tree",
				Command:     "assetfs ls -r",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("ls", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one path, got %d", len(args))
			}
			var path string
			if len(args) == 1 {
				path = strings.Trim(args[0], "/")
			}

			cfg, err := params.Config.Load()
			if err != nil {
				return err
			}
			tree, _, err := buildTree(ctx, cfg, a.clock, logger)
			if err != nil {
				return err
			}
			return a.list(tree, path, params)
		},
	}
}

// list writes the entries of the directory at path, or the file itself
// when path names a file.
func (a *application) list(tree *assetfs.Tree, path string, params lsParams) error {
	target, err := tree.Resolve(path)
	if err != nil {
		return err
	}

	type row struct {
		name string
		node *assetfs.Node
	}
	var rows []row
	switch {
	case !target.IsDir():
		rows = append(rows, row{name: path, node: target})
	case params.Recursive:
		err := tree.Walk(func(walked string, node *assetfs.Node) error {
			if path != "" && !strings.HasPrefix(walked, path+"/") {
				return nil
			}
			if walked != "" {
				rows = append(rows, row{name: walked, node: node})
			}
			return nil
		})
		if err != nil {
			return err
		}
	default:
		children, err := tree.Children(target)
		if err != nil {
			return err
		}
		for _, child := range children {
			rows = append(rows, row{name: child.Name(), node: child})
		}
	}

	if !params.Long {
		for _, r := range rows {
			name := r.name
			if r.node.IsDir() {
				name += "/"
			}
			fmt.Fprintln(a.stdout, name)
		}
		return nil
	}

	writer := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	var files int
	var total int64
	for _, r := range rows {
		attr := tree.Getattr(r.node)
		state := "-"
		if !r.node.IsDir() {
			state = r.node.State().String()
			files++
			total += attr.Size
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t %s\n",
			modeString(attr.Mode), humanize.IBytes(uint64(attr.Size)), state, r.name)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%s in %s\n",
		humanize.IBytes(uint64(total)), pluralize(files, "file"))
	return err
}

// modeString renders a node mode the way ls does.
func modeString(mode uint32) string {
	permissions := fs.FileMode(mode & 0o777).String()
	if mode&assetfs.ModeDir != 0 {
		return "d" + permissions[1:]
	}
	return permissions
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
