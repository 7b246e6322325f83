// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

var discardLogger = slog.New(slog.DiscardHandler)

func execute(command *Command, args ...string) error {
	return command.execute(context.Background(), args, discardLogger, io.Discard)
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "assetfs",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "ls",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "ls"
					return nil
				},
			},
		},
	}

	if err := execute(root, "ls"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "ls" {
		t.Errorf("dispatched to %q, want %q", called, "ls")
	}
}

func TestCommand_Execute_PassesContextAndLogger(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")
	var gotValue any
	var gotLogger *slog.Logger

	command := &Command{
		Name: "cat",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			gotValue = ctx.Value(key{})
			gotLogger = logger
			return nil
		},
	}
	if err := command.execute(ctx, nil, discardLogger, io.Discard); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotValue != "marker" || gotLogger != discardLogger {
		t.Errorf("Run received ctx value %v, logger %p", gotValue, gotLogger)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var configPath string
	var target string

	command := &Command{
		Name: "cat",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "config file")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := execute(command, "--config", "/etc/assetfs.yaml", "data/art/hp.frm"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if configPath != "/etc/assetfs.yaml" {
		t.Errorf("configPath = %q", configPath)
	}
	if target != "data/art/hp.frm" {
		t.Errorf("target = %q", target)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "verify",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			flagSet.String("index", "", "index file")
			flagSet.Int("concurrency", 4, "parallel checks")
			return flagSet
		},
		Run: func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := execute(command, "--concurency", "8")
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	for _, want := range []string{"concurency", "did you mean --concurrency", "--help"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err, want)
		}
	}

	err = execute(command, "--zzzzzzzzz")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion for a distant flag", err)
	}
}

func TestCommand_Execute_UnknownSubcommand(t *testing.T) {
	root := &Command{
		Name: "assetfs",
		Subcommands: []*Command{
			{Name: "mount"},
			{Name: "verify"},
			{Name: "version"},
		},
	}

	err := execute(root, "mout")
	if err == nil || !strings.Contains(err.Error(), `did you mean "mount"`) {
		t.Errorf("error = %v, want suggestion for mount", err)
	}

	err = execute(root, "zzzzzzz")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion", err)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:        "assetfs",
				Subcommands: []*Command{{Name: "mount", Summary: "Mount the tree"}},
			}
			var buffer bytes.Buffer
			if err := root.execute(context.Background(), []string{helpArg}, discardLogger, &buffer); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
			if !strings.Contains(buffer.String(), "Mount the tree") {
				t.Errorf("help output = %q", buffer.String())
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name:        "assetfs",
		Subcommands: []*Command{{Name: "mount", Summary: "Mount the tree"}},
	}

	err := execute(root)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v, want 'subcommand required'", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "assetfs",
		Description: "Lazily loaded asset filesystem.",
		Subcommands: []*Command{
			{Name: "mount", Summary: "Mount the asset tree"},
			{Name: "verify", Summary: "Check a directory against an index"},
		},
		Examples: []Example{
			{
				Description: "Mount with a config file",
				Command:     "assetfs mount --config /etc/assetfs.yaml",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Lazily loaded asset filesystem.",
		"Usage:",
		"assetfs <command> [flags]",
		"Commands:",
		"Mount the asset tree",
		"Examples:",
		"# Mount with a config file",
		"assetfs mount --config /etc/assetfs.yaml",
		"Run 'assetfs <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	var params struct {
		ConfigFlag
		Long bool `flag:"long,l" desc:"show sizes and states"`
	}
	command := &Command{
		Name:  "ls",
		Usage: "assetfs ls [path] [flags]",
		Flags: func() *pflag.FlagSet { return FlagsFromParams("ls", &params) },
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{"assetfs ls [path] [flags]", "Flags:", "--config", "--long", "ASSETFS_CONFIG"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "assetfs"}
	mount := &Command{Name: "mount", parent: root}

	if got := root.fullName(); got != "assetfs" {
		t.Errorf("root.fullName() = %q", got)
	}
	if got := mount.fullName(); got != "assetfs mount" {
		t.Errorf("mount.fullName() = %q", got)
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 2}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 2 {
		t.Fatalf("ExitError does not report its code")
	}
	if err.Error() != "exit code 2" {
		t.Errorf("Error() = %q", err.Error())
	}
}
