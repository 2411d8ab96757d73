package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	internalApp "github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/gookit/goutil/dump"
	"github.com/spf13/cobra"
)

// noteFields notes add / edit 共用参数
type noteFields struct {
	title     string
	body      string
	tags      string
	pinned    bool
	recording string
}

func (f *noteFields) bind(cmd *cobra.Command, withRecording bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.title, "title", "t", "", "note title")
	fs.StringVarP(&f.body, "body", "b", "", `note body, "-" reads stdin`)
	fs.StringVar(&f.tags, "tags", "", "comma separated tags")
	fs.BoolVar(&f.pinned, "pinned", false, "pin the note")
	if withRecording {
		fs.StringVar(&f.recording, "recording", "", "linked backend recording id")
	}
}

func (f *noteFields) readBody(cmd *cobra.Command) (string, error) {
	if f.body != "-" {
		return f.body, nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func init() {
	var query string
	var withDump bool
	var add, edit noteFields
	var diffVersion string

	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Inspect and edit local notes // 查看与编辑本地笔记",
	}
	addCLIFlags(notesCmd)

	listCmd := &cobra.Command{
		Use:   "list [-q query]",
		Short: "List notes, pinned first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				notes, err := a.NoteService.List(ctx, cliEnv.profile, query)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tPINNED\tUPDATED\tTITLE\tTAGS")
				for _, n := range notes {
					fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\n",
						n.ID, n.Pinned, n.SortTime().Local().Format("2006-01-02 15:04"),
						truncate(n.Title, 40), strings.Join(n.Tags, ","))
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search over title, body and tags")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one note with its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				n, err := a.NoteService.Get(ctx, cliEnv.profile, args[0])
				if err != nil {
					return err
				}
				if withDump {
					dump.P(n)
					return nil
				}
				printNote(cmd, n)
				return nil
			})
		},
	}
	showCmd.Flags().BoolVar(&withDump, "dump", false, "dump the stored structure")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note and build its cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := add.readBody(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				n, err := a.NoteService.Create(ctx, cliEnv.profile, domain.NoteDraft{
					Title:       add.title,
					Body:        body,
					Tags:        domain.ParseTags(add.tags),
					Pinned:      add.pinned,
					RecordingID: add.recording,
				})
				if err != nil {
					return err
				}
				printf(cmd, "created %s\n", n.ID)
				return nil
			})
		},
	}
	add.bind(addCmd, true)

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update the given fields of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			patch := domain.NotePatch{}
			if fs.Changed("title") {
				patch.Title = &edit.title
			}
			if fs.Changed("body") {
				body, err := edit.readBody(cmd)
				if err != nil {
					return err
				}
				patch.Body = &body
			}
			if fs.Changed("tags") {
				patch.Tags, patch.SetTags = domain.ParseTags(edit.tags), true
			}
			if fs.Changed("pinned") {
				patch.Pinned = &edit.pinned
			}
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				n, err := a.NoteService.Update(ctx, cliEnv.profile, args[0], patch)
				if err != nil {
					return err
				}
				printf(cmd, "updated %s (%d versions)\n", n.ID, len(n.Versions))
				return nil
			})
		},
	}
	edit.bind(editCmd, false)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				return a.NoteService.Delete(ctx, cliEnv.profile, args[0])
			})
		},
	}

	versionsCmd := &cobra.Command{
		Use:   "versions <id>",
		Short: "List the version snapshots of a note, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				list, err := a.NoteService.Versions(ctx, cliEnv.profile, args[0])
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "VERSION\tTAKEN\tBODY")
				for _, v := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.TakenAt.Local().Format("2006-01-02 15:04:05"),
						truncate(strings.ReplaceAll(v.Body, "\n", " "), 50))
				}
				return tw.Flush()
			})
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <id> <versionId>",
		Short: "Restore a version body as a new version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				n, err := a.NoteService.RestoreVersion(ctx, cliEnv.profile, args[0], args[1])
				if err != nil {
					return err
				}
				printf(cmd, "restored %s (%d versions)\n", n.ID, len(n.Versions))
				return nil
			})
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff <id> --version <versionId>",
		Short: "Show the patch from a version to the current body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				d, err := a.NoteService.VersionDiff(ctx, cliEnv.profile, args[0], diffVersion)
				if err != nil {
					return err
				}
				printf(cmd, "%s", d.Patch)
				return nil
			})
		},
	}
	diffCmd.Flags().StringVar(&diffVersion, "version", "", "version id")
	_ = diffCmd.MarkFlagRequired("version")

	notesCmd.AddCommand(listCmd, showCmd, addCmd, editCmd, deleteCmd, versionsCmd, restoreCmd, diffCmd)
	rootCmd.AddCommand(notesCmd)
}

func printNote(cmd *cobra.Command, n *domain.Note) {
	printf(cmd, "# %s\n", n.Title)
	printf(cmd, "id: %s  pinned: %v  tags: %s\n", n.ID, n.Pinned, strings.Join(n.Tags, ","))
	if n.RecordingID != "" {
		printf(cmd, "recording: %s\n", n.RecordingID)
	}
	printf(cmd, "\n%s\n\n", n.Body)
	printf(cmd, "versions: %d\n", len(n.Versions))
	for i := len(n.Versions) - 1; i >= 0; i-- {
		v := n.Versions[i]
		printf(cmd, "  %s  %s\n", v.ID, v.TakenAt.Local().Format("2006-01-02 15:04:05"))
	}
}
