package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	internalApp "github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	"github.com/haierkeys/preppal-study-sync/internal/study"
	"github.com/haierkeys/preppal-study-sync/pkg/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	deckCmd := &cobra.Command{
		Use:   "deck",
		Short: "Inspect or rebuild the flashcard deck // 查看或重建卡组",
	}
	addCLIFlags(deckCmd)

	var kind string
	deckListCmd := &cobra.Command{
		Use:   "list [--kind note|recording]",
		Short: "List cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				cards, err := a.DeckService.List(ctx, cliEnv.profile, service.CardFilter{Kind: domain.SourceKind(kind)})
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "SOURCE\tQUESTION\tANSWER")
				for _, c := range cards {
					k, id := c.SourceRef()
					fmt.Fprintf(tw, "%s:%s\t%s\t%s\n", k, id, truncate(c.Question, 40), truncate(c.Answer, 40))
				}
				return tw.Flush()
			})
		},
	}
	deckListCmd.Flags().StringVar(&kind, "kind", "", "filter by source kind")

	deckRebuildCmd := &cobra.Command{
		Use:   "rebuild [notes|recordings]",
		Short: "Rebuild cards from all notes (default) or all backend recordings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := "notes"
			if len(args) > 0 {
				from = args[0]
			}
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				var n int
				var err error
				switch from {
				case "notes":
					n, err = a.DeckService.RebuildNotes(ctx, cliEnv.profile)
				case "recordings":
					n, err = a.RecordingService.RebuildDeck(ctx, cliEnv.profile)
				default:
					return fmt.Errorf("unknown rebuild source %q", from)
				}
				if err != nil {
					return err
				}
				printf(cmd, "rebuilt %d cards from %s\n", n, from)
				return nil
			})
		},
	}

	deckCmd.AddCommand(deckListCmd, deckRebuildCmd)

	showStats := func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
			st, err := a.StatsService.Load(ctx, cliEnv.profile)
			if err != nil {
				return err
			}
			printStats(cmd, st)
			return nil
		})
	}
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cumulative study stats // 查看累计统计",
		RunE:  showStats,
	}
	addCLIFlags(statsCmd)
	statsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show cumulative study stats",
		RunE:  showStats,
	}, &cobra.Command{
		Use:   "reset",
		Short: "Reset cumulative study stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				st, err := a.StatsService.Reset(ctx, cliEnv.profile)
				if err != nil {
					return err
				}
				printStats(cmd, st)
				return nil
			})
		},
	})

	var studyKind, studySource string
	studyCmd := &cobra.Command{
		Use:   "study [--kind note|recording] [--source id]",
		Short: "Run an interactive flashcard session // 终端闪卡学习",
		Long: `Each card shows its question; press Enter to reveal the answer.
Answer keys: y correct, n incorrect, s skip, b back, r restart, q quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				filter := service.CardFilter{Kind: domain.SourceKind(studyKind), SourceID: studySource}
				return runStudy(ctx, cmd, a.StudyService, filter)
			})
		},
	}
	addCLIFlags(studyCmd)
	studyCmd.Flags().StringVar(&studyKind, "kind", "", "only cards of this source kind")
	studyCmd.Flags().StringVar(&studySource, "source", "", "only cards of this source id")

	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "List the review timeline // 查看复习时间线",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				list, err := a.TimelineService.List(ctx, cliEnv.profile)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tWHEN\tLABEL\tNOTIFIED")
				for _, e := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", e.ID, e.When.Local().Format("2006-01-02 15:04"), e.Label, e.Notified)
				}
				return tw.Flush()
			})
		},
	}
	addCLIFlags(timelineCmd)

	var in struct {
		when, label, email, recording, goal string
		demo                                bool
	}
	timelineAddCmd := &cobra.Command{
		Use:   "add --when <date>",
		Short: "Add a timeline entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := util.ParseDate(in.when, time.Local)
			if err != nil {
				return errors.Wrap(err, "--when")
			}
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				e, err := a.TimelineService.Add(ctx, cliEnv.profile, service.TimelineInput{
					When: when, Label: in.label, RecordingID: in.recording, Email: in.email,
				})
				if err != nil {
					return err
				}
				printf(cmd, "added %s at %s\n", e.ID, e.When.Local().Format(time.RFC3339))
				return nil
			})
		},
	}
	timelineAddCmd.Flags().StringVar(&in.when, "when", "", "YYYY-MM-DD or RFC3339")
	_ = timelineAddCmd.MarkFlagRequired("when")

	timelineReviewCmd := &cobra.Command{
		Use:   "review [--goal YYYY-MM-DD | --demo]",
		Short: "Schedule the next review from a goal date",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.ReviewRequest{Label: in.label, RecordingID: in.recording, Email: in.email, Demo: in.demo}
			if in.goal != "" {
				goal, err := util.ParseDate(in.goal, time.Local)
				if err != nil {
					return errors.Wrap(err, "--goal")
				}
				req.GoalDate = &goal
			}
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				e, err := a.TimelineService.ScheduleReview(ctx, cliEnv.profile, req)
				if err != nil {
					return err
				}
				printf(cmd, "next review %s at %s\n", e.ID, e.When.Local().Format(time.RFC3339))
				return nil
			})
		},
	}
	timelineReviewCmd.Flags().StringVar(&in.goal, "goal", "", "exam or goal date")
	timelineReviewCmd.Flags().BoolVar(&in.demo, "demo", false, "schedule a short demo delay instead")

	for _, c := range []*cobra.Command{timelineAddCmd, timelineReviewCmd} {
		c.Flags().StringVar(&in.label, "label", "", `entry label, defaults to "Review"`)
		c.Flags().StringVar(&in.email, "email", "", "reminder address for this entry")
		c.Flags().StringVar(&in.recording, "recording", "", "linked backend recording id")
	}

	timelineDoneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete and remove a timeline entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
				return a.TimelineService.Done(ctx, cliEnv.profile, args[0])
			})
		},
	}
	timelineCmd.AddCommand(timelineAddCmd, timelineReviewCmd, timelineDoneCmd)

	rootCmd.AddCommand(deckCmd, statsCmd, studyCmd, timelineCmd)
}

// runStudy 在终端中驱动一次学习会话，输入取自 cmd 的 stdin
func runStudy(ctx context.Context, cmd *cobra.Command, svc service.StudyService, filter service.CardFilter) error {
	v, err := svc.Start(ctx, cliEnv.profile, filter)
	if err != nil {
		return err
	}
	defer func() { _ = svc.End(context.WithoutCancel(ctx), cliEnv.profile, v.ID) }()

	in := bufio.NewScanner(cmd.InOrStdin())
	read := func() (string, bool) {
		if !in.Scan() {
			return "", false
		}
		return strings.ToLower(strings.TrimSpace(in.Text())), true
	}

	id := v.ID
	for v.State != study.Finished {
		switch v.State {
		case study.ShowingQuestion:
			printf(cmd, "\n[%d/%d] Q: %s\n", v.Index+1, v.Total, v.Card.Question)
			if _, ok := read(); !ok {
				return nil
			}
			v, err = svc.Flip(ctx, cliEnv.profile, id)
		case study.ShowingAnswer:
			printf(cmd, "A: %s\n(y/n/s/b/r/q) ", v.Card.Answer)
			key, ok := read()
			if !ok || key == "q" {
				printStats(cmd, v.Cumulative)
				return nil
			}
			switch key {
			case "y", "n":
				v, err = svc.Answer(ctx, cliEnv.profile, id, key == "y")
			case "s":
				v, err = svc.Next(ctx, cliEnv.profile, id)
			case "b":
				v, err = svc.Back(ctx, cliEnv.profile, id)
			case "r":
				v, err = svc.Reset(ctx, cliEnv.profile, id)
			default:
				continue
			}
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}

	printf(cmd, "\nsession: %d/%d correct\n", v.Session.Correct, v.Session.TotalAnswered)
	printStats(cmd, v.Cumulative)
	return nil
}

func printStats(cmd *cobra.Command, st domain.StudyStats) {
	printf(cmd, "correct: %d\nincorrect: %d\ntotal: %d\naccuracy: %d%%\n",
		st.Correct, st.Incorrect, st.TotalAnswered, st.Accuracy)
}
