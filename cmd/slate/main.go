// cmd/slate/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"slate/internal/config"
	"slate/internal/index"
	"slate/internal/logging"
	"slate/internal/repo"
	"slate/internal/vcserr"
	"slate/internal/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "slate",
	Short: "Slate is a local snapshot-based version store",
	Long: `Slate tracks file content over time through a staging area, immutable
commit snapshots, named branches and per-branch history, with a
conflict-detecting two-way merge between branches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Slate repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			if err := repo.Init(dir); err != nil {
				return report(err)
			}

			fmt.Printf("Initialized empty Slate repository in %s/\n", config.RepoDir)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add <path>",
		Short: "Stage a file or directory for the next commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			result, err := r.Index.Stage(args[0])
			if err != nil {
				return report(err)
			}

			if result.Empty() {
				if len(result.Skipped) > 0 {
					fmt.Printf("'%s' is already staged.\n", args[0])
				} else {
					fmt.Println("Nothing to add.")
				}
				return nil
			}

			for _, path := range result.Added {
				fmt.Printf("Added '%s' to staging area.\n", path)
			}
			for _, path := range result.Updated {
				fmt.Printf("Updated '%s' in staging area.\n", path)
			}
			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit <message>",
		Short: "Snapshot the staged files as a new commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			result, err := r.Commit(strings.Join(args, " "))
			if err != nil {
				return report(err)
			}

			fmt.Printf("Committed as %s: %s\n", result.ID, strings.Join(args, " "))
			if len(result.Failed) > 0 {
				red := color.New(color.FgRed).SprintFunc()
				fmt.Println("Some staged files vanished and were not committed:")
				for _, path := range result.Failed {
					fmt.Printf("\t%s %s\n", red("!"), path)
				}
			}
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show the current branch's commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			records, err := r.Log()
			if err != nil {
				return report(err)
			}
			if len(records) == 0 {
				fmt.Println("No commits yet.")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for i := len(records) - 1; i >= 0; i-- {
				rec := records[i]
				fmt.Printf("\nCommit: %s\n", yellow(rec.ID))
				fmt.Printf("Date: %s\n", rec.Timestamp.Format("2006-01-02 15:04:05"))
				fmt.Printf("Message: %s\n", rec.Message)
				fmt.Println("Files:")
				for _, file := range rec.Files {
					fmt.Printf("  - %s\n", file)
				}
			}
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show staged files and their working-tree state",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			statuses, err := r.Status()
			if err != nil {
				return report(err)
			}
			if len(statuses) == 0 {
				fmt.Println("No files staged.")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("Staged files:")
			for _, s := range statuses {
				switch s.State {
				case index.Modified:
					fmt.Printf("\t%s %s (modified)\n", yellow("M"), s.Path)
				case index.Deleted:
					fmt.Printf("\t%s %s (deleted)\n", red("D"), s.Path)
				default:
					fmt.Printf("\t%s %s (unchanged)\n", green("="), s.Path)
				}
			}
			return nil
		},
	}

	var removeCmd = &cobra.Command{
		Use:   "remove <path|.>",
		Short: "Unstage a file, or everything with '.'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			removed, err := r.Index.Unstage(args[0])
			if err != nil {
				return report(err)
			}
			if !removed {
				fmt.Printf("'%s' is not staged.\n", args[0])
				return nil
			}
			if args[0] == "." {
				fmt.Println("Cleared the staging area.")
			} else {
				fmt.Printf("Removed '%s' from staging area.\n", args[0])
			}
			return nil
		},
	}

	var diffCmd = &cobra.Command{
		Use:   "diff <path>",
		Short: "Compare a staged file against its committed baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			result, rel, err := r.Diff(args[0])
			if err != nil {
				return report(err)
			}
			if result.Empty() {
				fmt.Printf("No differences in '%s'.\n", rel)
				return nil
			}

			printColoredDiff(result.Format(rel))
			return nil
		},
	}

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <commit-id> [path]",
		Short: "Restore files from a commit snapshot",
		Long: `With a path, restores that single file from the commit and leaves HEAD
unchanged. Without one, replaces the whole working tree with the snapshot
and detaches HEAD at the commit.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			commitID := args[0]
			path := ""
			if len(args) == 2 {
				path = args[1]
			}

			if err := r.Checkout(commitID, path); err != nil {
				return report(err)
			}

			if path != "" {
				fmt.Printf("Restored '%s' from commit %s.\n", path, commitID)
			} else {
				fmt.Printf("Checked out commit %s (HEAD detached).\n", commitID)
			}
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a branch at the current HEAD commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			if err := r.CreateBranch(args[0]); err != nil {
				return report(err)
			}
			fmt.Printf("Created branch '%s'.\n", args[0])
			return nil
		},
	}

	var checkoutBranchCmd = &cobra.Command{
		Use:   "checkout-branch <name>",
		Short: "Switch to a branch, replacing the working tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			if err := r.SwitchBranch(args[0]); err != nil {
				return report(err)
			}
			fmt.Printf("Switched to branch '%s'.\n", args[0])
			return nil
		},
	}

	var listBranchesCmd = &cobra.Command{
		Use:   "list-branches",
		Short: "List all branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			names, current, err := r.Branches()
			if err != nil {
				return report(err)
			}

			green := color.New(color.FgGreen).SprintFunc()
			for _, name := range names {
				if name == current {
					fmt.Printf("* %s\n", green(name))
				} else {
					fmt.Printf("  %s\n", name)
				}
			}
			return nil
		},
	}

	var mergeCmd = &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch's latest snapshot into the working tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			result, err := r.Merge(args[0])
			if err != nil {
				return report(err)
			}

			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			for _, path := range result.Merged {
				fmt.Printf("\t%s %s\n", green("+"), path)
			}
			for _, path := range result.Conflicts {
				fmt.Printf("\t%s %s (see %s.conflict)\n", red("C"), path, path)
			}

			switch {
			case len(result.Conflicts) > 0:
				fmt.Printf("Merge of '%s' produced %d conflict(s); resolve and commit manually.\n",
					args[0], len(result.Conflicts))
			case result.CommitID != "":
				fmt.Printf("Merged branch '%s' as commit %s.\n", args[0], result.CommitID)
			default:
				fmt.Printf("Already up to date with '%s'.\n", args[0])
			}
			return nil
		},
	}

	var archiveCmd = &cobra.Command{
		Use:   "archive <commit-id> <output>",
		Short: "Export a commit snapshot as a zstd-compressed tarball",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[1], err)
			}
			defer out.Close()

			if err := r.Archive(args[0], out); err != nil {
				return report(err)
			}
			fmt.Printf("Archived commit %s to %s.\n", args[0], args[1])
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-stage staged files automatically as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := r.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return report(err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(checkoutBranchCmd)
	rootCmd.AddCommand(listBranchesCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(watchCmd)
}

// openRepo locates and loads the enclosing repository. A missing repository
// is the one fatal condition: the returned error makes the process exit
// non-zero.
func openRepo() (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	logger, err := buildLogger(cwd)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r, err := repo.Open(cwd, logger)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func buildLogger(cwd string) (*zap.Logger, error) {
	level := "warn"
	if root, err := workspace.FindRoot(cwd); err == nil {
		if cfg, err := config.Load(config.NewLayout(root).ConfigFile()); err == nil {
			level = cfg.LogLevel
		}
	}
	return logging.New(level)
}

// report prints recoverable failures and swallows them so the process exits
// zero, matching the reference's lenient behavior. Anything outside the
// taxonomy propagates.
func report(err error) error {
	var verr *vcserr.Error
	if errors.As(err, &verr) {
		fmt.Println(verr.Message)
		return nil
	}
	fmt.Println(err)
	return nil
}

func printColoredDiff(formatted string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, line := range strings.Split(formatted, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
