package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
)

var (
	colorOK      = color.New(color.FgGreen, color.Bold)
	colorFailed  = color.New(color.FgRed, color.Bold)
	colorMuted   = color.New(color.FgHiBlack)
	colorHeading = color.New(color.Bold)
)

func statusColor(s model.TaskStatus) *color.Color {
	switch s {
	case model.TaskStatusDone:
		return colorOK
	case model.TaskStatusFailed:
		return colorFailed
	default:
		return colorMuted
	}
}

// printReport writes a human readable summary of a release run
func printReport(w io.Writer, r *model.RunReport) error {
	version := r.Version.String()
	if version == "" {
		version = "(unresolved)"
	}

	if r.Err == nil {
		if _, err := colorOK.Fprintf(w, "Released %s\n", version); err != nil {
			return err
		}
	} else {
		if _, err := colorFailed.Fprintf(w, "Release failed: %s\n", r.Kind); err != nil {
			return err
		}
	}

	rows := [][2]string{
		{"run", r.ID},
		{"flavor", string(r.Flavor)},
		{"version", version},
		{"branch", r.ReleaseBranch.Name},
		{"tag", r.Tag},
		{"pushed", fmt.Sprintf("%t", r.Pushed)},
	}
	if r.Err != nil {
		rows = append(rows,
			[2]string{"failed task", string(r.FailedTask)},
			[2]string{"last completed", string(r.LastCompleted)},
			[2]string{"checked out", r.CurrentBranch},
		)
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-15s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}

	if _, err := colorHeading.Fprintln(w, "Tasks"); err != nil {
		return err
	}
	for _, t := range r.Tasks {
		if _, err := fmt.Fprintf(w, "  %-15s %s\n", t.Name, statusColor(t.Status).Sprint(t.Status)); err != nil {
			return err
		}
	}
	return nil
}

// printPlan writes the task order of a release that has not run yet
func printPlan(w io.Writer, cfg model.ReleaseConfig, order []model.TaskName) error {
	version := cfg.VersionNumber
	if version == "" {
		version = "(from commit history)"
	}

	if _, err := colorHeading.Fprintf(w, "%s release of %s, version %s\n",
		cfg.Flavor(), cfg.SourceBranch(), version); err != nil {
		return err
	}
	for i, name := range order {
		line := fmt.Sprintf("  %2d. %s", i+1, name)
		if name == model.TaskPush && !cfg.Push {
			line += colorMuted.Sprint(" (disabled)")
		}
		if name == model.TaskPullSource && cfg.SkipPull {
			line += colorMuted.Sprint(" (skipped)")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
