package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmryasin/compval/internal/model"
	"github.com/dmryasin/compval/internal/report"
)

var (
	appraiseSubject string
	appraiseOut     string
)

var appraiseCmd = &cobra.Command{
	Use:   "appraise <source>...",
	Short: "Appraise a property from comparable sale sources",
	Long:  "Extracts each comparable source (listing screenshot, photo, or PDF), derives unit prices, and reconciles the statistical aggregation with the narrative comparison into a valuation report.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		subject := model.Subject{}
		if appraiseSubject != "" {
			s, err := model.LoadSubject(appraiseSubject)
			if err != nil {
				return err
			}
			subject = s
		}

		engine, tracker, err := initEngine()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, subject, args)
		if err != nil {
			return err
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			return err
		}

		progress := func(done, total int, item model.Comparable) {
			status := "ok"
			if item.Failed() {
				status = "failed"
			}
			fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", done, total, item.SourcePath, status)
		}

		result, err := engine.Appraise(ctx, subject, args, progress)
		if err != nil {
			if failErr := st.FailRun(ctx, run.ID, err.Error()); failErr != nil {
				zap.L().Warn("could not record run failure", zap.Error(failErr))
			}
			return eris.Wrap(err, "appraise")
		}

		if err := st.CompleteRun(ctx, run.ID, result); err != nil {
			return err
		}

		renderer := report.NewRenderer(cfg.Report.Locale)
		fmt.Print(renderer.Text(subject, result))

		outDir := appraiseOut
		if outDir == "" {
			outDir = cfg.Report.OutDir
		}
		if err := writeArtifacts(outDir, run.ID, renderer, subject, result); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "\nrun %s complete (%d API calls, $%.4f)\n",
			run.ID, tracker.Calls(), tracker.Total())
		return nil
	},
}

// writeArtifacts drops the JSON result and the XLSX appendix next to each
// other, named by run ID.
func writeArtifacts(dir, runID string, renderer *report.Renderer, subject model.Subject, result *model.AppraisalResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create output dir %s", dir)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	jsonPath := filepath.Join(dir, runID+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", jsonPath)
	}

	xlsxPath := filepath.Join(dir, runID+".xlsx")
	if err := renderer.WriteXLSX(xlsxPath, subject, result); err != nil {
		return err
	}

	zap.L().Info("artifacts written",
		zap.String("json", jsonPath),
		zap.String("xlsx", xlsxPath),
	)
	return nil
}

func init() {
	appraiseCmd.Flags().StringVar(&appraiseSubject, "subject", "", "subject property YAML file")
	appraiseCmd.Flags().StringVar(&appraiseOut, "out", "", "artifact output directory (default from config)")
	rootCmd.AddCommand(appraiseCmd)
}
