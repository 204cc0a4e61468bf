package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/infra/mediatype"
	"github.com/mkrupp/mediagate/internal/infra/probe"
	"github.com/mkrupp/mediagate/internal/svc/admissionsvc"
)

// errBlocked signals that at least one file was rejected.
var errBlocked = errors.New("files blocked")

type checkOptions struct {
	policyPath string
	workers    int
	ffprobe    string
	timeout    time.Duration
	json       bool
}

type checkReport struct {
	Policy domain.ValidationPolicy `json:"policy"`
	Files  []checkReportFile       `json:"files"`
}

type checkReportFile struct {
	domain.MediaFileMeta

	Path    string `json:"path"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Decide which files an upload batch would admit",
		Long: "Reads every file, detects its MIME type from the content and probes videos with ffprobe.\n" +
			"Exits with status 1 when any file is blocked.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.policyPath, "policy", "p", "", "TOML policy file (max_video_width, max_video_height, block_on_video_meta_fail)")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Number of files probed concurrently (default from env, 1)")
	flags.StringVar(&opts.ffprobe, "ffprobe", "", "Path to the ffprobe binary (default from env, ffprobe)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Timeout per probe (default from env, 30s)")
	flags.BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

//nolint:funlen
func runCheck(cmd *cobra.Command, ctx *commandContext, opts checkOptions, paths []string) (err error) {
	log := logging.GetLogger("cmd.mediagate.check")

	admissionCfg := ctx.cfg.Admission
	ffprobeCfg := ctx.cfg.FFprobe

	if cmd.Flags().Changed("workers") {
		admissionCfg.Workers = opts.workers
	}

	if cmd.Flags().Changed("timeout") {
		admissionCfg.ProbeTimeout = opts.timeout
	}

	if opts.ffprobe != "" {
		ffprobeCfg.Binary = opts.ffprobe
	}

	policy := admissionCfg.Policy()

	if opts.policyPath != "" {
		if policy, err = loadPolicy(opts.policyPath, policy); err != nil {
			return err
		}
	} else if err := policy.Validate(); err != nil {
		return fmt.Errorf("validate policy: %w", err)
	}

	files, err := readFiles(paths)
	if err != nil {
		return err
	}

	prober := probe.NewFFprobeProber(ffprobeCfg)
	if err := prober.Preflight(); err != nil {
		log.WarnContext(cmd.Context(), "ffprobe preflight failed, videos will fail to probe", "error", err)
	}

	svc := admissionsvc.NewBatchAdmissionService(prober, admissionCfg)

	decisions, err := svc.Decide(cmd.Context(), files, policy)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	report := checkReport{Policy: policy, Files: make([]checkReportFile, len(decisions))}
	for i, decision := range decisions {
		report.Files[i] = checkReportFile{
			MediaFileMeta: decision.File.Meta(),
			Path:          paths[i],
			Allowed:       decision.Allowed,
			Reason:        decision.Reason,
		}
	}

	if opts.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
	}

	if _, blocked := domain.CountDecisions(decisions); blocked > 0 {
		return errBlocked
	}

	return nil
}

func readFiles(paths []string) ([]domain.MediaFile, error) {
	files := make([]domain.MediaFile, 0, len(paths))

	var errs []error

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read file: %w", err))

			continue
		}

		mimeType := mediatype.Detect("", data)
		if mimeType == mediatype.OctetStream {
			if byExt := mediatype.FromFilename(path); byExt != "" {
				mimeType = byExt
			}
		}

		files = append(files, domain.NewMediaFile(filepath.Base(path), mimeType, data))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return files, nil
}

func renderReport(report checkReport) string {
	rows := make([][]string, 0, len(report.Files))

	for _, file := range report.Files {
		verdict := "allowed"
		if !file.Allowed {
			verdict = "blocked"
		}

		rows = append(rows, []string{
			file.Path,
			file.MIMEType,
			humanize.Bytes(uint64(file.Size)),
			verdict,
			file.Reason,
		})
	}

	return renderTable(
		[]string{"File", "Type", "Size", "Verdict", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
