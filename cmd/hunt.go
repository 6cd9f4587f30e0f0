package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/posso-labs/leadscout/internal/export"
	"github.com/posso-labs/leadscout/internal/model"
	"github.com/posso-labs/leadscout/internal/outreach"
	"github.com/posso-labs/leadscout/internal/quota"
	"github.com/posso-labs/leadscout/internal/scout"
	"github.com/posso-labs/leadscout/internal/workspace"
	"github.com/posso-labs/leadscout/pkg/gemini"
	"github.com/posso-labs/leadscout/pkg/postcodes"
)

var (
	huntRegion string
	huntTerm   string
	huntEnrich bool
	huntXLSX   bool
	huntOutDir string
)

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Run a full scouting pass and export the results",
	Long:  "Discovers the sub-areas of a region, searches each one for the given business category, optionally enriches every lead, and writes CSV or XLSX exports plus an SMS list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("hunt"); err != nil {
			return err
		}

		ctx := cmd.Context()

		svc, err := gemini.NewClient(ctx, cfg.Gemini.Key,
			gemini.WithEnumerateModel(cfg.Gemini.EnumerateModel),
			gemini.WithSearchModel(cfg.Gemini.SearchModel),
			gemini.WithReasonModel(cfg.Gemini.ReasonModel),
			gemini.WithRateLimit(cfg.Gemini.RateLimit),
		)
		if err != nil {
			return err
		}

		ws := workspace.New()
		guard := quota.NewGuard(cfg.Quota.WarnThreshold, cfg.Quota.HardCap)
		sc := scout.New(ws, svc, guard,
			scout.WithSearchDelay(cfg.Scout.SearchDelay()),
			scout.WithEnrichDelay(cfg.Scout.EnrichDelay()),
			scout.WithLocation(resolveLocation(ctx, huntRegion)),
		)

		if err := sc.DiscoverAreas(ctx, huntRegion); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ws.Status())

		added, err := sc.SearchAllAreas(ctx, huntTerm)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ws.Status())

		if huntEnrich && added > 0 {
			if err := sc.EnrichAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ws.Status())
		}

		if guard.Warning() {
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: %d of %d session requests used.\n", guard.Used(), guard.Cap())
		}

		return writeExports(cmd, ws.Leads(workspace.FilterAll))
	},
}

func init() {
	huntCmd.Flags().StringVar(&huntRegion, "region", "", "UK city or county to scout (required)")
	huntCmd.Flags().StringVar(&huntTerm, "term", "", "business category to search for (required)")
	huntCmd.Flags().BoolVar(&huntEnrich, "enrich", false, "enrich every lead after searching")
	huntCmd.Flags().BoolVar(&huntXLSX, "xlsx", false, "write the lead sheet as XLSX instead of CSV")
	huntCmd.Flags().StringVar(&huntOutDir, "out", ".", "output directory for exports")
	_ = huntCmd.MarkFlagRequired("region")
	_ = huntCmd.MarkFlagRequired("term")
	rootCmd.AddCommand(huntCmd)
}

// resolveLocation looks up the region's coordinates to bias the Maps
// grounding. Best effort: a failed lookup just means unbiased searches.
func resolveLocation(ctx context.Context, region string) *gemini.Coordinate {
	place, err := postcodes.NewClient().ResolvePlace(ctx, region)
	if err != nil {
		zap.L().Warn("place lookup failed, searching without location bias",
			zap.String("region", region), zap.Error(err))
		return nil
	}
	return &gemini.Coordinate{Lat: place.Latitude, Lng: place.Longitude}
}

func writeExports(cmd *cobra.Command, leads []model.Lead) error {
	if len(leads) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No leads to export.")
		return nil
	}

	name := "leads.csv"
	write := export.WriteLeadsCSV
	if huntXLSX {
		name = "leads.xlsx"
		write = export.WriteLeadsXLSX
	}

	if err := writeExportFile(filepath.Join(huntOutDir, name), leads, write); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filepath.Join(huntOutDir, name))

	if mobile := export.MobileLeads(leads); len(mobile) > 0 {
		smsPath := filepath.Join(huntOutDir, "sms.csv")
		if err := writeExportFile(smsPath, leads, export.WriteSMSCSV); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d numbers)\n", smsPath, len(outreach.MobileNumbers(mobile)))
	}

	return nil
}

func writeExportFile(path string, leads []model.Lead, write func(w io.Writer, leads []model.Lead) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f, leads)
}
