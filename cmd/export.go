package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/export"
	"github.com/Tiliavir/shift-tracker/internal/report"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	exportCompany string
	exportAll     bool
	exportMonth   string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a company's monthly hours to a spreadsheet",
	Long: `Export a company's monthly hours to an XLSX workbook. By default the
file is written to <data_dir>/exports/<company>_<Month>.xlsx.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportCompany, "company", "", "Company to export")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every company in the catalog")
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Month to export (YYYY-MM, default this month)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (single company only)")
	exportCmd.MarkFlagsMutuallyExclusive("company", "all")
	exportCmd.MarkFlagsOneRequired("company", "all")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	now := timecalc.Trim(time.Now())

	month := exportMonth
	if month == "" {
		month = currentPeriod
	}
	p, err := reportPeriod(now, "", "", month)
	if err != nil {
		return err
	}

	companies := []string{exportCompany}
	if exportAll {
		if exportOut != "" {
			return usagef("--out cannot be combined with --all")
		}
		c, err := app.svc.Catalog(ctx)
		if err != nil {
			return err
		}
		companies = catalogCompanies(c.Locations(), c.Companies)
	}

	for _, company := range companies {
		rep, err := app.svc.Report(ctx, company, report.Options{From: p.from, To: p.to})
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = exportPath(app.dataDir, company, p.from)
		}
		if err := writeWorkbook(path, rep, fmt.Sprintf("%s – %s", company, p.label)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Excel report created: %s\n", path)
	}
	return nil
}

// catalogCompanies returns every company listed at any location, sorted.
func catalogCompanies(locations []string, companiesAt func(string) ([]string, error)) []string {
	seen := map[string]bool{}
	var out []string
	for _, loc := range locations {
		cs, err := companiesAt(loc)
		if err != nil {
			continue
		}
		for _, c := range cs {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// exportPath is <dataDir>/exports/<company>_<Month>.xlsx with path
// separators in the company name replaced.
func exportPath(dataDir, company string, month time.Time) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(company)
	return filepath.Join(dataDir, "exports", fmt.Sprintf("%s_%s.xlsx", safe, month.Format("January")))
}

func writeWorkbook(path string, rep report.Report, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := export.XLSX(f, rep, title); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
