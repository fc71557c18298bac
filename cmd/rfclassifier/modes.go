package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

var modesHeader = []string{"zone", "cavity", "deployment", "mode", "recorded_at"}

func newModesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "Manage the cavity control-mode history",
	}
	cmd.AddCommand(newModesImportCmd())
	return cmd
}

func newModesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load control-mode samples from a CSV export",
		Long: `Load control-mode samples from a CSV file with the header
zone,cavity,deployment,mode,recorded_at. recorded_at is site wall-clock time,
"YYYY-MM-DD HH:MM:SS" with optional fractional seconds. Use - for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			modes, err := parseModes(in)
			if err != nil {
				return err
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pool, st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := st.RecordCavityModes(cmd.Context(), modes); err != nil {
				return err
			}
			log.Info("cavity modes imported", zap.Int("samples", len(modes)), zap.String("file", args[0]))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d samples\n", len(modes))
			return err
		},
	}
}

// parseModes reads a control-mode CSV export. Rows are validated in full
// before anything is written.
func parseModes(r io.Reader) ([]models.CavityMode, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(modesHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty mode file")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, col := range modesHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != col {
			return nil, fmt.Errorf("unexpected header %q: want %s", strings.Join(header, ","), strings.Join(modesHeader, ","))
		}
	}

	var out []models.CavityMode
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		m, err := parseModeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, errors.New("mode file has no samples")
	}
	return out, nil
}

func parseModeRow(rec []string) (models.CavityMode, error) {
	cavity, err := strconv.Atoi(rec[1])
	if err != nil || cavity < 1 || cavity > 8 {
		return models.CavityMode{}, fmt.Errorf("invalid cavity %q", rec[1])
	}
	deployment := rec[2]
	if deployment != models.DeploymentOps && deployment != models.DeploymentHistory {
		return models.CavityMode{}, fmt.Errorf("invalid deployment %q: must be ops or history", deployment)
	}
	mode, err := strconv.Atoi(rec[3])
	if err != nil {
		return models.CavityMode{}, fmt.Errorf("invalid mode %q", rec[3])
	}
	at, err := time.Parse(time.DateTime, rec[4])
	if err != nil {
		return models.CavityMode{}, fmt.Errorf("invalid recorded_at %q: %w", rec[4], err)
	}
	if rec[0] == "" {
		return models.CavityMode{}, errors.New("zone is required")
	}
	return models.CavityMode{
		Zone:       rec[0],
		Cavity:     cavity,
		Deployment: deployment,
		Mode:       mode,
		RecordedAt: at,
	}, nil
}
