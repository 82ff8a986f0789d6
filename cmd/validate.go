package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bigaward-cli/internal/gate"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/validation"
)

var (
	validateAwardID string
	validateFormat  string
)

var validateCmd = &cobra.Command{
	Use:   "validate <payloads.json>",
	Short: "Validate a payloads file offline and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := judgeFile(newGate(cfg, validation.DefaultRegistry()), args[0], validateAwardID)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), resp, validateFormat)
	},
}

// judgeFile validates the JSON payloads at path. An empty awardID falls back
// to the first company's id.
func judgeFile(engine *gate.Engine, path, awardID string) (validateResponse, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return validateResponse{}, eris.Wrap(err, "validate: read payloads")
	}
	var p model.Payloads
	if err := json.Unmarshal(b, &p); err != nil {
		return validateResponse{}, eris.Wrap(err, "validate: decode payloads")
	}
	if awardID == "" && len(p.Company) > 0 {
		awardID = p.Company[0].BigAwardID
	}
	v := engine.Judge(awardID, &p)
	return validateResponse{Accepted: v.Accepted, Report: v.Report}, nil
}

func writeReport(w io.Writer, resp validateResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resp), "validate: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "validate: encode yaml")
		}
		return eris.Wrap(enc.Close(), "validate: encode yaml")
	}
	return eris.Errorf("validate: unknown format %q", format)
}

func init() {
	validateCmd.Flags().StringVar(&validateAwardID, "award-id", "", "award id for the report (default: first company's)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(validateCmd)
}
