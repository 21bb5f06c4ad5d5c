package main

import (
	"errors"
	"strings"

	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/scenario"
	"github.com/spf13/cobra"
)

type scenarioView struct {
	ID       string   `json:"id" yaml:"id"`
	Story    string   `json:"story" yaml:"story"`
	Severity string   `json:"severity" yaml:"severity"`
	Required []string `json:"required" yaml:"required"`
	Missing  []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Invalid  []string `json:"invalid,omitempty" yaml:"invalid,omitempty"`
}

func newListCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
			if err != nil {
				return err
			}

			var src envconfig.Source
			if check {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				src = cfg.Source
			}

			var views []scenarioView
			for _, sc := range scenario.Catalog() {
				v := scenarioView{ID: sc.ID, Story: sc.Story, Severity: sc.Severity, Required: sc.Required}
				if src != nil {
					v.Missing, v.Invalid = checkKeys(src, sc.Required, sc.Optional)
				}
				views = append(views, v)
			}

			headers := []string{"ID", "SEVERITY", "STORY"}
			if check {
				headers = append(headers, "READY")
			}
			return out.print(views, headers, func() [][]string {
				var rows [][]string
				for _, v := range views {
					row := []string{v.ID, v.Severity, v.Story}
					if check {
						row = append(row, readiness(v))
					}
					rows = append(rows, row)
				}
				return rows
			})
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "validate each scenario's configuration keys")
	return cmd
}

// checkKeys returns the missing and malformed keys for a scenario.
func checkKeys(src envconfig.Source, required, optional []string) (missing, invalid []string) {
	_, err := envconfig.Validate(src, required, optional...)
	if err == nil {
		return nil, nil
	}
	var mErr *envconfig.MissingConfigError
	if errors.As(err, &mErr) {
		return mErr.Keys, nil
	}
	for _, v := range envconfig.ValidationErrors(err) {
		invalid = append(invalid, v.Error())
	}
	if len(invalid) == 0 {
		invalid = []string{err.Error()}
	}
	return nil, invalid
}

func readiness(v scenarioView) string {
	switch {
	case len(v.Missing) > 0:
		return "missing " + strings.Join(v.Missing, ", ")
	case len(v.Invalid) > 0:
		return "invalid: " + truncate(strings.Join(v.Invalid, "; "), 60)
	default:
		return "yes"
	}
}
