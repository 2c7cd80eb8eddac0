package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/scheme"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
)

// wheelReport is the inspect output.
type wheelReport struct {
	Name          string       `yaml:"name"`
	Version       string       `yaml:"version"`
	Tags          []string     `yaml:"tags"`
	WheelVersion  string       `yaml:"wheel_version,omitempty"`
	RootIsPurelib bool         `yaml:"root_is_purelib"`
	DistInfo      string       `yaml:"dist_info"`
	Data          string       `yaml:"data"`
	Files         []fileReport `yaml:"files"`
}

type fileReport struct {
	Source      string `yaml:"source"`
	Scheme      string `yaml:"scheme"`
	Destination string `yaml:"destination"`
	Hash        string `yaml:"hash,omitempty"`
	Size        string `yaml:"size,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect <wheel>",
		Short: "Show where each file of a wheel would be installed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := inspectWheel(args[0])
			if err != nil {
				return err
			}
			switch format {
			case "text":
				return writeTextReport(cmd.OutOrStdout(), report)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or yaml")
	return cmd
}

func inspectWheel(path string) (*wheelReport, error) {
	w, err := wheel.Open(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	report := &wheelReport{
		Name:     w.Name(),
		Version:  w.Version(),
		DistInfo: w.DistInfoName(),
		Data:     w.DataName(),
	}
	for _, t := range w.Tags() {
		report.Tags = append(report.Tags, t.String())
	}
	if w.Has(w.DistInfoName() + "/WHEEL") {
		major, minor, err := w.WheelVersion()
		if err != nil {
			return nil, err
		}
		report.WheelVersion = fmt.Sprintf("%d.%d", major, minor)
	}

	pure, err := w.RootIsPurelib()
	if err != nil {
		return nil, err
	}
	report.RootIsPurelib = pure

	manifest, err := w.Manifest()
	if err != nil {
		return nil, err
	}
	decisions, err := scheme.NewResolver(w.DataName(), scheme.Root(pure), manifest).DecideAll(w.Files())
	if err != nil {
		return nil, err
	}
	for _, d := range decisions {
		f := fileReport{Source: d.Source, Scheme: d.Scheme.String(), Destination: d.Path}
		if d.Entry != nil {
			f.Hash = d.Entry.HashValue()
			f.Size = d.Entry.SizeValue()
		}
		report.Files = append(report.Files, f)
	}
	return report, nil
}

func writeTextReport(w io.Writer, r *wheelReport) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", r.Name, r.Version)
	fmt.Fprintf(&sb, "  tags:            %s\n", strings.Join(r.Tags, ", "))
	if r.WheelVersion != "" {
		fmt.Fprintf(&sb, "  wheel version:   %s\n", r.WheelVersion)
	}
	fmt.Fprintf(&sb, "  root is purelib: %t\n", r.RootIsPurelib)
	fmt.Fprintf(&sb, "  files:           %d\n\n", len(r.Files))
	for _, f := range r.Files {
		marker := " "
		if f.Hash == "" {
			marker = "!"
		}
		fmt.Fprintf(&sb, "%s %-8s %s\n", marker, f.Scheme, f.Destination)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
