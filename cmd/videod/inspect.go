package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"videod/internal/catalog"
	"videod/internal/hardware"
	"videod/internal/store"
)

func buildModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Probe the host and list model variants that fit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)
			prober := hardware.NewProber(log)
			resp := catalog.Default().Available(cmd.Context(), prober)

			fmt.Printf("Device: %s", resp.Device)
			if resp.VRAMGB != nil {
				fmt.Printf(" (vram %.1f GB)", *resp.VRAMGB)
			} else if resp.RAMGB != nil {
				fmt.Printf(" (ram %.1f GB)", *resp.RAMGB)
			}
			fmt.Println()

			if len(resp.Models) == 0 {
				fmt.Println("No model variant fits this host.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  ID\tPRECISION\tMIN MEM\tUPSTREAM")
			for _, m := range resp.Models {
				marker := " "
				if m.Recommended {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%.0f GB\t%s\n", marker, m.ID, m.Precision, m.MinMemGB, m.UpstreamID)
			}
			return tw.Flush()
		},
	}
}

func buildGenerationsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "generations",
		Short: "List recent generation records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			gens, err := st.ListGenerations(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(gens) == 0 {
				fmt.Println("No generations recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tSTATUS\tMODEL\tTIME\tFILE\tPROMPT")
			for _, g := range gens {
				when := time.Unix(g.CreatedAt, 0).Format("2006-01-02 15:04")
				prompt := truncateRunes(g.Prompt, 48)
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0fs\t%s\t%s\n",
					g.ID, when, g.Status, g.Model, g.GenerationTime, g.Filename, prompt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to list")
	return cmd
}

func buildLoRAsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "loras",
		Short: "List registered LoRA adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			loras, err := st.ListLoRAs(cmd.Context())
			if err != nil {
				return err
			}
			if len(loras) == 0 {
				fmt.Println("No LoRAs registered.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tNAME")
			for _, l := range loras {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", l.ID, l.Filename, l.DisplayName)
			}
			return tw.Flush()
		},
	}
}
