package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/netinfo"
)

func infoCmd(e *env) *cobra.Command {
	var showQR bool
	c := &cobra.Command{
		Use:   "info",
		Short: "Show the server identity and endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := e.client.Info(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (version %s) at %s\n", info.Message, info.Version, e.client.BaseURL())

			names := make([]string, 0, len(info.Endpoints))
			for name := range info.Endpoints {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-12s %s\n", name, info.Endpoints[name])
			}
			if showQR {
				netinfo.PrintQR(out, e.client.BaseURL())
			}
			return nil
		},
	}
	c.Flags().BoolVar(&showQR, "qr", false, "print the server address as a QR code")
	return c
}

func serverCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "server",
		Short: "Show or change the saved server address",
	}

	c.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved server address",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), e.settings.Current())
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <address>",
			Short: "Test an address and save it (http:// is added when missing)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e.settings.SetDraft(args[0])
				saved, err := e.settings.Save(cmd.Context())
				if err != nil {
					e.settings.Cancel()
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Connected. Server address saved: %s\n", saved)
				return nil
			},
		},
		&cobra.Command{
			Use:   "test [address]",
			Short: "Check that a server answers (default: the saved address)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target := e.settings.Current()
				if len(args) == 1 {
					target = args[0]
				}
				if err := e.settings.TestConnection(cmd.Context(), target); err != nil {
					return fmt.Errorf("cannot connect to %s: %w", target, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s\n", target)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the saved address and use the default",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := e.settings.Reset(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Server address reset to %s\n", e.settings.Current())
				return nil
			},
		},
	)
	return c
}
