package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/client"
	"github.com/GriffinCanCode/LanDrop/backend/internal/client/tree"
)

func lsCmd(e *env) *cobra.Command {
	var (
		collapse []string
		brief    bool
	)
	c := &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and folders on the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subtree := ""
			if len(args) == 1 {
				subtree = args[0]
			}
			exp := tree.NewExpansion()
			for _, rel := range collapse {
				exp.Collapse(strings.Trim(rel, "/"))
			}
			return e.printTree(cmd.Context(), cmd.OutOrStdout(), subtree, exp, brief)
		},
	}
	c.Flags().StringSliceVar(&collapse, "collapse", nil, "folders to show collapsed")
	c.Flags().BoolVar(&brief, "brief", false, "hide sizes and times")
	return c
}

func (e *env) printTree(ctx context.Context, w io.Writer, subtree string, exp *tree.Expansion, brief bool) error {
	list, err := e.client.List(ctx, subtree)
	if err != nil {
		return err
	}
	if len(list.Files) == 0 {
		fmt.Fprintln(w, "No files yet.")
		return nil
	}

	r := tree.NewRenderer(exp)
	r.HideDetails = brief
	if err := r.Render(w, list.Files); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", tree.Count(list.Files))
	for _, rel := range list.Skipped {
		fmt.Fprintf(w, "skipped (unreadable): %s\n", rel)
	}
	return nil
}

func uploadCmd(e *env) *cobra.Command {
	var (
		yes      bool
		excludes []string
	)
	c := &cobra.Command{
		Use:   "upload <file|folder>...",
		Short: "Upload files and folders, keeping folder structure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			batch, err := client.NewBatch(e.client, excludes...)
			if err != nil {
				return err
			}
			for _, arg := range args {
				if err := addPath(batch, arg); err != nil {
					return err
				}
			}
			if batch.Len() == 0 {
				return errors.New("nothing to upload")
			}

			conflicts, err := batch.Conflicts(ctx)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 && !yes {
				fmt.Fprintln(out, "These files already exist on the server:")
				for _, rel := range conflicts {
					fmt.Fprintf(out, "  • %s\n", rel)
				}
				if !confirm(cmd.InOrStdin(), out, "Overwrite them?") {
					fmt.Fprintln(out, "Upload cancelled.")
					return nil
				}
			}

			errOut := cmd.ErrOrStderr()
			resp, err := batch.Upload(ctx, func(percent int) {
				fmt.Fprintf(errOut, "\rUploading %d file(s)... %3d%%", batch.Len(), percent)
			})
			fmt.Fprintln(errOut)
			if err != nil {
				e.logger.Debug("Upload failed", zap.Error(err))
				return err
			}

			fmt.Fprintln(out, resp.Message)
			return e.printTree(ctx, out, "", tree.NewExpansion(), true)
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "overwrite existing files without asking")
	c.Flags().StringSliceVar(&excludes, "exclude", []string{"**/.DS_Store", "**/Thumbs.db"}, "glob patterns to skip")
	return c
}

func addPath(batch *client.Batch, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		_, err = batch.AddDir(path)
		return err
	}
	_, err = batch.AddFile(path)
	return err
}

func getCmd(e *env) *cobra.Command {
	var output string
	c := &cobra.Command{
		Use:   "get <path>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "-" {
				_, _, err := e.client.Download(cmd.Context(), args[0], cmd.OutOrStdout())
				return err
			}
			return e.download(cmd.Context(), cmd.OutOrStdout(), args[0], output)
		},
	}
	c.Flags().StringVarP(&output, "output", "o", ".", "target directory or file, - for stdout")
	return c
}

// download writes to a temp file next to the target and renames it once
// the server supplied name is known.
func (e *env) download(ctx context.Context, out io.Writer, rel, output string) error {
	dir, target := output, ""
	if info, err := os.Stat(output); err != nil || !info.IsDir() {
		dir, target = filepath.Dir(output), output
	}

	tmp, err := os.CreateTemp(dir, ".landrop-*.download")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	name, n, err := e.client.Download(ctx, rel, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if target == "" {
		target = filepath.Join(dir, filepath.Base(filepath.Clean("/"+name)))
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s (%d bytes)\n", target, n)
	return nil
}

func rmCmd(e *env) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder (folders are removed with their contents)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			rel := strings.Trim(args[0], "/")

			if !yes {
				list, err := e.client.List(ctx, "")
				if err != nil {
					return err
				}
				entry := tree.Find(list.Files, rel)
				if entry == nil {
					return fmt.Errorf("%s not found on the server", rel)
				}
				if !confirm(cmd.InOrStdin(), out, tree.ConfirmDelete(entry)) {
					fmt.Fprintln(out, "Delete cancelled.")
					return nil
				}
			}

			msg, err := e.client.Delete(ctx, rel)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, msg)
			return e.printTree(ctx, out, "", tree.NewExpansion(), true)
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return c
}

func checkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check <relative-path>...",
		Short: "Show which paths already exist on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conflicts, err := e.client.CheckFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(conflicts) == 0 {
				fmt.Fprintln(out, "No conflicts.")
				return nil
			}
			for _, rel := range conflicts {
				fmt.Fprintln(out, rel)
			}
			return nil
		},
	}
}
