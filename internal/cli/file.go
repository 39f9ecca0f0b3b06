package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/protofetch/internal/blob"
	"github.com/mesh-intelligence/protofetch/internal/nexus"
	"github.com/mesh-intelligence/protofetch/pkg/types"
)

func (a *app) newFileCmd() *cobra.Command {
	var (
		metadataOnly bool
		dest         string
	)
	cmd := &cobra.Command{
		Use:   "file <content-url>",
		Short: "Download a file, or print its metadata, from a content URL",
		Long: "Retrieve the file behind a distribution content URL. With --metadata-only\n" +
			"the JSON-LD description is printed; otherwise the content is written to\n" +
			"--dest, a local path or an s3://bucket/key URI.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := a.v.GetString(keyToken)
			if token == "" {
				return types.ErrTokenMissing
			}
			opts := nexus.FileOptions{MetadataOnly: metadataOnly, Logger: a.log}
			if dest != "" {
				if metadataOnly {
					return nexus.ErrFileDestination
				}
				sink, key, err := blob.Open(cmd.Context(), dest, a.s3Config())
				if err != nil {
					return usagef("destination: %w", err)
				}
				opts.Sink, opts.Key = sink, key
			}
			res, err := nexus.GetFile(cmd.Context(), args[0], token, opts)
			if err != nil {
				return err
			}
			if res.Metadata != nil {
				return a.writeJSON(res.Metadata)
			}
			return a.writeJSON(res.Object)
		},
	}
	cmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "print the file's JSON-LD metadata instead of downloading it")
	cmd.Flags().StringVar(&dest, "dest", "", "download destination: a file path or s3://bucket/key")
	return cmd
}
