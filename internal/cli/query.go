package cli

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/protofetch/internal/provenance"
)

func (a *app) newProtocolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protocols <id>",
		Short: "Report the protocols behind a single entity and its ancestors",
		Long: "Walk the generation and derivation links of a morphology, trace or other\n" +
			"entity and print the protocols found at every level.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), func(ctx context.Context, svc *provenance.Service) (any, error) {
				return svc.Protocols(ctx, args[0])
			})
		},
	}
}

func (a *app) newEModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emodel <id>",
		Short: "Report the protocols behind an electrical model",
		Long: "Follow an electrical model to its workflow and report the protocols behind\n" +
			"the model, every trace its extraction targets use and its morphology.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), func(ctx context.Context, svc *provenance.Service) (any, error) {
				return svc.EModel(ctx, args[0])
			})
		},
	}
}

func (a *app) newMEModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "memodel <id>",
		Short: "Report the protocols behind a composite morpho-electrical model",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), func(ctx context.Context, svc *provenance.Service) (any, error) {
				return svc.MEModel(ctx, args[0])
			})
		},
	}
}

type queryFunc func(ctx context.Context, svc *provenance.Service) (any, error)

func (a *app) runQuery(ctx context.Context, q queryFunc) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.queryConfig()
	if err != nil {
		return err
	}
	src, err := a.openSources(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	svc := provenance.New(src.search, src.protocols,
		provenance.WithResolveMetadata(cfg.ResolveMetadata),
		provenance.WithLogger(a.log),
	)
	res, err := q(ctx, svc)
	if err != nil {
		return err
	}
	if err := a.writeJSON(res); err != nil {
		return err
	}
	return a.finish(src)
}

// writeJSON prints v to stdout, indented unless --compact is set.
func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetEscapeHTML(false)
	if !a.v.GetBool(keyCompact) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
