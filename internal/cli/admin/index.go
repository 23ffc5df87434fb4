package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/ragserve/internal/service"
	"github.com/spf13/cobra"
)

// IndexCmd rebuilds the vector index without serving or probing the endpoint.
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the vector index from the corpus",
		Long:  "Load, chunk and embed the corpus and replace the persisted index. The generation endpoint is not probed.",
		RunE:  runIndex,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	addOverrideFlags(cmd.Flags())

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	c, err := buildComponents(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	startupCfg := startupConfig(cfg)
	startupCfg.SkipProbe = true

	rt, err := service.NewStartup(startupCfg, c.loader, c.embedder, c.store, nil).Run(ctx)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"collection": cfg.Collection,
			"corpus":     cfg.CorpusPath,
			"chunks":     rt.ChunkCount,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Indexed %d chunks from %s into collection %q\n", rt.ChunkCount, cfg.CorpusPath, cfg.Collection)
	}

	return nil
}
