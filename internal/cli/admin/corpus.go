package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloo-solutions/ragserve/internal/config"
	"github.com/cloo-solutions/ragserve/internal/storage"
	"github.com/spf13/cobra"
)

func CorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage corpus objects",
		Long:  "Upload corpus files to S3-compatible storage so RAG_CORPUS_PATH can point at them",
	}

	cmd.AddCommand(CorpusPushCmd())

	return cmd
}

func CorpusPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <file> <s3://bucket/key>",
		Short: "Upload a local corpus file",
		Long:  "Upload a local UTF-8 text file to S3-compatible storage, creating the bucket if needed",
		Args:  cobra.ExactArgs(2),
		RunE:  runCorpusPush,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runCorpusPush(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path, target := args[0], args[1]
	outputFormat, _ := cmd.Flags().GetString("output")

	bucket, key, err := storage.ParseS3URI(target)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read corpus file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasS3() {
		return fmt.Errorf("S3 is not configured: set RAG_S3_ENDPOINT, RAG_S3_ACCESS_KEY_ID and RAG_S3_SECRET_ACCESS_KEY")
	}

	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx, bucket); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}
	if err := client.PutObject(ctx, bucket, key, data, "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("failed to upload corpus: %w", err)
	}

	meta, err := client.HeadObject(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("failed to verify upload: %w", err)
	}

	if outputFormat == "json" {
		out := map[string]interface{}{
			"uri":  target,
			"size": meta.ContentLength,
			"etag": meta.ETag,
		}
		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Uploaded %s to %s (%d bytes)\n", path, target, meta.ContentLength)
	}

	return nil
}
