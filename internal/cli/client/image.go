package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/tastyfind/internal/config"
	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/service"
	"github.com/cloo-solutions/tastyfind/internal/storage"
	"github.com/cloo-solutions/tastyfind/internal/transport"
)

// ImageCmd creates the image command.
func ImageCmd() *cobra.Command {
	var (
		lat, lng, radius string
		noProgress       bool
	)

	cmd := &cobra.Command{
		Use:   "image <path|s3://bucket/key>",
		Short: "Find restaurants serving the dish in a photo",
		Long: `Uploads a food photo and lists matching restaurants around a location.

The photo can be a local file or an s3:// object. S3 access is configured with
TASTYFIND_S3_ENDPOINT, TASTYFIND_S3_ACCESS_KEY_ID, TASTYFIND_S3_SECRET_ACCESS_KEY
and TASTYFIND_S3_REGION.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			loader, err := newImageLoader(ctx, args[0])
			if err != nil {
				return err
			}
			img, err := loader.Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			form := domain.ImageForm{
				Data:      img.Data,
				Filename:  img.Filename,
				Latitude:  lat,
				Longitude: lng,
				Radius:    radius,
			}
			req, err := form.Request(0)
			if err != nil {
				return err
			}

			var opts []transport.Option
			outputJSON, _ := cmd.Flags().GetBool("output")
			if !noProgress && !outputJSON {
				bar := newUploadBar(cmd.ErrOrStderr(), img.Size)
				defer bar.Finish()
				opts = append(opts, transport.WithUploadProgress(func(current, total int64) {
					bar.ChangeMax64(total)
					_ = bar.Set64(current)
				}))
			}

			tr, err := NewTransportWithCmd(cmd, opts...)
			if err != nil {
				return err
			}
			return execSearch(ctx, cmd.OutOrStdout(), service.NewCoordinator(tr), outputJSON, func(ctx context.Context, c *service.Coordinator) error {
				return c.Submit(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "Latitude, e.g. 40.7128")
	cmd.Flags().StringVar(&lng, "lng", "", "Longitude, e.g. -74.0060")
	cmd.Flags().StringVar(&radius, "radius", strconv.FormatFloat(domain.DefaultImageRadiusKm, 'f', -1, 64), "Search radius in km")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the upload progress bar")

	return cmd
}

// newImageLoader reads only the storage settings. The S3 client is built
// for s3:// sources alone.
func newImageLoader(ctx context.Context, src string) (*storage.ImageLoader, error) {
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, err
	}

	var store storage.ObjectStore
	if strings.HasPrefix(src, "s3://") && cfg.HasS3() {
		s3, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		store = s3
	}
	return storage.NewImageLoader(store, cfg.MaxUploadBytes), nil
}

func newUploadBar(w io.Writer, size int64) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}
