package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	anchorGrpc "liyu1981.xyz/iot-anchor-service/pkg/grpc"
	anchorHttp "liyu1981.xyz/iot-anchor-service/pkg/http"
	"liyu1981.xyz/iot-anchor-service/pkg/ingest"
)

var rootCmd = &cobra.Command{
	Use:           "iot-anchor",
	Short:         "Anchor sensor readings on the iota and signum ledgers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var noPoller bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers and the confirmation poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return serve(cmd.Context(), a)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Check every pending signum upload once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.newPoller().Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checked=%d confirmed=%d pending=%d failed=%d skipped=%t\n",
			result.Checked, result.Confirmed, result.Pending, result.Failed, result.Skipped)
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Store readings and device status published over MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		return ingest.NewIngestor(a.cfg.MQTT, a.anchor).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&noPoller, "no-poller", false, "do not run the confirmation poller in this process")
	rootCmd.AddCommand(serveCmd, sweepCmd, ingestCmd)
}

func serve(ctx context.Context, a *app) error {
	logger := common.GetLogger()
	group, ctx := errgroup.WithContext(ctx)

	if a.cfg.Server.GrpcHostPort != "" {
		anchorGrpcServer := &anchorGrpc.AnchorServer{
			Anchor:            a.anchor,
			RateLimiterStore:  a.newRateLimiterStore(),
			InternalAPISecret: a.cfg.InternalAPISecret,
		}
		s := grpc.NewServer(anchorGrpcServer.ServerOptions()...)
		anchorGrpc.RegisterAnchorServiceServer(s, anchorGrpcServer)

		listener, err := net.Listen("tcp", a.cfg.Server.GrpcHostPort)
		if err != nil {
			return errors.Wrap(err, "grpc listen")
		}

		logger.Info("Starting gRPC server on " + a.cfg.Server.GrpcHostPort)
		group.Go(func() error {
			return s.Serve(listener)
		})
		group.Go(func() error {
			<-ctx.Done()
			s.GracefulStop()
			return nil
		})
	}

	rs := &anchorHttp.RestfulServer{
		Server:            gin.Default(),
		Anchor:            a.anchor,
		Poller:            a.newPoller(),
		RateLimiterStore:  a.newRateLimiterStore(),
		Metrics:           a.metrics,
		Gatherer:          a.registry,
		InternalAPISecret: a.cfg.InternalAPISecret,
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", a.cfg.Server.DefaultRate, a.cfg.Server.DefaultBurst)))

	httpServer := &http.Server{Addr: a.cfg.Server.HttpHostPort, Handler: rs.Server}
	logger.Info("Starting HTTP server on: " + a.cfg.Server.HttpHostPort)
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if !noPoller {
		group.Go(func() error {
			rs.Poller.Run(ctx)
			return nil
		})
	}

	return group.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		common.GetLogger().Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
