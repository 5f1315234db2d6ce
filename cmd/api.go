package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Laisky/nicosearch/internal/mcp"
	"github.com/Laisky/nicosearch/internal/web"
	"github.com/Laisky/nicosearch/library/config"
	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/throttle"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `HTTP gateway and MCP endpoint for the niconico search API`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !gconfig.Shared.GetBool("debug") {
			gin.SetMode(gin.ReleaseMode)
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		svc, err := newSearchService(reg)
		if err != nil {
			return err
		}

		opts := []web.Option{
			web.WithLogger(log.Logger.Named("gin")),
			web.WithMetrics(reg),
			web.WithAllowedDomains(gconfig.Shared.GetStringSlice(config.KeyWebAllowedDomains)...),
		}
		th, err := newGatewayThrottle(cmd.Context())
		if err != nil {
			return err
		}
		if th != nil {
			opts = append(opts, web.WithThrottle(th))
		}
		if mcpEnabled() {
			mcpServer, err := mcp.NewServer(svc, log.Logger.Named("mcp"))
			if err != nil {
				return errors.Wrap(err, "new mcp server")
			}
			opts = append(opts, web.WithMCPHandler(mcpServer.Handler()))
		}

		engine, err := web.NewEngine(svc, opts...)
		if err != nil {
			return errors.Wrap(err, "new gateway")
		}

		return web.RunServer(listenAddr(cmd), engine)
	},
}

// listenAddr prefers the --listen flag over settings.web.listen.
func listenAddr(cmd *cobra.Command) string {
	if cmd.Flags().Changed("listen") {
		return gconfig.Shared.GetString("listen")
	}
	if addr := gconfig.Shared.GetString(config.KeyWebListen); addr != "" {
		return addr
	}
	return gconfig.Shared.GetString("listen")
}

// newGatewayThrottle builds the per-client rate limit, or nil when it is not configured.
// Unset bursts default to their rates; an unset client rate defaults to the total rate.
func newGatewayThrottle(ctx context.Context) (*throttle.ClientThrottle, error) {
	totalPerSec := gconfig.Shared.GetInt(config.KeyWebThrottleTotalPerSec)
	if totalPerSec <= 0 {
		return nil, nil
	}

	cfg := throttle.Config{
		TotalNPerSec:   totalPerSec,
		TotalBurst:     gconfig.Shared.GetInt(config.KeyWebThrottleTotalBurst),
		EachKeyNPerSec: gconfig.Shared.GetInt(config.KeyWebThrottleClientPerSec),
		EachKeyBurst:   gconfig.Shared.GetInt(config.KeyWebThrottleClientBurst),
	}
	if cfg.EachKeyNPerSec <= 0 {
		cfg.EachKeyNPerSec = cfg.TotalNPerSec
	}
	cfg.TotalBurst = max(cfg.TotalBurst, cfg.TotalNPerSec)
	cfg.EachKeyBurst = max(cfg.EachKeyBurst, cfg.EachKeyNPerSec)

	if ctx == nil {
		ctx = context.Background()
	}
	th, err := throttle.NewClientThrottle(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "new gateway throttle")
	}

	log.Logger.Info("gateway throttle enabled",
		zap.Int("total_per_sec", cfg.TotalNPerSec),
		zap.Int("client_per_sec", cfg.EachKeyNPerSec))
	return th, nil
}

// mcpEnabled reports whether /mcp is served. It defaults to true.
func mcpEnabled() bool {
	if gconfig.Shared.Get(config.KeyMCPEnabled) == nil {
		return true
	}
	return gconfig.Shared.GetBool(config.KeyMCPEnabled)
}

func init() {
	rootCMD.AddCommand(apiCMD)

	apiCMD.Flags().String("listen", "localhost:8080", "like `localhost:8080`")
}
