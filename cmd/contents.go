package cmd

import (
	"context"
	"encoding/json"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/search"
)

var contentsCMD = &cobra.Command{
	Use:   "contents",
	Short: "search contents",
	Long: `Search niconico contents and print the normalized result as JSON.

Example:
  nicosearch contents --issuer my-app --reason my-contest -k vocaloid \
    --select cmsid,title,view_counter --sort view_counter --size 5`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newSearchService(nil)
		if err != nil {
			return err
		}

		req := contentsRequestFromFlags(cmd)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var result any
		if gconfig.Shared.GetBool("with-tags") {
			result, err = svc.Related(ctx, req)
		} else {
			result, err = svc.Contents(ctx, req)
		}
		if err != nil {
			printRejection(cmd.ErrOrStderr(), err)
			return errors.Wrap(err, "contents search")
		}

		return printJSON(cmd.OutOrStdout(), result)
	},
}

func contentsRequestFromFlags(cmd *cobra.Command) search.ContentsRequest {
	req := search.ContentsRequest{
		Keyword: gconfig.Shared.GetString("keyword"),
		Service: gconfig.Shared.GetString("service"),
		Targets: gconfig.Shared.GetStringSlice("target"),
		Fields:  gconfig.Shared.GetStringSlice("select"),
		SortBy:  gconfig.Shared.GetString("sort"),
		Order:   gconfig.Shared.GetString("order"),
	}
	if filters := gconfig.Shared.GetString("filters"); filters != "" {
		req.Filters = json.RawMessage(filters)
	}
	if cmd.Flags().Changed("from") {
		from := gconfig.Shared.GetInt("from")
		req.From = &from
	}
	if cmd.Flags().Changed("size") {
		size := gconfig.Shared.GetInt("size")
		req.Size = &size
	}
	return req
}

func init() {
	rootCMD.AddCommand(contentsCMD)

	contentsCMD.Flags().StringP("keyword", "k", "", "search keyword")
	contentsCMD.Flags().String("service", "", "searched service, like `video` or `live`")
	contentsCMD.Flags().StringSlice("target", nil, "fields matched against the keyword, like `title,tags`")
	contentsCMD.Flags().StringSlice("select", nil, "fields returned for every hit, like `cmsid,title`")
	contentsCMD.Flags().String("filters", "", `JSON array of filters, like '[{"type":"equal","field":"ppv_type","value":"free"}]'`)
	contentsCMD.Flags().String("sort", "", "sort field, like `view_counter`")
	contentsCMD.Flags().String("order", "", "`asc` or `desc`, desc when a sort field is given")
	contentsCMD.Flags().Int("from", 0, "offset of the first hit")
	contentsCMD.Flags().Int("size", 10, "number of hits")
	contentsCMD.Flags().Bool("with-tags", false, "also search the related tags of the keyword")
}
