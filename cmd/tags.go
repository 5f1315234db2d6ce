package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/search"
)

var tagsCMD = &cobra.Command{
	Use:   "tags",
	Short: "search related tags",
	Long: `Search the tags related to a keyword and print the normalized result as JSON.

Example:
  nicosearch tags --issuer my-app --reason my-contest -k vocaloid`,
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

		req := search.TagsRequest{
			Keyword: gconfig.Shared.GetString("keyword"),
			Service: gconfig.Shared.GetString("service"),
		}
		if cmd.Flags().Changed("from") {
			from := gconfig.Shared.GetInt("from")
			req.From = &from
		}
		if cmd.Flags().Changed("size") {
			size := gconfig.Shared.GetInt("size")
			req.Size = &size
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		result, err := svc.Tags(ctx, req)
		if err != nil {
			printRejection(cmd.ErrOrStderr(), err)
			return errors.Wrap(err, "tags search")
		}

		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCMD.AddCommand(tagsCMD)

	tagsCMD.Flags().StringP("keyword", "k", "", "search keyword")
	tagsCMD.Flags().String("service", "video", "service whose tags are searched")
	tagsCMD.Flags().Int("from", 0, "offset of the first tag")
	tagsCMD.Flags().Int("size", 10, "number of tags")
}
